package logflags

import "testing"

func TestSetupRejectsLogOutputWithoutLog(t *testing.T) {
	defer resetFlags()
	if err := Setup(false, "tracewire"); err != errLogstrWithoutLog {
		t.Fatalf("got %v, want errLogstrWithoutLog", err)
	}
}

func TestSetupDefaultsToSessionLayer(t *testing.T) {
	defer resetFlags()
	if err := Setup(true, ""); err != nil {
		t.Fatal(err)
	}
	if !Session() || TraceWire() || Compiler() {
		t.Fatalf("expected only the session layer enabled by default")
	}
}

func TestSetupEnablesNamedLayers(t *testing.T) {
	defer resetFlags()
	if err := Setup(true, "tracewire,compiler"); err != nil {
		t.Fatal(err)
	}
	if !TraceWire() || !Compiler() || Session() {
		t.Fatalf("expected tracewire and compiler enabled, session left off")
	}
}

func resetFlags() {
	tracewire = false
	compiler = false
	session = false
}
