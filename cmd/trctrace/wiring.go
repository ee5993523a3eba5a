package main

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/mattn/go-colorable"

	"github.com/go-delve/tracepoint/internal/fakedebug"
	"github.com/go-delve/tracepoint/internal/fakestub"
	"github.com/go-delve/tracepoint/internal/regset"
	"github.com/go-delve/tracepoint/rsp"
	"github.com/go-delve/tracepoint/tracepoint"
)

// environment bundles every collaborator a command needs, built once per
// invocation from the root command's persistent flags.
type environment struct {
	store    *tracepoint.TracepointStore
	session  *tracepoint.TraceSession
	compiler *tracepoint.ActionCompiler
	parser   *tracepoint.ActionParser
	symbols  tracepoint.SymbolTable
	lines    tracepoint.LineTable
	resolver tracepoint.LocationResolver
	convvars *fakedebug.ConvVars
	platform *regset.Table
	closer   func()
}

func buildEnvironment() (*environment, error) {
	platform := regset.AMD64()
	symtab := fakedebug.NewSymbolTable(platform)
	lines := &fakedebug.LineTable{}
	convvars := fakedebug.NewConvVars()

	collector := tracepoint.NewSymbolCollector(platform, 512)
	compiler := tracepoint.NewActionCompiler(symtab, collector, platform, 256)
	store := tracepoint.NewTracepointStore(platform.Names())
	store.Eval = convvars

	conn, closer, err := dialConn()
	if err != nil {
		return nil, err
	}

	session := tracepoint.NewTraceSession(store, compiler, conn)
	session.Lines = lines
	session.ConvVars = convvars
	frames := &fakedebug.FrameSelector{}
	session.Frames = frames
	session.Console = newStdoutConsole()
	session.Registers = &fakedebug.RegisterSink{}

	resolver := &fakedebug.LocationResolver{Lines: lines}

	return &environment{
		store:    store,
		session:  session,
		compiler: compiler,
		parser:   &tracepoint.ActionParser{Symbols: symtab},
		symbols:  symtab,
		lines:    lines,
		resolver: resolver,
		convvars: convvars,
		platform: platform,
		closer:   closer,
	}, nil
}

func dialConn() (tracepoint.Conn, func(), error) {
	if fakeTarget {
		c1, c2 := net.Pipe()
		srv := fakestub.NewServer(fakeHandler())
		go srv.Serve(c2)
		conn := rsp.New(c1)
		return conn, func() { c1.Close(); c2.Close() }, nil
	}
	if remoteAddr == "" {
		return nil, nil, fmt.Errorf("specify --addr host:port or --fake-target")
	}
	c, err := net.Dial("tcp", remoteAddr)
	if err != nil {
		return nil, nil, err
	}
	conn := rsp.New(c)
	return conn, func() { c.Close() }, nil
}

// fakeHandler answers every QTFrame request with "F-1" and every other
// request with a plain OK, good enough for exercising the CLI's command
// wiring against --fake-target without a real stub.
func fakeHandler() fakestub.Handler {
	return func(req string) []string {
		switch {
		case len(req) >= 7 && req[:7] == "QTFrame":
			return []string{"F-1"}
		default:
			return []string{"OK"}
		}
	}
}

// stdoutConsole writes decoded remote console output ("O" packets) through
// a colorable wrapper so ANSI escapes render correctly on Windows consoles
// that don't interpret them natively.
type stdoutConsole struct {
	out io.Writer
}

func newStdoutConsole() *stdoutConsole {
	return &stdoutConsole{out: colorable.NewColorable(os.Stdout)}
}

func (c *stdoutConsole) Write(text string) { fmt.Fprint(c.out, text) }
