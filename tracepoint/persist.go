package tracepoint

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SaveTracepoints serializes every tracepoint in the store as a script of
// trace/passcount/actions commands, reproducing the grammar documented
// for the "save-tracepoints" command:
//
//	trace <address-or-linespec>
//	  passcount <n>            ; omitted when zero
//	  actions
//	    <action-line>
//	    while-stepping <n>
//	      <nested-action-line>
//	    end
//	  end
func SaveTracepoints(w io.Writer, tps []*Tracepoint) error {
	bw := bufio.NewWriter(w)
	for _, tp := range tps {
		if _, err := fmt.Fprintf(bw, "trace %s\n", locatorString(tp)); err != nil {
			return err
		}
		if tp.PassCount != 0 {
			if _, err := fmt.Fprintf(bw, "  passcount %d\n", tp.PassCount); err != nil {
				return err
			}
		}
		if len(tp.Actions) > 0 {
			if _, err := bw.WriteString("  actions\n"); err != nil {
				return err
			}
			depth := 1
			for _, a := range tp.Actions {
				if a.Kind == KindEnd {
					depth--
				}
				if _, err := fmt.Fprintf(bw, "%s%s\n", strings.Repeat("  ", depth+1), strings.TrimSpace(a.Raw)); err != nil {
					return err
				}
				if a.Kind == KindWhileStepping {
					depth++
				}
			}
			if _, err := bw.WriteString("  end\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func locatorString(tp *Tracepoint) string {
	if tp.CanonicalAddr != "" {
		return tp.CanonicalAddr
	}
	if tp.SourceFile != "" {
		return fmt.Sprintf("%s:%d", tp.SourceFile, tp.SourceLine)
	}
	return fmt.Sprintf("*0x%x", tp.Address)
}

// LoadTracepoints re-sources a save-tracepoints script, reconstructing an
// equivalent store: each "trace" line resolves via resolver and creates a
// tracepoint, each "passcount" line sets the preceding tracepoint's pass
// count, and the "actions" block re-parses its body through parser,
// tracking nested while-stepping blocks by depth so the inner "end"
// (closing a stepping block) and the outer "end" (closing "actions")
// are told apart even though both render as the same trimmed text.
func LoadTracepoints(r io.Reader, store *TracepointStore, resolver LocationResolver, parser *ActionParser, sink ConvVarSink) ([]*Tracepoint, error) {
	scanner := bufio.NewScanner(r)
	var created []*Tracepoint
	var current *Tracepoint

	inActions := false
	depth := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "trace "):
			loc, err := resolver.Resolve(strings.TrimSpace(strings.TrimPrefix(line, "trace ")))
			if err != nil {
				return created, InvalidArgumentError{What: err.Error()}
			}
			current = store.Create(loc, sink)
			created = append(created, current)
			inActions = false
			depth = 0

		case strings.HasPrefix(line, "passcount "):
			if current == nil {
				return created, ProtocolError{Reason: "passcount outside of a trace block"}
			}
			n, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "passcount ")), 10, 64)
			if err != nil {
				return created, InvalidArgumentError{What: "bad passcount: " + err.Error()}
			}
			current.PassCount = n

		case line == "actions":
			inActions = true
			depth = 0

		case line == "end":
			if !inActions {
				continue
			}
			if depth > 0 {
				if current != nil {
					current.Actions = append(current.Actions, ActionLine{Raw: "end", Kind: KindEnd})
				}
				depth--
				continue
			}
			inActions = false

		case inActions:
			if current == nil {
				continue
			}
			al, err := parser.Parse(line)
			if err != nil {
				continue // BadAction: dropped, per propagation policy
			}
			current.Actions = append(current.Actions, al)
			if al.Kind == KindWhileStepping {
				depth++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return created, ProtocolError{Reason: err.Error()}
	}
	return created, nil
}
