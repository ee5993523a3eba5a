package tracepoint

import (
	"fmt"
	"strconv"
	"strings"

	"go.starlark.net/syntax"

	"github.com/go-delve/tracepoint/internal/logflags"
)

// ActionKind classifies one parsed ActionLine.
type ActionKind int

const (
	KindInvalid ActionKind = iota
	KindCollect
	KindWhileStepping
	KindEnd
)

// CollectItemKind classifies one comma-separated item of a "collect" line.
type CollectItemKind int

const (
	ItemAllRegisters CollectItemKind = iota
	ItemAllArgs
	ItemAllLocals
	ItemMemrange
	ItemExpression
)

// CollectItem is one parsed operand of a "collect" action line.
type CollectItem struct {
	Kind CollectItemKind

	// Populated when Kind == ItemMemrange.
	HasBaseReg  bool
	BaseReg     string
	MemOffset   int64
	MemLength   int64

	// Populated when Kind == ItemExpression.
	Expr string
}

// ActionLine is a raw source line plus its classified kind. Order within
// a Tracepoint's Actions slice is significant: a WhileStepping line opens
// a sub-block that a subsequent End closes.
type ActionLine struct {
	Raw   string
	Kind  ActionKind
	Items []CollectItem // Kind == KindCollect
	Steps int           // Kind == KindWhileStepping; -1 means unbounded
}

// ActionParser validates and classifies one action line at a time against
// the grammar:
//
//	action-line   := "collect" collect-item ("," collect-item)*
//	               | "while-stepping" integer?
//	               | "end"
//	               | <empty>
//	collect-item  := "$reg" | "$arg" | "$loc"
//	               | "$(" memrange-body ")"
//	               | expression
//	memrange-body := [ "$" register-name "," ] signed-int "," positive-int
//
// A SymbolTable is consulted only to reject an expression item whose
// resolved storage class is constant or optimized-out; syntactic
// classification itself needs no symbol information.
type ActionParser struct {
	Symbols SymbolTable
	PC      uint64
}

// Parse classifies one raw source line. A syntactically invalid line
// returns (ActionLine{Kind: KindInvalid, Raw: line}, err) with err
// describing the rejection; the caller is expected to warn and drop the
// line, per the BadAction recovery policy.
func (p *ActionParser) Parse(line string) (ActionLine, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ActionLine{Raw: line, Kind: KindInvalid}, nil
	}

	word, rest := splitFirstWord(trimmed)
	switch strings.ToLower(word) {
	case "end":
		if strings.TrimSpace(rest) != "" {
			return p.invalid(line, "'%s' is not a supported tracepoint action.", trimmed)
		}
		return ActionLine{Raw: line, Kind: KindEnd}, nil

	case "while-stepping":
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return ActionLine{Raw: line, Kind: KindWhileStepping, Steps: -1}, nil
		}
		n, err := strconv.ParseInt(rest, 0, 64)
		if err != nil {
			return p.invalid(line, "'%s' is not a supported tracepoint action.", trimmed)
		}
		if n == 0 {
			return p.invalid(line, "while-stepping count must not be zero")
		}
		return ActionLine{Raw: line, Kind: KindWhileStepping, Steps: int(n)}, nil

	case "collect":
		items, err := p.parseCollectItems(rest)
		if err != nil {
			return ActionLine{Raw: line, Kind: KindInvalid}, err
		}
		return ActionLine{Raw: line, Kind: KindCollect, Items: items}, nil

	default:
		return p.invalid(line, "'%s' is not a supported tracepoint action.", trimmed)
	}
}

func (p *ActionParser) invalid(line, format string, args ...interface{}) (ActionLine, error) {
	err := BadActionError{Line: strings.TrimSpace(line), Reason: fmt.Sprintf(format, args...)}
	logflags.CompilerLogger().Debugf("rejected action line: %s", err.Error())
	return ActionLine{Raw: line, Kind: KindInvalid}, err
}

func (p *ActionParser) parseCollectItems(rest string) ([]CollectItem, error) {
	parts := splitTopLevelCommas(rest)
	if len(parts) == 0 {
		return nil, BadActionError{Reason: "enter variable name or register."}
	}
	items := make([]CollectItem, 0, len(parts))
	for _, raw := range parts {
		item, err := p.parseCollectItem(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *ActionParser) parseCollectItem(text string) (CollectItem, error) {
	switch text {
	case "":
		return CollectItem{}, BadActionError{Reason: "enter variable name or register."}
	case "$reg", "$regs":
		return CollectItem{Kind: ItemAllRegisters}, nil
	case "$arg", "$args":
		return CollectItem{Kind: ItemAllArgs}, nil
	case "$loc", "$locals":
		return CollectItem{Kind: ItemAllLocals}, nil
	}

	if strings.HasPrefix(text, "$(") && strings.HasSuffix(text, ")") {
		return p.parseMemrangeBody(text[2 : len(text)-1])
	}

	return p.parseExpressionItem(text)
}

// parseMemrangeBody parses "[ $register-name, ] signed-int, positive-int".
func (p *ActionParser) parseMemrangeBody(body string) (CollectItem, error) {
	fields := splitTopLevelCommas(body)
	item := CollectItem{Kind: ItemMemrange}

	if len(fields) == 3 {
		regField := strings.TrimSpace(fields[0])
		if !strings.HasPrefix(regField, "$") {
			return CollectItem{}, BadActionError{Reason: "enter variable name or register."}
		}
		item.HasBaseReg = true
		item.BaseReg = strings.TrimPrefix(regField, "$")
		fields = fields[1:]
	} else if len(fields) != 2 {
		return CollectItem{}, BadActionError{Reason: "enter variable name or register."}
	}

	off, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 0, 64)
	if err != nil {
		return CollectItem{}, BadActionError{Reason: "enter variable name or register."}
	}
	length, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 0, 64)
	if err != nil || length <= 0 {
		return CollectItem{}, BadActionError{Reason: "enter variable name or register."}
	}
	item.MemOffset = off
	item.MemLength = length
	return item, nil
}

// parseExpressionItem classifies the grammar's last alternative: a bare
// identifier or register reference is accepted, anything syntactically
// richer (a computed expression, a cast, a literal) is rejected. When
// Symbols is set, an identifier is also looked up at PC and rejected if
// it is constant or optimized-out; without Symbols that check is left to
// SymbolCollector, which reports those classes as diagnostics.
func (p *ActionParser) parseExpressionItem(text string) (CollectItem, error) {
	if strings.HasPrefix(text, "$") {
		return CollectItem{Kind: ItemExpression, Expr: text}, nil
	}

	expr, err := syntax.ParseExpr("action", text, 0)
	if err != nil {
		return CollectItem{}, BadActionError{Reason: "enter variable name or register."}
	}
	if _, ok := expr.(*syntax.Ident); !ok {
		return CollectItem{}, BadActionError{Reason: "enter variable name or register."}
	}

	if p.Symbols != nil {
		if sym, ok := p.Symbols.Lookup(text, p.PC); ok {
			switch sym.Class {
			case ClassConst:
				return CollectItem{}, BadActionError{
					Reason: fmt.Sprintf("%s is constant (value %d): will not be collected.", text, sym.Offset),
				}
			case ClassOptimizedOut:
				return CollectItem{}, BadActionError{
					Reason: fmt.Sprintf("%s is optimized away and cannot be collected.", text),
				}
			}
		}
	}

	return CollectItem{Kind: ItemExpression, Expr: text}, nil
}

func splitFirstWord(s string) (word, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// splitTopLevelCommas splits on commas that are not nested inside
// parentheses, so a memrange item's own internal commas don't get cut by
// collect's top-level comma separator.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	tail := strings.TrimSpace(s[start:])
	if tail != "" || len(out) > 0 {
		out = append(out, s[start:])
	}
	return out
}
