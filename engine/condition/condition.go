// Package condition compiles and evaluates DLG condition expressions.
//
// The grammar is closed: ! && || == != > < >= <=, has_item:ID,
// companion:ID, identifiers, integers, quoted strings, true/false and
// parentheses. The keywords and, or, not are accepted as aliases.
// Comparison binds tighter than !, which binds tighter than && and ||.
package condition

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nathoo/dlgforge/types"
)

// Expr is a compiled condition.
type Expr struct {
	src  string
	root node
}

// String returns the source text the expression was compiled from.
func (e *Expr) String() string { return e.src }

// Eval evaluates the expression against s. It never mutates s.
// An empty expression is true.
func (e *Expr) Eval(s *types.GameState) (bool, error) {
	if e.root == nil {
		return true, nil
	}
	v, err := e.root.eval(s)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// Strip removes surrounding whitespace and one pair of outer braces.
func Strip(expr string) string {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "{") && strings.HasSuffix(expr, "}") {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	return expr
}

// Compile parses a condition into an Expr.
func Compile(expr string) (*Expr, error) {
	src := Strip(expr)
	if src == "" {
		return &Expr{src: src}, nil
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &compiler{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("col %d: unexpected %s", t.pos+1, t.kind)
	}
	return &Expr{src: src, root: root}, nil
}

var cache sync.Map // string -> *Expr or error

func compileCached(expr string) (*Expr, error) {
	if v, ok := cache.Load(expr); ok {
		if e, ok := v.(*Expr); ok {
			return e, nil
		}
		return nil, v.(error)
	}
	e, err := Compile(expr)
	if err != nil {
		cache.Store(expr, err)
		return nil, err
	}
	cache.Store(expr, e)
	return e, nil
}

// Evaluate compiles and evaluates a condition. Empty conditions are true.
// A malformed condition or a type error evaluates to false and is logged.
func Evaluate(expr string, s *types.GameState) bool {
	if strings.TrimSpace(expr) == "" {
		return true
	}
	e, err := compileCached(expr)
	if err == nil {
		var ok bool
		ok, err = e.Eval(s)
		if err == nil {
			return ok
		}
	}
	zap.L().Warn("condition evaluation failed",
		zap.String("condition", expr), zap.Error(err))
	return false
}

// compiler is a recursive-descent parser over lexed tokens.
type compiler struct {
	toks []token
	pos  int
}

func (p *compiler) peek() token { return p.toks[p.pos] }

func (p *compiler) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *compiler) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left, right}
	}
	return left, nil
}

func (p *compiler) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andNode{left, right}
	}
	return left, nil
}

func (p *compiler) parseUnary() (node, error) {
	if p.peek().kind == tokNot {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{x}, nil
	}
	return p.parseComparison()
}

func (p *compiler) parseComparison() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch op := p.peek().kind; op {
	case tokEq, tokNe, tokGt, tokLt, tokGe, tokLe:
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &cmpNode{op, left, right}, nil
	}
	return left, nil
}

func (p *compiler) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, fmt.Errorf("col %d: expected ')', got %s", c.pos+1, c.kind)
		}
		return x, nil
	case tokIdent:
		return &varNode{t.text}, nil
	case tokNumber:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("col %d: %w", t.pos+1, err)
		}
		return &litNode{types.Number(n)}, nil
	case tokString:
		return &litNode{types.Text(t.text)}, nil
	case tokBool:
		return &litNode{types.Bool(t.text == "true")}, nil
	case tokHasItem:
		return &itemNode{t.text}, nil
	case tokCompanion:
		return &companionNode{t.text}, nil
	}
	return nil, fmt.Errorf("col %d: unexpected %s", t.pos+1, t.kind)
}
