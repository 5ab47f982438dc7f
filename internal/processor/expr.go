package processor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Restricted arithmetic expressions for the calculate transform.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "{" field "}" | "(" expr ")" | "-" factor
//
// Field placeholders resolve against the row at evaluation time;
// non-numeric values coerce to 0. Expressions are parsed once and the
// AST is evaluated per row. Raw strings are never handed to a
// general-purpose interpreter.

type exprNode interface {
	eval(row Row) float64
}

type literalNode float64

func (n literalNode) eval(Row) float64 { return float64(n) }

type fieldNode string

func (n fieldNode) eval(row Row) float64 {
	raw, ok := Lookup(row, string(n))
	if !ok {
		return 0
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0
	}
	return v
}

type binaryNode struct {
	op          byte
	left, right exprNode
}

func (n *binaryNode) eval(row Row) float64 {
	l, r := n.left.eval(row), n.right.eval(row)
	switch n.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		if r == 0 {
			return 0
		}
		return l / r
	}
	return 0
}

type negateNode struct{ inner exprNode }

func (n *negateNode) eval(row Row) float64 { return -n.inner.eval(row) }

// Expression is a parsed arithmetic expression ready for per-row
// evaluation.
type Expression struct {
	root exprNode
}

// Evaluate computes the expression against one row.
func (e *Expression) Evaluate(row Row) float64 {
	return e.root.eval(row)
}

// ParseExpression parses the restricted arithmetic grammar.
func ParseExpression(input string) (*Expression, error) {
	p := &exprParser{input: input}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return &Expression{root: root}, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (exprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseTerm() (exprNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseFactor() (exprNode, error) {
	switch c := p.peek(); {
	case c == '-':
		p.pos++
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &negateNode{inner: inner}, nil

	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return inner, nil

	case c == '{':
		p.pos++
		end := strings.IndexByte(p.input[p.pos:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated field placeholder at position %d", p.pos)
		}
		field := strings.TrimSpace(p.input[p.pos : p.pos+end])
		if field == "" {
			return nil, fmt.Errorf("empty field placeholder at position %d", p.pos)
		}
		p.pos += end + 1
		return fieldNode(field), nil

	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.input) && (p.input[p.pos] >= '0' && p.input[p.pos] <= '9' || p.input[p.pos] == '.') {
			p.pos++
		}
		value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", p.input[start:p.pos], start)
		}
		return literalNode(value), nil

	case c == 0:
		return nil, fmt.Errorf("unexpected end of expression")

	default:
		return nil, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
	}
}
