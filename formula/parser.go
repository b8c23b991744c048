package formula

import "fmt"

// =============================================================================
// AST
// =============================================================================

type node interface{ n() }

type numberNode struct {
	value string
}

type variableNode struct {
	name string
}

type binaryNode struct {
	op          string // + - * / % ^
	left, right node
}

type compareNode struct {
	op          string // > < >= <= == !=
	left, right node
}

type callNode struct {
	fn   string
	args []node
}

func (numberNode) n()   {}
func (variableNode) n() {}
func (binaryNode) n()   {}
func (compareNode) n()  {}
func (callNode) n()     {}

// functions is the closed function set. Arity -1 means variadic (at least 1).
var functions = map[string]int{
	"IF":    3,
	"MIN":   -1,
	"MAX":   -1,
	"ROUND": -1, // 1 or 2 args
	"FLOOR": 1,
	"CEIL":  1,
	"ABS":   1,
	"TRUNC": 1,
	"SQRT":  1,
	"POW":   2,
}

// =============================================================================
// PARSER - Recursive descent with standard precedence
// =============================================================================
//
//   comparison := additive (cmpOp additive)?
//   additive   := term (('+'|'-') term)*
//   term       := power (('*'|'/'|'%') power)*
//   power      := unary ('^' power)?        right-associative
//   unary      := '-' unary | primary
//   primary    := NUMBER | IDENT | IDENT '(' args ')' | '(' comparison ')'

type parser struct {
	toks []token
	pos  int
	src  string
}

func parse(src string) (node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, src: src}
	root, err := p.comparison()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errAt(src, p.peek().pos, "unexpected trailing input")
	}
	return root, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) comparison() (node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokCompare {
		op := p.next().text
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &compareNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) additive() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOperator && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.power()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOperator &&
		(p.peek().text == "*" || p.peek().text == "/" || p.peek().text == "%") {
		op := p.next().text
		right, err := p.power()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) power() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokOperator && p.peek().text == "^" {
		p.next()
		right, err := p.power() // right-associative
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: "^", left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.peek().kind == tokOperator && p.peek().text == "-" {
		p.next()
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: "-", left: &numberNode{value: "0"}, right: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &numberNode{value: t.text}, nil

	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		return &variableNode{name: t.text}, nil

	case tokLParen:
		inner, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, errAt(p.src, p.peek().pos, "missing closing parenthesis")
		}
		p.next()
		return inner, nil

	default:
		return nil, errAt(p.src, t.pos, "expected a value")
	}
}

func (p *parser) call(name token) (node, error) {
	arity, ok := functions[name.text]
	if !ok {
		return nil, errAt(p.src, name.pos, fmt.Sprintf("unknown function %s", name.text))
	}
	p.next() // consume '('

	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.comparison()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.peek().kind != tokRParen {
		return nil, errAt(p.src, p.peek().pos, "missing closing parenthesis in call")
	}
	p.next()

	if err := checkArity(name.text, arity, len(args)); err != nil {
		return nil, errAt(p.src, name.pos, err.Error())
	}
	return &callNode{fn: name.text, args: args}, nil
}

func checkArity(fn string, want, got int) error {
	switch {
	case fn == "ROUND":
		if got != 1 && got != 2 {
			return fmt.Errorf("ROUND takes 1 or 2 arguments, got %d", got)
		}
	case want == -1:
		if got < 1 {
			return fmt.Errorf("%s requires at least one argument", fn)
		}
	case got != want:
		return fmt.Errorf("%s takes %d arguments, got %d", fn, want, got)
	}
	return nil
}
