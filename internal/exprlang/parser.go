package exprlang

import "fmt"

// parser is a small precedence-climbing parser, grounded on the
// teacher's Pratt-parser layout (UnaryFuncs/BinaryFuncs registration,
// precedence table, lookahead pair) but condensed to the single
// expression grammar spec.md §4.1 names: arithmetic, boolean,
// comparison, call, attribute/index access, and literals.
type parser struct {
	toks []token
	pos  int
}

func parseExpr(src string) (Node, error) {
	toks, err := lexExpr(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur().typ != tEOF {
		return nil, fmt.Errorf("exprlang: unexpected trailing token %q", p.cur().lit)
	}
	return n, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }

func (p *parser) expect(tt tokenType, what string) error {
	if p.cur().typ != tt {
		return fmt.Errorf("exprlang: expected %s, got %q", what, p.cur().lit)
	}
	p.advance()
	return nil
}

// parseTernary handles Python's "then if cond else else_" form, which
// is the lowest-precedence construct in the grammar.
func (p *parser) parseTernary() (Node, error) {
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().typ != tIf {
		return then, nil
	}
	p.advance()
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tElse, "'else'"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ternaryNode{then: then, cond: cond, els: els}, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == tOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == tAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.cur().typ == tNot {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: tNot, expr: inner}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[tokenType]bool{
	tEq: true, tNe: true, tLt: true, tLe: true, tGt: true, tGe: true, tIn: true,
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for comparisonOps[p.cur().typ] {
		op := p.cur().typ
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == tPlus || p.cur().typ == tMinus {
		op := p.cur().typ
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == tStar || p.cur().typ == tSlash || p.cur().typ == tSlashSlash || p.cur().typ == tPercent {
		op := p.cur().typ
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.cur().typ == tMinus || p.cur().typ == tPlus {
		op := p.cur().typ
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, expr: inner}, nil
	}
	return p.parsePower()
}

// parsePower handles right-associative "**", which binds tighter than
// the unary operators that may precede its base.
func (p *parser) parsePower() (Node, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.cur().typ == tPow {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: tPow, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().typ {
		case tDot:
			p.advance()
			if p.cur().typ != tIdent {
				return nil, fmt.Errorf("exprlang: expected identifier after '.'")
			}
			name := p.cur().lit
			p.advance()
			n = attrNode{recv: n, name: name}
		case tLParen:
			p.advance()
			var args []Node
			for p.cur().typ != tRParen {
				arg, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur().typ == tComma {
					p.advance()
					continue
				}
				break
			}
			if err := p.expect(tRParen, "')'"); err != nil {
				return nil, err
			}
			n = callNode{fn: n, args: args}
		case tLBracket:
			p.advance()
			idx, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tRBracket, "']'"); err != nil {
				return nil, err
			}
			n = indexNode{recv: n, idx: idx}
		default:
			return n, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.cur()
	switch tok.typ {
	case tNumber:
		p.advance()
		return numberLit{lit: tok.lit}, nil
	case tString:
		p.advance()
		return stringLit{s: tok.lit}, nil
	case tIdent:
		p.advance()
		return identNode{name: tok.lit}, nil
	case tLParen:
		p.advance()
		n, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRParen, "')'"); err != nil {
			return nil, err
		}
		return n, nil
	case tLBracket:
		p.advance()
		var items []Node
		for p.cur().typ != tRBracket {
			item, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.cur().typ == tComma {
				p.advance()
				continue
			}
			break
		}
		if err := p.expect(tRBracket, "']'"); err != nil {
			return nil, err
		}
		return listNode{items: items}, nil
	case tLBrace:
		p.advance()
		var entries []dictEntry
		for p.cur().typ != tRBrace {
			key, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tColon, "':'"); err != nil {
				return nil, err
			}
			val, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			entries = append(entries, dictEntry{key: key, val: val})
			if p.cur().typ == tComma {
				p.advance()
				continue
			}
			break
		}
		if err := p.expect(tRBrace, "'}'"); err != nil {
			return nil, err
		}
		return dictNode{entries: entries}, nil
	case tMinus, tPlus:
		return p.parseUnary()
	case tNot:
		return p.parseNot()
	}
	return nil, fmt.Errorf("exprlang: unexpected token %q", tok.lit)
}
