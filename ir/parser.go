package ir

import (
	"sort"
	"strconv"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Parse reads one textual computation and returns
// the Computation it denotes. An unknown operator or type name is
// reported together with a fuzzysearch-suggested nearest match when a
// registered name matches it at all.
func Parse(src string) (*computation.Computation, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var ops []computation.Operation
	for p.tok.kind != tokEOF {
		op, err := p.parseOperation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	c := &computation.Computation{Operations: ops}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expectSymbol(sym string) error {
	if p.tok.kind != tokSymbol || p.tok.text != sym {
		return mooseerr.New(mooseerr.ParseError, "expected %q, found %s", sym, p.tok.describe())
	}
	return p.advance()
}

func (p *parser) expectIdent() (string, error) {
	if p.tok.kind != tokIdent {
		return "", mooseerr.New(mooseerr.ParseError, "expected identifier, found %s", p.tok.describe())
	}
	name := p.tok.text
	return name, p.advance()
}

func (p *parser) atSymbol(sym string) bool {
	return p.tok.kind == tokSymbol && p.tok.text == sym
}

// parseOperation parses `identifier '=' operator [arg_list] placement`.
func (p *parser) parseOperation() (computation.Operation, error) {
	name, err := p.expectIdent()
	if err != nil {
		return computation.Operation{}, err
	}
	if err := p.expectSymbol("="); err != nil {
		return computation.Operation{}, err
	}

	opName, err := p.expectIdent()
	if err != nil {
		return computation.Operation{}, err
	}
	kind, ok := operator.Lookup(opName)
	if !ok {
		if suggestion, ok := operator.Suggest(opName); ok {
			return computation.Operation{}, mooseerr.New(mooseerr.UnknownOperator, "unknown operator %q, did you mean %q?", opName, suggestion)
		}
		return computation.Operation{}, mooseerr.New(mooseerr.UnknownOperator, "unknown operator %q", opName)
	}

	attrs := operator.Attrs{}
	if p.atSymbol("{") {
		attrs, err = p.parseAttrs()
		if err != nil {
			return computation.Operation{}, err
		}
	}

	// The signature clause and the argument list may appear in either
	// order; each appears at most once.
	var sig *operator.Signature
	var inputs []string
	sawSig, sawArgs := false, false
	for {
		if p.atSymbol(":") && !sawSig {
			if err := p.advance(); err != nil {
				return computation.Operation{}, err
			}
			sig, err = p.parseSignature()
			if err != nil {
				return computation.Operation{}, err
			}
			sawSig = true
			continue
		}
		if p.atSymbol("(") && !sawArgs {
			inputs, err = p.parseArgList()
			if err != nil {
				return computation.Operation{}, err
			}
			sawArgs = true
			continue
		}
		break
	}

	pl, err := p.parsePlacement()
	if err != nil {
		return computation.Operation{}, err
	}

	return computation.Operation{
		Name:      name,
		Op:        operator.Operator{Kind: kind, Attrs: attrs, Sig: sig},
		Inputs:    inputs,
		Placement: pl,
	}, nil
}

func (p *parser) parseArgList() ([]string, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var names []string
	for !p.atSymbol(")") {
		if len(names) > 0 {
			if err := p.expectSymbol(","); err != nil {
				return nil, err
			}
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, p.expectSymbol(")")
}

func (p *parser) parseSignature() (*operator.Signature, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var inputs []value.Ty
	for !p.atSymbol(")") {
		if len(inputs) > 0 {
			if err := p.expectSymbol(","); err != nil {
				return nil, err
			}
		}
		ty, err := p.parseTyName()
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, ty)
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("->"); err != nil {
		return nil, err
	}
	output, err := p.parseTyName()
	if err != nil {
		return nil, err
	}
	return &operator.Signature{Inputs: inputs, Output: output}, nil
}

func (p *parser) parseTyName() (value.Ty, error) {
	name, err := p.expectIdent()
	if err != nil {
		return value.InvalidTy, err
	}
	ty, ok := value.ParseTy(name)
	if !ok {
		if suggestion, ok := fuzzyTyMatch(name); ok {
			return value.InvalidTy, mooseerr.New(mooseerr.UnknownType, "unknown type %q, did you mean %q?", name, suggestion)
		}
		return value.InvalidTy, mooseerr.New(mooseerr.UnknownType, "unknown type %q", name)
	}
	return ty, nil
}

func (p *parser) parsePlacement() (placement.Placement, error) {
	if err := p.expectSymbol("@"); err != nil {
		return nil, err
	}
	kindName, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var roles []placement.Role
	for !p.atSymbol(")") {
		if len(roles) > 0 {
			if err := p.expectSymbol(","); err != nil {
				return nil, err
			}
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		roles = append(roles, placement.Role(name))
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}

	switch kindName {
	case "Host":
		if len(roles) != 1 {
			return nil, mooseerr.New(mooseerr.ParseError, "@Host expects exactly one role, got %d", len(roles))
		}
		return placement.Host{Owner: roles[0]}, nil
	case "Replicated":
		if len(roles) != 3 {
			return nil, mooseerr.New(mooseerr.ParseError, "@Replicated expects exactly three roles, got %d", len(roles))
		}
		return placement.Replicated{Owners: [3]placement.Role{roles[0], roles[1], roles[2]}}, nil
	case "Mirrored3":
		if len(roles) != 3 {
			return nil, mooseerr.New(mooseerr.ParseError, "@Mirrored3 expects exactly three roles, got %d", len(roles))
		}
		return placement.Mirrored3{Owners: [3]placement.Role{roles[0], roles[1], roles[2]}}, nil
	case "Additive":
		if len(roles) == 0 {
			return nil, mooseerr.New(mooseerr.ParseError, "@Additive expects at least one role")
		}
		return placement.Additive{Owners: roles}, nil
	default:
		return nil, mooseerr.New(mooseerr.ParseError, "unknown placement kind %q", kindName)
	}
}

func (p *parser) parseAttrs() (operator.Attrs, error) {
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	attrs := operator.Attrs{}
	for !p.atSymbol("}") {
		if len(attrs) > 0 {
			if err := p.expectSymbol(","); err != nil {
				return nil, err
			}
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("="); err != nil {
			return nil, err
		}
		v, err := p.parseAttrValue()
		if err != nil {
			return nil, err
		}
		attrs[name] = v
	}
	return attrs, p.expectSymbol("}")
}

// parseAttrValue handles every attribute value alternative:
// a value literal (TyName(payload)), a bare int, bool, string, an
// int-list, or a hex literal.
func (p *parser) parseAttrValue() (operator.AttrValue, error) {
	switch p.tok.kind {
	case tokNumber:
		return p.parseIntAttr()
	case tokString:
		s := p.tok.text
		return operator.AttrValue{Kind: operator.AttrString, Str: s}, p.advance()
	case tokHex:
		data, err := decodeHex(p.tok.text)
		if err != nil {
			return operator.AttrValue{}, err
		}
		if err := p.advance(); err != nil {
			return operator.AttrValue{}, err
		}
		return operator.AttrValue{Kind: operator.AttrBytes, Bytes: data}, nil
	case tokSymbol:
		if p.tok.text == "[" {
			ints, err := p.parseIntList()
			if err != nil {
				return operator.AttrValue{}, err
			}
			return operator.AttrValue{Kind: operator.AttrInts, Ints: ints}, nil
		}
		return operator.AttrValue{}, mooseerr.New(mooseerr.ParseError, "unexpected token %s in attribute value", p.tok.describe())
	case tokIdent:
		switch p.tok.text {
		case "true", "false":
			b := p.tok.text == "true"
			return operator.AttrValue{Kind: operator.AttrBool, Bool: b}, p.advance()
		default:
			v, err := p.parseValueLiteral()
			if err != nil {
				return operator.AttrValue{}, err
			}
			return operator.AttrValue{Kind: operator.AttrValueLiteral, Value: v}, nil
		}
	default:
		return operator.AttrValue{}, mooseerr.New(mooseerr.ParseError, "unexpected token %s in attribute value", p.tok.describe())
	}
}

func (p *parser) parseIntAttr() (operator.AttrValue, error) {
	n, err := strconv.ParseInt(p.tok.text, 10, 64)
	if err != nil {
		return operator.AttrValue{}, mooseerr.New(mooseerr.ParseError, "invalid integer literal %q", p.tok.text)
	}
	return operator.AttrValue{Kind: operator.AttrInt, Int: n}, p.advance()
}

func (p *parser) parseIntList() ([]int64, error) {
	if err := p.expectSymbol("["); err != nil {
		return nil, err
	}
	var out []int64
	for !p.atSymbol("]") {
		if len(out) > 0 {
			if err := p.expectSymbol(","); err != nil {
				return nil, err
			}
		}
		if p.tok.kind != tokNumber {
			return nil, mooseerr.New(mooseerr.ParseError, "expected integer in list, found %s", p.tok.describe())
		}
		n, err := strconv.ParseInt(p.tok.text, 10, 64)
		if err != nil {
			return nil, mooseerr.New(mooseerr.ParseError, "invalid integer literal %q", p.tok.text)
		}
		out = append(out, n)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return out, p.expectSymbol("]")
}

func decodeHex(digits string) ([]byte, error) {
	if len(digits)%2 != 0 {
		return nil, mooseerr.New(mooseerr.ParseError, "hex literal %q has an odd number of digits", digits)
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		b, err := strconv.ParseUint(digits[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, mooseerr.New(mooseerr.ParseError, "invalid hex literal %q", digits)
		}
		out[i] = byte(b)
	}
	return out, nil
}

func fuzzyTyMatch(name string) (string, bool) {
	ranks := fuzzy.RankFindFold(name, value.AllTyNames())
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)
	return ranks[0].Target, true
}
