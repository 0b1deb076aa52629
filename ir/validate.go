package ir

import (
	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
)

// ParseStrict parses src like Parse, then additionally validates every
// operation's attrs against its operator's registered JSON Schema,
// catching malformed attrs the grammar
// itself is too permissive to reject (e.g. a Send missing "receiver").
func ParseStrict(src string) (*computation.Computation, error) {
	c, err := Parse(src)
	if err != nil {
		return nil, err
	}
	for _, op := range c.Operations {
		if err := ValidateAttrs(op.Op); err != nil {
			return nil, mooseerr.Wrap(mooseerr.ParseError, err, "operation %q", op.Name)
		}
	}
	return c, nil
}

// ValidateAttrs checks op's attrs against its OpKind's registered schema,
// a no-op for kinds that register none.
func ValidateAttrs(op operator.Operator) error {
	schema, ok := operator.SchemaFor(op.Kind)
	if !ok {
		return nil
	}
	doc := attrsToJSON(op.Attrs)
	if err := schema.Validate(doc); err != nil {
		return mooseerr.Wrap(mooseerr.ParseError, err, "attrs for %s failed schema validation", op.Kind)
	}
	return nil
}

func attrsToJSON(attrs operator.Attrs) map[string]interface{} {
	doc := make(map[string]interface{}, len(attrs))
	for name, v := range attrs {
		switch v.Kind {
		case operator.AttrInt:
			doc[name] = v.Int
		case operator.AttrBool:
			doc[name] = v.Bool
		case operator.AttrString:
			doc[name] = v.Str
		case operator.AttrInts:
			ints := make([]interface{}, len(v.Ints))
			for i, n := range v.Ints {
				ints[i] = n
			}
			doc[name] = ints
		case operator.AttrBytes:
			doc[name] = v.Bytes
		case operator.AttrValueLiteral:
			doc[name] = v.Value.String()
		}
	}
	return doc
}
