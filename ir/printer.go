package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// Print renders a Computation back to the textual IR. Attribute names are
// emitted in sorted order since Attrs is an order-insensitive map;
// Parse(Print(c)) reconstructs a Computation equal to c.
func Print(c *computation.Computation) string {
	var b strings.Builder
	for _, op := range c.Operations {
		printOperation(&b, op)
	}
	return b.String()
}

func printOperation(b *strings.Builder, op computation.Operation) {
	fmt.Fprintf(b, "%s = %s", op.Name, op.Op.Kind)
	if len(op.Op.Attrs) > 0 {
		b.WriteString(printAttrs(op.Op.Attrs))
	}
	if op.Op.Sig != nil {
		fmt.Fprintf(b, ": %s", printSignature(*op.Op.Sig))
	}
	if len(op.Inputs) > 0 {
		fmt.Fprintf(b, "(%s)", strings.Join(op.Inputs, ", "))
	}
	fmt.Fprintf(b, " %s\n", printPlacement(op.Placement))
}

func printSignature(sig operator.Signature) string {
	names := make([]string, len(sig.Inputs))
	for i, ty := range sig.Inputs {
		names[i] = ty.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(names, ", "), sig.Output)
}

func printPlacement(p placement.Placement) string {
	switch pl := p.(type) {
	case placement.Host:
		return fmt.Sprintf("@Host(%s)", pl.Owner)
	case placement.Replicated:
		return fmt.Sprintf("@Replicated(%s, %s, %s)", pl.Owners[0], pl.Owners[1], pl.Owners[2])
	case placement.Mirrored3:
		return fmt.Sprintf("@Mirrored3(%s, %s, %s)", pl.Owners[0], pl.Owners[1], pl.Owners[2])
	case placement.Additive:
		names := make([]string, len(pl.Owners))
		for i, o := range pl.Owners {
			names[i] = string(o)
		}
		return fmt.Sprintf("@Additive(%s)", strings.Join(names, ", "))
	default:
		return "@Unknown()"
	}
}

func printAttrs(attrs operator.Attrs) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s = %s", name, printAttrValue(attrs[name]))
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

func printAttrValue(v operator.AttrValue) string {
	switch v.Kind {
	case operator.AttrInt:
		return strconv.FormatInt(v.Int, 10)
	case operator.AttrBool:
		return strconv.FormatBool(v.Bool)
	case operator.AttrString:
		return strconv.Quote(v.Str)
	case operator.AttrInts:
		parts := make([]string, len(v.Ints))
		for i, n := range v.Ints {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	case operator.AttrBytes:
		return fmt.Sprintf("0x%x", v.Bytes)
	case operator.AttrValueLiteral:
		return printValueLiteral(v.Value)
	default:
		return "<invalid-attr>"
	}
}

func printValueLiteral(v value.Value) string {
	switch val := v.(type) {
	case value.UnitValue:
		return "Unit()"
	case value.Ring64:
		return fmt.Sprintf("Ring64(%d)", uint64(val))
	case value.Float32Value:
		return fmt.Sprintf("Float32(%s)", formatFloat(float64(val)))
	case value.Float64Value:
		return fmt.Sprintf("Float64(%s)", formatFloat(float64(val)))
	case value.StringValue:
		return fmt.Sprintf("String(%s)", strconv.Quote(string(val)))
	case value.BoolValue:
		return fmt.Sprintf("Bool(%t)", bool(val))
	case value.Shape:
		parts := make([]string, len(val.Dims))
		for i, d := range val.Dims {
			parts[i] = strconv.FormatInt(d, 10)
		}
		return fmt.Sprintf("Shape([%s])", strings.Join(parts, ", "))
	case value.Bytes:
		return fmt.Sprintf("%s(0x%x)", val.Ty(), val.Bytes())
	case value.Tensor:
		return printTensor(val)
	default:
		return fmt.Sprintf("<unprintable %s>", v.Ty())
	}
}

func printTensor(t value.Tensor) string {
	// Ring and integer elements are formatted from their native slices;
	// routing them through float64 would silently round values above
	// 2^53 and break the parse/print round trip.
	var elems []string
	switch t.Kind() {
	case value.ElemFloat32, value.ElemFloat64:
		elems = make([]string, len(t.Floats))
		for i, f := range t.Floats {
			elems[i] = formatFloat(f)
		}
	case value.ElemRing64:
		elems = make([]string, len(t.Ring64))
		for i, r := range t.Ring64 {
			elems[i] = strconv.FormatUint(r, 10)
		}
	default:
		elems = make([]string, len(t.Ints))
		for i, n := range t.Ints {
			elems[i] = strconv.FormatInt(n, 10)
		}
	}
	return fmt.Sprintf("%s(%s)", t.Ty(), printNested(t.Shape, elems))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// printNested re-nests a flat row-major slice of formatted elements
// according to shape, the inverse of flatten in literal.go.
func printNested(shape []int64, elems []string) string {
	if len(shape) == 0 {
		if len(elems) == 0 {
			return "[]"
		}
		return elems[0]
	}
	if shape[0] == 0 {
		return "[]"
	}
	stride := len(elems) / int(shape[0])
	parts := make([]string, shape[0])
	for i := 0; i < int(shape[0]); i++ {
		parts[i] = printNested(shape[1:], elems[i*stride:(i+1)*stride])
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
