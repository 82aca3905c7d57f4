package wire

import (
	"github.com/extprot/extprot-go/registry"
	"github.com/extprot/extprot-go/schema"
)

// DefaultValue returns the value a reader substitutes for a field the
// writer's schema did not have yet. Primitives default to their zero values,
// containers to empty, messages and tuples member-wise. A union defaults to
// its first constant constructor; a union with none has no default and
// surfaces ErrUndefinedDefault.
func DefaultValue(desc *schema.Descriptor, reg *registry.Registry) (interface{}, error) {
	desc, err := resolve(desc, reg)
	if err != nil {
		return nil, err
	}

	switch desc.Kind {
	case schema.KindBool:
		return false, nil
	case schema.KindByte:
		return byte(0), nil
	case schema.KindInt, schema.KindLong:
		return int64(0), nil
	case schema.KindFloat:
		return float64(0), nil
	case schema.KindString:
		return "", nil
	case schema.KindList:
		return []interface{}{}, nil
	case schema.KindAssoc:
		return map[interface{}]interface{}{}, nil
	case schema.KindTuple:
		items := make([]interface{}, 0, len(desc.Subtypes))
		for _, st := range desc.Subtypes {
			v, err := DefaultValue(st, reg)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case schema.KindMsg:
		result := make(map[string]interface{}, len(desc.Fields))
		for i, name := range desc.Fields {
			v, err := DefaultValue(desc.Subtypes[i], reg)
			if err != nil {
				return nil, wrapWithField(err, name)
			}
			result[name] = v
		}
		return result, nil
	case schema.KindUnion:
		for _, o := range desc.Options {
			if o.Constant() {
				return schema.Variant{Option: o.Name}, nil
			}
		}
		return nil, wrapWithField(ErrUndefinedDefault, desc.Name)
	}

	return nil, ErrUndefinedDefault
}
