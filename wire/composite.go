package wire

import (
	"fmt"
	"strconv"

	"github.com/extprot/extprot-go/registry"
	"github.com/extprot/extprot-go/schema"
)

// Composite framing: TUPLE, HTUPLE and ASSOC all encode as
//
//	prefix varint(length) varint(nitems) item...
//
// where length counts the payload bytes after itself. Readers derive a
// substream of exactly length bytes, so a frame that lies about its interior
// fails at the frame boundary instead of corrupting the parent stream. A
// reader-backed frame of substreamThreshold bytes or more is read straight
// from the parent stream and is not bounded this way.

// asUnexpected converts the clean-EOF sentinel into a truncation error.
// Inside a composite frame there is no clean end: the item count promised
// more values than the frame held.
func asUnexpected(err error) error {
	if err == ErrEOF {
		return ErrUnexpectedEOF
	}
	return err
}

// readTuple reads a TUPLE payload under the compatibility rule: missing
// trailing items are default-filled, extra trailing items are skipped
// structurally. This is what permits appending fields to a tuple or message
// while old and new readers interoperate.
func readTuple(d Decoder, subtypes []*schema.Descriptor, reg *registry.Registry) ([]interface{}, error) {
	length, err := ReadUvarint(d)
	if err != nil {
		return nil, err
	}
	sub, err := d.Substream(int(length))
	if err != nil {
		return nil, err
	}

	nitems, err := ReadUvarint(sub)
	if err != nil {
		return nil, err
	}
	ntypes := uint64(len(subtypes))

	items := make([]interface{}, 0, ntypes)
	if nitems <= ntypes {
		for i := uint64(0); i < nitems; i++ {
			v, err := ReadValue(sub, subtypes[i], reg)
			if err != nil {
				return nil, wrapWithField(asUnexpected(err), strconv.FormatUint(i, 10))
			}
			items = append(items, v)
		}
		for i := nitems; i < ntypes; i++ {
			v, err := DefaultValue(subtypes[i], reg)
			if err != nil {
				return nil, wrapWithField(err, strconv.FormatUint(i, 10))
			}
			items = append(items, v)
		}
	} else {
		for i := uint64(0); i < ntypes; i++ {
			v, err := ReadValue(sub, subtypes[i], reg)
			if err != nil {
				return nil, wrapWithField(asUnexpected(err), strconv.FormatUint(i, 10))
			}
			items = append(items, v)
		}
		for i := ntypes; i < nitems; i++ {
			if err := SkipValue(sub); err != nil {
				return nil, asUnexpected(err)
			}
		}
	}
	return items, nil
}

// writeTupleFrame renders the items into a scratch buffer and emits
// prefix, length and payload. The scratch buffer is scoped to this call.
func writeTupleFrame(e Encoder, tag Tag, items []interface{}, subtypes []*schema.Descriptor, reg *registry.Registry) error {
	scratch := NewBuffer()
	if err := WriteUvarint(scratch, uint64(len(items))); err != nil {
		return err
	}
	for i, item := range items {
		if err := WriteValue(scratch, item, subtypes[i], reg); err != nil {
			return wrapWithField(err, strconv.Itoa(i))
		}
	}

	if err := WriteUvarint(e, MakePrefix(WireTuple, tag)); err != nil {
		return err
	}
	if err := WriteUvarint(e, uint64(scratch.Len())); err != nil {
		return err
	}
	return e.Write(scratch.Bytes())
}

// readHTuple reads a homogeneous list. Every element shares the single
// element type; the historical multi-subtype modulo read is not supported.
func readHTuple(d Decoder, elem *schema.Descriptor, reg *registry.Registry) ([]interface{}, error) {
	length, err := ReadUvarint(d)
	if err != nil {
		return nil, err
	}
	sub, err := d.Substream(int(length))
	if err != nil {
		return nil, err
	}

	nitems, err := ReadUvarint(sub)
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, 0, nitems)
	for i := uint64(0); i < nitems; i++ {
		v, err := ReadValue(sub, elem, reg)
		if err != nil {
			return nil, wrapWithField(asUnexpected(err), strconv.FormatUint(i, 10))
		}
		items = append(items, v)
	}
	return items, nil
}

func writeHTuple(e Encoder, items []interface{}, elem *schema.Descriptor, reg *registry.Registry) error {
	scratch := NewBuffer()
	if err := WriteUvarint(scratch, uint64(len(items))); err != nil {
		return err
	}
	for i, item := range items {
		if err := WriteValue(scratch, item, elem, reg); err != nil {
			return wrapWithField(err, strconv.Itoa(i))
		}
	}

	if err := WriteUvarint(e, MakePrefix(WireHTuple, 0)); err != nil {
		return err
	}
	if err := WriteUvarint(e, uint64(scratch.Len())); err != nil {
		return err
	}
	return e.Write(scratch.Bytes())
}

// readAssoc reads an associative container into a generic map. Keys must be
// comparable in Go terms, which every primitive logical type satisfies.
func readAssoc(d Decoder, keyType, valType *schema.Descriptor, reg *registry.Registry) (map[interface{}]interface{}, error) {
	length, err := ReadUvarint(d)
	if err != nil {
		return nil, err
	}
	sub, err := d.Substream(int(length))
	if err != nil {
		return nil, err
	}

	npairs, err := ReadUvarint(sub)
	if err != nil {
		return nil, err
	}
	items := make(map[interface{}]interface{}, npairs)
	for i := uint64(0); i < npairs; i++ {
		key, err := ReadValue(sub, keyType, reg)
		if err != nil {
			return nil, wrapWithField(asUnexpected(err), "key")
		}
		val, err := ReadValue(sub, valType, reg)
		if err != nil {
			return nil, wrapWithField(asUnexpected(err), "value")
		}
		items[key] = val
	}
	return items, nil
}

func writeAssoc(e Encoder, pairs map[interface{}]interface{}, keyType, valType *schema.Descriptor, reg *registry.Registry) error {
	scratch := NewBuffer()
	if err := WriteUvarint(scratch, uint64(len(pairs))); err != nil {
		return err
	}
	for key, val := range pairs {
		if err := WriteValue(scratch, key, keyType, reg); err != nil {
			return wrapWithField(err, "key")
		}
		if err := WriteValue(scratch, val, valType, reg); err != nil {
			return wrapWithField(err, "value")
		}
	}

	if err := WriteUvarint(e, MakePrefix(WireAssoc, 0)); err != nil {
		return err
	}
	if err := WriteUvarint(e, uint64(scratch.Len())); err != nil {
		return err
	}
	return e.Write(scratch.Bytes())
}

// ===== MESSAGE =====

// messageFromItems lifts positional tuple items into a named record.
func messageFromItems(desc *schema.Descriptor, items []interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(items))
	for i, v := range items {
		result[desc.Fields[i]] = v
	}
	return result
}

// messageItems lowers a named record to positional items in field order.
// Absent fields take their type's default, so a caller can marshal a partial
// map as long as every omitted field has one.
func messageItems(value interface{}, desc *schema.Descriptor, reg *registry.Registry) ([]interface{}, error) {
	data, ok := value.(map[string]interface{})
	if !ok {
		return nil, &RenderError{Msg: fmt.Sprintf("message value must be map[string]interface{}, got %T", value)}
	}
	items := make([]interface{}, 0, len(desc.Fields))
	for i, name := range desc.Fields {
		if v, ok := data[name]; ok {
			items = append(items, v)
			continue
		}
		dv, err := DefaultValue(desc.Subtypes[i], reg)
		if err != nil {
			return nil, wrapWithField(err, name)
		}
		items = append(items, dv)
	}
	return items, nil
}

// ===== UNION =====

// readUnion selects a constructor by the observed (wiretype, tag) pair.
// ENUM carries constant constructors, TUPLE the payload-carrying ones. A
// primitive wire type promotes into the first payload constructor.
func readUnion(d Decoder, wt WireType, tag Tag, desc *schema.Descriptor, reg *registry.Registry) (interface{}, error) {
	switch wt {
	case WireEnum:
		for _, o := range desc.Options {
			if o.Constant() && Tag(o.Tag) == tag {
				return schema.Variant{Option: o.Name}, nil
			}
		}
		return nil, wrapWithField(fmt.Errorf("%w: unknown enum tag %d", ErrUnexpectedWireType, tag), desc.Name)

	case WireTuple:
		for _, o := range desc.Options {
			if !o.Constant() && Tag(o.Tag) == tag {
				items, err := readTuple(d, o.Subtypes, reg)
				if err != nil {
					return nil, wrapWithField(err, desc.Name+"."+o.Name)
				}
				return schema.Variant{Option: o.Name, Values: items}, nil
			}
		}
		return nil, wrapWithField(fmt.Errorf("%w: unknown constructor tag %d", ErrUnexpectedWireType, tag), desc.Name)
	}

	if !wt.Delimited() && !config.DisablePromotion {
		for _, o := range desc.Options {
			if o.Constant() {
				continue
			}
			items, err := promoteComposite(d, wt, tag, o.Subtypes, reg, "Union")
			if err != nil {
				return nil, wrapWithField(err, desc.Name+"."+o.Name)
			}
			return schema.Variant{Option: o.Name, Values: items}, nil
		}
		return nil, wrapWithField(&ParseError{Msg: "could not promote primitive to Union type"}, desc.Name)
	}
	return nil, wrapWithField(wireTypeError(wt, WireTuple), desc.Name)
}

func writeUnion(e Encoder, value interface{}, desc *schema.Descriptor, reg *registry.Registry) error {
	variant, err := coerceVariant(value)
	if err != nil {
		return wrapWithField(err, desc.Name)
	}
	opt := desc.OptionByName(variant.Option)
	if opt == nil {
		return wrapWithField(&RenderError{Msg: fmt.Sprintf("unknown constructor %q", variant.Option)}, desc.Name)
	}

	if opt.Constant() {
		if len(variant.Values) != 0 {
			return wrapWithField(&RenderError{Msg: fmt.Sprintf("constant constructor %q given %d values", opt.Name, len(variant.Values))}, desc.Name)
		}
		return WriteUvarint(e, MakePrefix(WireEnum, Tag(opt.Tag)))
	}

	if len(variant.Values) != len(opt.Subtypes) {
		return wrapWithField(&RenderError{Msg: fmt.Sprintf("constructor %q arity mismatch: value has %d items, type has %d", opt.Name, len(variant.Values), len(opt.Subtypes))}, desc.Name)
	}
	if err := writeTupleFrame(e, Tag(opt.Tag), variant.Values, opt.Subtypes, reg); err != nil {
		return wrapWithField(err, desc.Name+"."+opt.Name)
	}
	return nil
}
