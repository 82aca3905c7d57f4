package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/extprot/extprot-go/registry"
	"github.com/extprot/extprot-go/schema"
)

// This file is the primitive tag layer: every value starts with an unsigned
// varint prefix whose low nibble is the wire type and whose high bits are
// the user tag. ReadValue and WriteValue dispatch on the descriptor from
// there; composite framing lives in composite.go.

// ReadValue reads one value from the stream as directed by desc. A stream
// with no bytes left surfaces ErrEOF; one that ends mid-value surfaces
// ErrUnexpectedEOF. reg may be nil when desc contains no named references.
func ReadValue(d Decoder, desc *schema.Descriptor, reg *registry.Registry) (interface{}, error) {
	prefix, err := readPrefix(d)
	if err != nil {
		return nil, err
	}
	wt, tag := ParsePrefix(prefix)
	return readTagged(d, wt, tag, desc, reg)
}

// readPrefix reads the prefix varint. EOF before the first byte is the
// clean end of the stream; EOF after it is a truncation.
func readPrefix(d Decoder) (uint64, error) {
	b, err := d.ReadByte()
	if err != nil {
		return 0, ErrEOF
	}
	if b&0x80 == 0 {
		return uint64(b), nil
	}
	result := uint64(b & 0x7F)
	shift := uint(7)
	for i := 0; i < 9; i++ {
		b, err = d.ReadByte()
		if err != nil {
			return 0, ErrUnexpectedEOF
		}
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrVarintTooLong
}

// readTagged lifts the value after an already-consumed (wt, tag) prefix.
// Primitive descriptors ignore the tag, matching the reference behavior.
func readTagged(d Decoder, wt WireType, tag Tag, desc *schema.Descriptor, reg *registry.Registry) (interface{}, error) {
	desc, err := resolve(desc, reg)
	if err != nil {
		return nil, err
	}

	switch desc.Kind {
	case schema.KindBool:
		if wt != WireBits8 {
			return nil, wireTypeError(wt, WireBits8)
		}
		b, err := d.ReadByte()
		if err != nil {
			return nil, ErrUnexpectedEOF
		}
		if config.StrictBool && b > 1 {
			return nil, &ParseError{Msg: fmt.Sprintf("invalid bool byte 0x%02x", b)}
		}
		return b != 0, nil

	case schema.KindByte:
		if wt != WireVint {
			return nil, wireTypeError(wt, WireVint)
		}
		u, err := ReadUvarint(d)
		if err != nil {
			return nil, err
		}
		if u > 0xFF {
			return nil, &ParseError{Msg: fmt.Sprintf("byte value %d out of range", u)}
		}
		return byte(u), nil

	case schema.KindInt:
		if wt != WireVint {
			return nil, wireTypeError(wt, WireVint)
		}
		return ReadSvarint(d)

	case schema.KindLong:
		if wt != WireBits64Long {
			return nil, wireTypeError(wt, WireBits64Long)
		}
		u, err := readFixed64(d)
		if err != nil {
			return nil, err
		}
		return int64(u), nil

	case schema.KindFloat:
		if wt != WireBits64Flt {
			return nil, wireTypeError(wt, WireBits64Flt)
		}
		u, err := readFixed64(d)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(u), nil

	case schema.KindString:
		if wt != WireBytes {
			return nil, wireTypeError(wt, WireBytes)
		}
		length, err := ReadUvarint(d)
		if err != nil {
			return nil, err
		}
		b, err := d.Read(int(length))
		if err != nil {
			return nil, err
		}
		return string(b), nil

	case schema.KindTuple:
		if wt == WireTuple {
			return readTuple(d, desc.Subtypes, reg)
		}
		if !wt.Delimited() && !config.DisablePromotion {
			return promoteComposite(d, wt, tag, desc.Subtypes, reg, "Tuple")
		}
		return nil, wireTypeError(wt, WireTuple)

	case schema.KindMsg:
		if wt == WireTuple {
			items, err := readTuple(d, desc.Subtypes, reg)
			if err != nil {
				return nil, wrapWithField(messageFieldPath(err, desc), desc.Name)
			}
			return messageFromItems(desc, items), nil
		}
		if !wt.Delimited() && !config.DisablePromotion {
			items, err := promoteComposite(d, wt, tag, desc.Subtypes, reg, "Tuple")
			if err != nil {
				return nil, wrapWithField(err, desc.Name)
			}
			return messageFromItems(desc, items), nil
		}
		return nil, wrapWithField(wireTypeError(wt, WireTuple), desc.Name)

	case schema.KindList:
		if wt != WireHTuple {
			return nil, wireTypeError(wt, WireHTuple)
		}
		return readHTuple(d, desc.Subtypes[0], reg)

	case schema.KindAssoc:
		if wt != WireAssoc {
			return nil, wireTypeError(wt, WireAssoc)
		}
		return readAssoc(d, desc.Subtypes[0], desc.Subtypes[1], reg)

	case schema.KindUnion:
		return readUnion(d, wt, tag, desc, reg)
	}

	return nil, &ParseError{Msg: fmt.Sprintf("unknown descriptor kind %q", desc.Kind)}
}

// WriteValue writes one value to the sink as directed by desc. Delimited
// frames are rendered into a scratch buffer first so the byte length can be
// emitted ahead of the payload.
func WriteValue(e Encoder, value interface{}, desc *schema.Descriptor, reg *registry.Registry) error {
	desc, err := resolve(desc, reg)
	if err != nil {
		return err
	}

	switch desc.Kind {
	case schema.KindBool:
		b, err := coerceBool(value)
		if err != nil {
			return err
		}
		if err := WriteUvarint(e, MakePrefix(WireBits8, 0)); err != nil {
			return err
		}
		if b {
			return e.WriteByte(0x01)
		}
		return e.WriteByte(0x00)

	case schema.KindByte:
		u, err := coerceUint64(value)
		if err != nil {
			return err
		}
		if u > 0xFF {
			return &RenderError{Msg: fmt.Sprintf("byte value %d out of range", u)}
		}
		if err := WriteUvarint(e, MakePrefix(WireVint, 0)); err != nil {
			return err
		}
		return WriteUvarint(e, u)

	case schema.KindInt:
		n, err := coerceInt64(value)
		if err != nil {
			return err
		}
		if err := WriteUvarint(e, MakePrefix(WireVint, 0)); err != nil {
			return err
		}
		return WriteSvarint(e, n)

	case schema.KindLong:
		n, err := coerceInt64(value)
		if err != nil {
			return err
		}
		if err := WriteUvarint(e, MakePrefix(WireBits64Long, 0)); err != nil {
			return err
		}
		return writeFixed64(e, uint64(n))

	case schema.KindFloat:
		f, err := coerceFloat64(value)
		if err != nil {
			return err
		}
		if err := WriteUvarint(e, MakePrefix(WireBits64Flt, 0)); err != nil {
			return err
		}
		return writeFixed64(e, math.Float64bits(f))

	case schema.KindString:
		s, err := coerceBytes(value)
		if err != nil {
			return err
		}
		if err := WriteUvarint(e, MakePrefix(WireBytes, 0)); err != nil {
			return err
		}
		if err := WriteUvarint(e, uint64(len(s))); err != nil {
			return err
		}
		return e.Write(s)

	case schema.KindTuple:
		items, err := coerceSlice(value)
		if err != nil {
			return err
		}
		if len(items) != len(desc.Subtypes) {
			return &RenderError{Msg: fmt.Sprintf("tuple arity mismatch: value has %d items, type has %d", len(items), len(desc.Subtypes))}
		}
		return writeTupleFrame(e, 0, items, desc.Subtypes, reg)

	case schema.KindMsg:
		items, err := messageItems(value, desc, reg)
		if err != nil {
			return wrapWithField(err, desc.Name)
		}
		if err := writeTupleFrame(e, 0, items, desc.Subtypes, reg); err != nil {
			return wrapWithField(messageFieldPath(err, desc), desc.Name)
		}
		return nil

	case schema.KindList:
		items, err := coerceSlice(value)
		if err != nil {
			return err
		}
		return writeHTuple(e, items, desc.Subtypes[0], reg)

	case schema.KindAssoc:
		pairs, err := coerceMap(value)
		if err != nil {
			return err
		}
		return writeAssoc(e, pairs, desc.Subtypes[0], desc.Subtypes[1], reg)

	case schema.KindUnion:
		return writeUnion(e, value, desc, reg)
	}

	return &RenderError{Msg: fmt.Sprintf("unknown descriptor kind %q", desc.Kind)}
}

// SkipValue skips over the next value without parsing its interior. The
// length prefix of delimited types makes this possible even when the value's
// type is unknown, which is what keeps trailing-field compatibility cheap.
func SkipValue(d Decoder) error {
	prefix, err := readPrefix(d)
	if err != nil {
		return err
	}
	wt, _ := ParsePrefix(prefix)

	if wt.Delimited() {
		length, err := ReadUvarint(d)
		if err != nil {
			return err
		}
		return d.Skip(int(length))
	}

	switch wt {
	case WireVint:
		return SkipUvarint(d)
	case WireBits8:
		return d.Skip(1)
	case WireBits32:
		return d.Skip(4)
	case WireBits64Long, WireBits64Flt:
		return d.Skip(8)
	case WireEnum:
		return nil
	}
	return ErrUnexpectedWireType
}

// promoteComposite applies the primitive-to-composite promotion rule: the
// observed primitive becomes the first subtype's value and the remaining
// subtypes are default-filled. This is what lets a writer's `int` field be
// read by a schema that has since grown it into a tuple.
func promoteComposite(d Decoder, wt WireType, tag Tag, subtypes []*schema.Descriptor, reg *registry.Registry, what string) ([]interface{}, error) {
	if len(subtypes) == 0 {
		return nil, &ParseError{Msg: "could not promote primitive to " + what + " type"}
	}
	first, err := readTagged(d, wt, tag, subtypes[0], reg)
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, 0, len(subtypes))
	items = append(items, first)
	for _, st := range subtypes[1:] {
		dv, err := DefaultValue(st, reg)
		if err != nil {
			return nil, err
		}
		items = append(items, dv)
	}
	return items, nil
}

// resolve chases a named reference through the registry. Non-reference
// descriptors pass through untouched. The chase is bounded so a typedef
// cycle fails instead of spinning.
func resolve(desc *schema.Descriptor, reg *registry.Registry) (*schema.Descriptor, error) {
	for hops := 0; desc.Kind == schema.KindRef; hops++ {
		if hops > 100 {
			return nil, &ParseError{Msg: fmt.Sprintf("type reference cycle through %q", desc.TypeRef)}
		}
		if reg == nil {
			return nil, &ParseError{Msg: fmt.Sprintf("type reference %q without a registry", desc.TypeRef)}
		}
		target, err := reg.GetType(desc.TypeRef)
		if err != nil {
			return nil, err
		}
		desc = target
	}
	return desc, nil
}

// messageFieldPath swaps the positional index that tuple framing puts at the
// head of an error path for the message field name it stands for.
func messageFieldPath(err error, desc *schema.Descriptor) error {
	if fe, ok := err.(*FieldError); ok && len(fe.FieldPath) > 0 {
		if i, convErr := strconv.Atoi(fe.FieldPath[0]); convErr == nil && i < len(desc.Fields) {
			path := append([]string{desc.Fields[i]}, fe.FieldPath[1:]...)
			return &FieldError{FieldPath: path, Err: fe.Err}
		}
	}
	return err
}

func wireTypeError(got, want WireType) error {
	return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedWireType, got, want)
}

func readFixed64(d Decoder) (uint64, error) {
	b, err := d.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func writeFixed64(e Encoder, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return e.Write(b[:])
}

// readFixed32 exists for the BITS32 wire type, which no logical type in this
// package maps to but which skip and raw readers must still understand.
func readFixed32(d Decoder) (uint32, error) {
	b, err := d.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
