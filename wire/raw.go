package wire

import (
	"fmt"
	"math"
)

// The wire format is self-describing down to its skeleton: without any
// schema a reader can still recover the nesting structure, tags and
// primitive payloads. ReadRaw does exactly that, which is handy for
// debugging captured streams and for tooling that has no descriptors.

// RawValue is a schema-less decoded value. Value holds:
//
//	VINT          uint64 (the undecoded zig-zag value)
//	BITS8         byte
//	BITS32        uint32
//	BITS64_LONG   uint64
//	BITS64_FLOAT  float64
//	BYTES         []byte
//	TUPLE/HTUPLE  []*RawValue
//	ASSOC         []*RawValue (alternating key, value)
//	ENUM          nil
type RawValue struct {
	Type  WireType
	Tag   Tag
	Value interface{}
}

// ReadRaw reads the next value without a descriptor, recursing into
// composite frames. ErrEOF means the stream held no further value.
func ReadRaw(d Decoder) (*RawValue, error) {
	prefix, err := readPrefix(d)
	if err != nil {
		return nil, err
	}
	wt, tag := ParsePrefix(prefix)
	rv := &RawValue{Type: wt, Tag: tag}

	switch wt {
	case WireVint:
		u, err := ReadUvarint(d)
		if err != nil {
			return nil, err
		}
		rv.Value = u

	case WireBits8:
		b, err := d.ReadByte()
		if err != nil {
			return nil, ErrUnexpectedEOF
		}
		rv.Value = b

	case WireBits32:
		u, err := readFixed32(d)
		if err != nil {
			return nil, err
		}
		rv.Value = u

	case WireBits64Long:
		u, err := readFixed64(d)
		if err != nil {
			return nil, err
		}
		rv.Value = u

	case WireBits64Flt:
		u, err := readFixed64(d)
		if err != nil {
			return nil, err
		}
		rv.Value = math.Float64frombits(u)

	case WireBytes:
		length, err := ReadUvarint(d)
		if err != nil {
			return nil, err
		}
		b, err := d.Read(int(length))
		if err != nil {
			return nil, err
		}
		data := make([]byte, len(b))
		copy(data, b)
		rv.Value = data

	case WireTuple, WireHTuple, WireAssoc:
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
		if wt == WireAssoc {
			nitems *= 2
		}
		items := make([]*RawValue, 0, nitems)
		for i := uint64(0); i < nitems; i++ {
			item, err := ReadRaw(sub)
			if err != nil {
				if err == ErrEOF {
					err = ErrUnexpectedEOF
				}
				return nil, err
			}
			items = append(items, item)
		}
		rv.Value = items

	case WireEnum:
		// no payload

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedWireType, uint64(wt))
	}
	return rv, nil
}
