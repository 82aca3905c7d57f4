package schema

// Descriptors are the in-memory reification of an extprot protocol. A
// Descriptor is a passive schema node: it records what a value looks like on
// the wire (its kind, its subtypes, its constructor tags) and the wire
// package drives parsing and rendering off it. Descriptors are immutable
// after construction and may be shared freely between readers and writers.

// Kind identifies the logical type a Descriptor describes.
type Kind string

const (
	KindBool   Kind = "bool"    // BITS8, 0x00/0x01
	KindByte   Kind = "byte"    // VINT, unsigned 0..255
	KindInt    Kind = "int"     // VINT, zig-zag signed
	KindLong   Kind = "long"    // BITS64_LONG, signed 64-bit little-endian
	KindFloat  Kind = "float"   // BITS64_FLOAT, IEEE-754 double little-endian
	KindString Kind = "string"  // BYTES, length-prefixed byte sequence
	KindTuple  Kind = "tuple"   // TUPLE tag 0, fixed arity
	KindList   Kind = "list"    // HTUPLE tag 0, single element type
	KindAssoc  Kind = "assoc"   // ASSOC tag 0, key/value subtypes
	KindMsg    Kind = "message" // TUPLE, named fields
	KindUnion  Kind = "union"   // TUPLE/ENUM at per-constructor tags
	KindRef    Kind = "ref"     // named reference resolved via a registry
)

// Descriptor is a single node of an extprot type. Which fields are
// meaningful depends on Kind:
//
//	KindTuple   Subtypes (arity >= 1)
//	KindList    Subtypes (exactly one element type)
//	KindAssoc   Subtypes (exactly key, value)
//	KindMsg     Name, Fields, Subtypes (parallel, same length)
//	KindUnion   Name, Options
//	KindRef     TypeRef (name registered elsewhere)
//
// Primitive kinds carry no extra data.
type Descriptor struct {
	Kind     Kind          `json:"kind"`
	Name     string        `json:"name,omitempty"`     // messages and unions
	Fields   []string      `json:"fields,omitempty"`   // message field names
	Subtypes []*Descriptor `json:"subtypes,omitempty"` // ordered child types
	Options  []*Option     `json:"options,omitempty"`  // union constructors
	TypeRef  string        `json:"type_ref,omitempty"` // KindRef target
}

// Option is one constructor of a union. A constructor with no subtypes is
// constant and travels as a bare ENUM prefix; one with subtypes travels as a
// TUPLE at the constructor's tag.
type Option struct {
	Name     string        `json:"name"`
	Tag      uint64        `json:"tag"`
	Subtypes []*Descriptor `json:"subtypes,omitempty"`
}

// Constant reports whether the option carries no payload.
func (o *Option) Constant() bool {
	return len(o.Subtypes) == 0
}

// Variant is the decoded form of a union value: the constructor name plus
// its payload values (nil for constant constructors).
type Variant struct {
	Option string
	Values []interface{}
}

// ===== DESCRIPTOR CONSTRUCTORS =====

// Primitive descriptors are stateless, so one shared node per kind is
// enough. Callers must not mutate them.
var (
	Bool   = &Descriptor{Kind: KindBool}
	Byte   = &Descriptor{Kind: KindByte}
	Int    = &Descriptor{Kind: KindInt}
	Long   = &Descriptor{Kind: KindLong}
	Float  = &Descriptor{Kind: KindFloat}
	String = &Descriptor{Kind: KindString}
)

// Tuple builds a fixed-arity tuple descriptor from the given element types.
func Tuple(subtypes ...*Descriptor) *Descriptor {
	return &Descriptor{Kind: KindTuple, Subtypes: subtypes}
}

// List builds a homogeneous list descriptor with the given element type.
func List(elem *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindList, Subtypes: []*Descriptor{elem}}
}

// Assoc builds an associative-map descriptor with the given key and value
// types.
func Assoc(key, value *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindAssoc, Subtypes: []*Descriptor{key, value}}
}

// Message builds a named record descriptor. fields and subtypes run in
// parallel: fields[i] names the value typed by subtypes[i].
func Message(name string, fields []string, subtypes []*Descriptor) *Descriptor {
	return &Descriptor{Kind: KindMsg, Name: name, Fields: fields, Subtypes: subtypes}
}

// Union builds a disjoint-union descriptor from its constructors.
func Union(name string, options ...*Option) *Descriptor {
	return &Descriptor{Kind: KindUnion, Name: name, Options: options}
}

// Ref builds a named reference to a type registered in a registry. This is
// the indirection that makes recursive types expressible: the referenced
// descriptor is looked up by name at codec time instead of being linked into
// a cyclic structure.
func Ref(name string) *Descriptor {
	return &Descriptor{Kind: KindRef, TypeRef: name}
}

// Options assigns constructor tags in declaration order, the way the
// reference implementation numbers them: constant constructors count up in
// their own tag space, payload constructors in theirs.
func Options(opts ...*Option) []*Option {
	var constTag, tupleTag uint64
	for _, o := range opts {
		if o.Constant() {
			o.Tag = constTag
			constTag++
		} else {
			o.Tag = tupleTag
			tupleTag++
		}
	}
	return opts
}

// Opt builds a single union constructor. Pass no subtypes for a constant
// constructor.
func Opt(name string, subtypes ...*Descriptor) *Option {
	return &Option{Name: name, Subtypes: subtypes}
}

// OptionByName returns the named constructor of a union descriptor, or nil.
func (d *Descriptor) OptionByName(name string) *Option {
	for _, o := range d.Options {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// FieldIndex returns the position of the named message field, or -1.
func (d *Descriptor) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f == name {
			return i
		}
	}
	return -1
}
