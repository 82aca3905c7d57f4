// Package extprot implements the extprot binary serialization format: a
// compact, self-delimiting, extensible wire encoding driven by type
// descriptors. The top-level functions convert between Go values and
// bytestreams; the wire package holds the codec machinery and the registry
// package the named-type arena.
package extprot

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/extprot/extprot-go/registry"
	"github.com/extprot/extprot-go/schema"
	"github.com/extprot/extprot-go/wire"
)

// ===== DESCRIPTOR-DIRECT API =====

// FromBytes parses one value of the described type from data.
func FromBytes(data []byte, desc *schema.Descriptor) (interface{}, error) {
	return wire.ReadValue(wire.NewBytesDecoder(data), desc, nil)
}

// FromReader parses one value of the described type from r. It returns
// wire.ErrEOF when no value remains, so concatenated values can be read in a
// loop until then.
func FromReader(r io.Reader, desc *schema.Descriptor) (interface{}, error) {
	return wire.ReadValue(wire.NewReaderDecoder(r), desc, nil)
}

// ToBytes renders the value under the described type.
func ToBytes(value interface{}, desc *schema.Descriptor) ([]byte, error) {
	buf := wire.NewBuffer()
	if err := wire.WriteValue(buf, value, desc, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter renders the value under the described type into w. The value is
// buffered in memory first so a render error leaves w untouched.
func ToWriter(w io.Writer, value interface{}, desc *schema.Descriptor) error {
	data, err := ToBytes(value, desc)
	if err != nil {
		return err
	}
	return wire.NewWriterEncoder(w).Write(data)
}

// ===== REGISTRY-BACKED CLIENT =====

// Extprot provides schema-aware operations against named types. Load schema
// definitions first, then refer to types by name.
type Extprot struct {
	registry *registry.Registry
}

// New creates a new Extprot instance with an empty registry.
func New() *Extprot {
	return &Extprot{registry: registry.NewRegistry()}
}

// LoadSchemaJSON registers the types declared in a JSON schema document.
func (p *Extprot) LoadSchemaJSON(data []byte) error {
	if err := p.registry.LoadJSON(data); err != nil {
		return err
	}
	return p.registry.CheckRefs()
}

// LoadSchemaFile registers the types declared in a JSON schema file.
func (p *Extprot) LoadSchemaFile(path string) error {
	if err := p.registry.LoadFile(path); err != nil {
		return err
	}
	return p.registry.CheckRefs()
}

// LoadSchemaDir recursively registers every *.json schema file under path.
func (p *Extprot) LoadSchemaDir(path string) error {
	return p.registry.LoadDir(path)
}

// Register adds an in-memory descriptor to the client's registry.
func (p *Extprot) Register(desc *schema.Descriptor) error {
	return p.registry.Register(desc)
}

// Parse decodes one value of the named type from data.
func (p *Extprot) Parse(data []byte, typeName string) (interface{}, error) {
	desc, err := p.registry.GetType(typeName)
	if err != nil {
		return nil, err
	}
	return wire.ReadValue(wire.NewBytesDecoder(data), desc, p.registry)
}

// ParseFrom decodes one value of the named type from r.
func (p *Extprot) ParseFrom(r io.Reader, typeName string) (interface{}, error) {
	desc, err := p.registry.GetType(typeName)
	if err != nil {
		return nil, err
	}
	return wire.ReadValue(wire.NewReaderDecoder(r), desc, p.registry)
}

// Marshal encodes a value under the named type.
func (p *Extprot) Marshal(value interface{}, typeName string) ([]byte, error) {
	desc, err := p.registry.GetType(typeName)
	if err != nil {
		return nil, err
	}
	buf := wire.NewBuffer()
	if err := wire.WriteValue(buf, value, desc, p.registry); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalTo encodes a value under the named type into w.
func (p *Extprot) MarshalTo(w io.Writer, value interface{}, typeName string) error {
	data, err := p.Marshal(value, typeName)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Registry returns the client's registry.
func (p *Extprot) Registry() *registry.Registry { return p.registry }

// ListTypes returns the names of all registered types.
func (p *Extprot) ListTypes() []string { return p.registry.ListTypes() }

// ===== REFLECTION DECODING =====

// Unmarshal decodes message bytes into a Go struct using reflection. The
// message type defaults to the struct type's name; struct fields match
// message fields through the `extprot` tag when present, the exact field
// name otherwise, falling back to the snake_case form of the Go name.
func (p *Extprot) Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}

	typeName := rv.Elem().Type().Name()
	result, err := p.Parse(data, typeName)
	if err != nil {
		return err
	}
	fields, ok := result.(map[string]interface{})
	if !ok {
		return fmt.Errorf("type %s is not a message", typeName)
	}
	return p.mapToStruct(fields, rv.Elem())
}

// mapToStruct maps a parsed message to struct fields.
func (p *Extprot) mapToStruct(data map[string]interface{}, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fieldValue := rv.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		value, ok := lookupField(data, field)
		if !ok || value == nil {
			continue
		}
		if err := p.setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set field %s: %v", field.Name, err)
		}
	}
	return nil
}

// lookupField finds the message value feeding a struct field.
func lookupField(data map[string]interface{}, field reflect.StructField) (interface{}, bool) {
	if tag, ok := field.Tag.Lookup("extprot"); ok && tag != "" && tag != "-" {
		v, ok := data[tag]
		return v, ok
	}
	if v, ok := data[field.Name]; ok {
		return v, true
	}
	v, ok := data[toSnake(field.Name)]
	return v, ok
}

// setFieldValue sets a struct field with type conversion.
func (p *Extprot) setFieldValue(fieldValue reflect.Value, value interface{}) error {
	// Nested messages arrive as maps; recurse into struct fields.
	if nested, ok := value.(map[string]interface{}); ok && fieldValue.Kind() == reflect.Struct {
		return p.mapToStruct(nested, fieldValue)
	}

	sourceValue := reflect.ValueOf(value)
	if sourceValue.Type().AssignableTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue)
		return nil
	}
	if sourceValue.Type().ConvertibleTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue.Convert(fieldValue.Type()))
		return nil
	}

	// Lists arrive as []interface{}; convert element-wise into typed
	// slices.
	if sourceValue.Kind() == reflect.Slice && fieldValue.Kind() == reflect.Slice {
		out := reflect.MakeSlice(fieldValue.Type(), sourceValue.Len(), sourceValue.Len())
		for i := 0; i < sourceValue.Len(); i++ {
			if err := p.setFieldValue(out.Index(i), sourceValue.Index(i).Interface()); err != nil {
				return err
			}
		}
		fieldValue.Set(out)
		return nil
	}

	return fmt.Errorf("cannot convert %T to %s", value, fieldValue.Type())
}

// toSnake converts a CamelCase Go field name to snake_case.
func toSnake(s string) string {
	var b strings.Builder
	for i, c := range s {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(c - 'A' + 'a')
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
