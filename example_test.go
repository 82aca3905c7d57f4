package extprot_test

import (
	"fmt"

	extprot "github.com/extprot/extprot-go"
	"github.com/extprot/extprot-go/schema"
)

// Descriptors can be built directly in code and used without a registry.
func ExampleToBytes() {
	desc := schema.Message("simple_int", []string{"v"}, []*schema.Descriptor{schema.Int})

	data, err := extprot.ToBytes(map[string]interface{}{"v": int64(-1)}, desc)
	if err != nil {
		panic(err)
	}
	fmt.Printf("% x\n", data)
	// Output: 01 03 01 00 01
}

func ExampleFromBytes() {
	desc := schema.Message("simple_bool", []string{"v"}, []*schema.Descriptor{schema.Bool})

	value, err := extprot.FromBytes([]byte{0x01, 0x03, 0x01, 0x02, 0x01}, desc)
	if err != nil {
		panic(err)
	}
	fmt.Println(value.(map[string]interface{})["v"])
	// Output: true
}

// Named types load from JSON schema documents and are addressed by name.
func ExampleExtprot() {
	p := extprot.New()
	err := p.LoadSchemaJSON([]byte(`{
	  "types": [
	    {"name": "person", "kind": "message", "fields": [
	      {"name": "id", "type": {"kind": "int"}},
	      {"name": "name", "type": {"kind": "string"}},
	      {"name": "emails", "type": {"kind": "list", "subtypes": [{"kind": "string"}]}}
	    ]}
	  ]
	}`))
	if err != nil {
		panic(err)
	}

	data, err := p.Marshal(map[string]interface{}{
		"id":     int64(1),
		"name":   "Guido",
		"emails": []interface{}{"guido@python.org"},
	}, "person")
	if err != nil {
		panic(err)
	}

	decoded, err := p.Parse(data, "person")
	if err != nil {
		panic(err)
	}
	fmt.Println(decoded.(map[string]interface{})["name"])
	// Output: Guido
}

// Unions decode to Variant values carrying the constructor name.
func ExampleExtprot_unions() {
	p := extprot.New()
	err := p.LoadSchemaJSON([]byte(`{
	  "types": [
	    {"name": "maybe_int", "kind": "union", "options": [
	      {"name": "Unknown"},
	      {"name": "Known", "subtypes": [{"kind": "int"}]}
	    ]}
	  ]
	}`))
	if err != nil {
		panic(err)
	}

	data, err := p.Marshal(schema.Variant{
		Option: "Known", Values: []interface{}{int64(42)},
	}, "maybe_int")
	if err != nil {
		panic(err)
	}

	decoded, err := p.Parse(data, "maybe_int")
	if err != nil {
		panic(err)
	}
	v := decoded.(schema.Variant)
	fmt.Println(v.Option, v.Values[0])
	// Output: Known 42
}
