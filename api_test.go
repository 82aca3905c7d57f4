package extprot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extprot/extprot-go/schema"
	"github.com/extprot/extprot-go/wire"
)

const addressBookSchema = `{
  "types": [
    {"name": "person", "kind": "message", "fields": [
      {"name": "id", "type": {"kind": "int"}},
      {"name": "name", "type": {"kind": "string"}},
      {"name": "emails", "type": {"kind": "list", "subtypes": [{"kind": "string"}]}}
    ]},
    {"name": "address_book", "kind": "message", "fields": [
      {"name": "people", "type": {"kind": "list",
                                  "subtypes": [{"kind": "ref", "ref": "person"}]}}
    ]}
  ]
}`

func TestRoundTrip_Laws(t *testing.T) {
	// from_bytes(to_bytes(v, d), d) == v across the logical domain.
	cases := []struct {
		name  string
		desc  *schema.Descriptor
		value interface{}
	}{
		{"bool", schema.Bool, true},
		{"byte", schema.Byte, byte(200)},
		{"int", schema.Int, int64(-123456789)},
		{"long", schema.Long, int64(1) << 62},
		{"float", schema.Float, -2.75},
		{"string", schema.String, "héllo\x00world"},
		{"tuple", schema.Tuple(schema.Int, schema.String, schema.Bool),
			[]interface{}{int64(1), "two", true}},
		{"list", schema.List(schema.Int),
			[]interface{}{int64(5), int64(-5), int64(0)}},
		{"empty list", schema.List(schema.String), []interface{}{}},
		{"assoc", schema.Assoc(schema.Int, schema.String),
			map[interface{}]interface{}{int64(1): "one", int64(2): "two"}},
		{"nested", schema.List(schema.Tuple(schema.Int, schema.List(schema.Bool))),
			[]interface{}{
				[]interface{}{int64(1), []interface{}{true}},
				[]interface{}{int64(2), []interface{}{false, true}},
			}},
		{"message", schema.Message("pt", []string{"x", "y"},
			[]*schema.Descriptor{schema.Int, schema.Int}),
			map[string]interface{}{"x": int64(3), "y": int64(-4)}},
		{"union constant", schema.Union("m", schema.Options(
			schema.Opt("None"), schema.Opt("Some", schema.Int))...),
			schema.Variant{Option: "None"}},
		{"union payload", schema.Union("m", schema.Options(
			schema.Opt("None"), schema.Opt("Some", schema.Int))...),
			schema.Variant{Option: "Some", Values: []interface{}{int64(8)}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := ToBytes(tc.value, tc.desc)
			require.NoError(t, err)

			got, err := FromBytes(data, tc.desc)
			require.NoError(t, err)
			assert.Equal(t, tc.value, got)
		})
	}
}

func TestReaderWriter_Concatenation(t *testing.T) {
	// Self-delimiting framing: values concatenate in a stream and read
	// back one by one until ErrEOF.
	desc := schema.Message("simple_int", []string{"v"}, []*schema.Descriptor{schema.Int})

	var stream bytes.Buffer
	for i := int64(0); i < 5; i++ {
		require.NoError(t, ToWriter(&stream, map[string]interface{}{"v": i * 11}, desc))
	}

	r := bytes.NewReader(stream.Bytes())
	var got []int64
	for {
		v, err := FromReader(r, desc)
		if err == wire.ErrEOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v.(map[string]interface{})["v"].(int64))
	}
	assert.Equal(t, []int64{0, 11, 22, 33, 44}, got)
}

func TestClient_ParseAndMarshal(t *testing.T) {
	p := New()
	require.NoError(t, p.LoadSchemaJSON([]byte(addressBookSchema)))
	assert.Equal(t, []string{"address_book", "person"}, p.ListTypes())

	book := map[string]interface{}{
		"people": []interface{}{
			map[string]interface{}{
				"id":     int64(1),
				"name":   "Guido",
				"emails": []interface{}{"guido@python.org"},
			},
			map[string]interface{}{
				"id":     int64(2),
				"name":   "Xavier",
				"emails": []interface{}{},
			},
		},
	}

	data, err := p.Marshal(book, "address_book")
	require.NoError(t, err)

	got, err := p.Parse(data, "address_book")
	require.NoError(t, err)
	assert.Equal(t, book, got)

	_, err = p.Parse(data, "no_such_type")
	assert.Error(t, err)
}

func TestClient_MarshalFillsDefaults(t *testing.T) {
	p := New()
	require.NoError(t, p.LoadSchemaJSON([]byte(addressBookSchema)))

	data, err := p.Marshal(map[string]interface{}{"name": "Ada"}, "person")
	require.NoError(t, err)

	got, err := p.Parse(data, "person")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"id":     int64(0),
		"name":   "Ada",
		"emails": []interface{}{},
	}, got)
}

func TestClient_ParseFrom(t *testing.T) {
	p := New()
	require.NoError(t, p.LoadSchemaJSON([]byte(addressBookSchema)))

	person := map[string]interface{}{
		"id": int64(7), "name": "Grace", "emails": []interface{}{"g@navy.mil"},
	}
	var stream bytes.Buffer
	require.NoError(t, p.MarshalTo(&stream, person, "person"))

	got, err := p.ParseFrom(&stream, "person")
	require.NoError(t, err)
	assert.Equal(t, person, got)
}

func TestClient_RecursiveType(t *testing.T) {
	p := New()
	require.NoError(t, p.LoadSchemaJSON([]byte(`{
	  "types": [
	    {"name": "tree", "kind": "union", "options": [
	      {"name": "Leaf", "subtypes": [{"kind": "int"}]},
	      {"name": "Node", "subtypes": [{"kind": "ref", "ref": "tree"},
	                                    {"kind": "ref", "ref": "tree"}]}
	    ]}
	  ]
	}`)))

	tree := schema.Variant{Option: "Node", Values: []interface{}{
		schema.Variant{Option: "Leaf", Values: []interface{}{int64(1)}},
		schema.Variant{Option: "Node", Values: []interface{}{
			schema.Variant{Option: "Leaf", Values: []interface{}{int64(2)}},
			schema.Variant{Option: "Leaf", Values: []interface{}{int64(3)}},
		}},
	}}

	data, err := p.Marshal(tree, "tree")
	require.NoError(t, err)

	got, err := p.Parse(data, "tree")
	require.NoError(t, err)
	assert.Equal(t, tree, got)
}

type person struct {
	ID     int64    `extprot:"id"`
	Name   string   `extprot:"name"`
	Emails []string `extprot:"emails"`
}

type simple_int struct {
	V int64
}

func TestClient_UnmarshalStruct(t *testing.T) {
	p := New()
	require.NoError(t, p.LoadSchemaJSON([]byte(addressBookSchema)))

	data, err := p.Marshal(map[string]interface{}{
		"id":     int64(9),
		"name":   "Barbara",
		"emails": []interface{}{"b@example.org", "barbara@example.org"},
	}, "person")
	require.NoError(t, err)

	var got person
	require.NoError(t, p.Unmarshal(data, &got))
	assert.Equal(t, person{
		ID:     9,
		Name:   "Barbara",
		Emails: []string{"b@example.org", "barbara@example.org"},
	}, got)

	assert.Error(t, p.Unmarshal(data, got), "target must be a pointer")
}

func TestClient_UnmarshalSnakeCaseFallback(t *testing.T) {
	p := New()
	require.NoError(t, p.LoadSchemaJSON([]byte(`{
	  "types": [{"name": "simple_int", "kind": "message", "fields": [
	    {"name": "v", "type": {"kind": "int"}}
	  ]}]
	}`)))

	data, err := p.Marshal(map[string]interface{}{"v": int64(31)}, "simple_int")
	require.NoError(t, err)

	var got simple_int
	require.NoError(t, p.Unmarshal(data, &got))
	assert.Equal(t, int64(31), got.V)
}

func TestCrossVersion_MessageEvolution(t *testing.T) {
	// An old writer and a new reader, and the other way around, against
	// the same bytes.
	oldP := New()
	require.NoError(t, oldP.LoadSchemaJSON([]byte(`{
	  "types": [{"name": "event", "kind": "message", "fields": [
	    {"name": "id", "type": {"kind": "int"}}
	  ]}]
	}`)))
	newP := New()
	require.NoError(t, newP.LoadSchemaJSON([]byte(`{
	  "types": [{"name": "event", "kind": "message", "fields": [
	    {"name": "id", "type": {"kind": "int"}},
	    {"name": "source", "type": {"kind": "string"}}
	  ]}]
	}`)))

	// Forward: new writer, old reader.
	data, err := newP.Marshal(map[string]interface{}{
		"id": int64(4), "source": "sensor-1",
	}, "event")
	require.NoError(t, err)
	got, err := oldP.Parse(data, "event")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": int64(4)}, got)

	// Backward: old writer, new reader.
	data, err = oldP.Marshal(map[string]interface{}{"id": int64(4)}, "event")
	require.NoError(t, err)
	got, err = newP.Parse(data, "event")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": int64(4), "source": ""}, got)
}
