package registry

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/extprot/extprot-go/schema"
)

// JSON is the descriptor interchange form: the schema compiler that turns
// protocol source text into descriptors lives upstream, and its output (or a
// hand-written equivalent) arrives here as JSON documents like
//
//	{
//	  "types": [
//	    {"name": "person", "kind": "message", "fields": [
//	      {"name": "id", "type": {"kind": "int"}},
//	      {"name": "name", "type": {"kind": "string"}},
//	      {"name": "emails", "type": {"kind": "list",
//	                                  "subtypes": [{"kind": "string"}]}}
//	    ]},
//	    {"name": "maybe_int", "kind": "union", "options": [
//	      {"name": "Unknown"},
//	      {"name": "Known", "subtypes": [{"kind": "int"}]}
//	    ]}
//	  ]
//	}
//
// Constructor tags follow declaration order with separate counters for
// constant and payload constructors, unless a "tag" is given explicitly.

type schemaJSON struct {
	Types []typeJSON `json:"types"`
}

type typeJSON struct {
	Name     string       `json:"name,omitempty"`
	Kind     string       `json:"kind"`
	Ref      string       `json:"ref,omitempty"`
	Fields   []fieldJSON  `json:"fields,omitempty"`
	Options  []optionJSON `json:"options,omitempty"`
	Subtypes []typeJSON   `json:"subtypes,omitempty"`
}

type fieldJSON struct {
	Name string   `json:"name"`
	Type typeJSON `json:"type"`
}

type optionJSON struct {
	Name     string     `json:"name"`
	Tag      *uint64    `json:"tag,omitempty"`
	Subtypes []typeJSON `json:"subtypes,omitempty"`
}

// LoadJSON parses a JSON schema document and registers every type it
// declares. References between documents may be loaded in any order; call
// CheckRefs when done.
func (r *Registry) LoadJSON(data []byte) error {
	var doc schemaJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse schema JSON: %w", err)
	}
	for _, t := range doc.Types {
		if t.Name == "" {
			return fmt.Errorf("top-level type without a name")
		}
		desc, err := buildDescriptor(&t)
		if err != nil {
			return fmt.Errorf("type %q: %w", t.Name, err)
		}
		if err := r.RegisterAs(t.Name, desc); err != nil {
			return err
		}
	}
	return nil
}

// buildDescriptor converts one JSON type node into a Descriptor.
func buildDescriptor(t *typeJSON) (*schema.Descriptor, error) {
	switch schema.Kind(t.Kind) {
	case schema.KindBool:
		return schema.Bool, nil
	case schema.KindByte:
		return schema.Byte, nil
	case schema.KindInt:
		return schema.Int, nil
	case schema.KindLong:
		return schema.Long, nil
	case schema.KindFloat:
		return schema.Float, nil
	case schema.KindString:
		return schema.String, nil

	case schema.KindRef:
		if t.Ref == "" {
			return nil, fmt.Errorf("ref type without a target")
		}
		return schema.Ref(t.Ref), nil

	case schema.KindTuple, schema.KindList, schema.KindAssoc:
		subtypes, err := buildSubtypes(t.Subtypes)
		if err != nil {
			return nil, err
		}
		return &schema.Descriptor{Kind: schema.Kind(t.Kind), Subtypes: subtypes}, nil

	case schema.KindMsg:
		fields := make([]string, 0, len(t.Fields))
		subtypes := make([]*schema.Descriptor, 0, len(t.Fields))
		for i := range t.Fields {
			f := &t.Fields[i]
			st, err := buildDescriptor(&f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields = append(fields, f.Name)
			subtypes = append(subtypes, st)
		}
		return schema.Message(t.Name, fields, subtypes), nil

	case schema.KindUnion:
		opts := make([]*schema.Option, 0, len(t.Options))
		var constTag, tupleTag uint64
		for i := range t.Options {
			o := &t.Options[i]
			subtypes, err := buildSubtypes(o.Subtypes)
			if err != nil {
				return nil, fmt.Errorf("constructor %q: %w", o.Name, err)
			}
			opt := &schema.Option{Name: o.Name, Subtypes: subtypes}
			switch {
			case o.Tag != nil:
				opt.Tag = *o.Tag
			case opt.Constant():
				opt.Tag = constTag
			default:
				opt.Tag = tupleTag
			}
			if opt.Constant() {
				constTag = opt.Tag + 1
			} else {
				tupleTag = opt.Tag + 1
			}
			opts = append(opts, opt)
		}
		return schema.Union(t.Name, opts...), nil
	}

	return nil, fmt.Errorf("unknown kind %q", t.Kind)
}

func buildSubtypes(ts []typeJSON) ([]*schema.Descriptor, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	out := make([]*schema.Descriptor, 0, len(ts))
	for i := range ts {
		st, err := buildDescriptor(&ts[i])
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
