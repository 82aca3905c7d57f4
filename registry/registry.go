package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/extprot/extprot-go/schema"
)

// Registry is the arena of named type descriptors. The codec looks types up
// here when it meets a named reference, which is also how recursive types
// avoid cyclic descriptor structures: a descriptor refers to another by name
// and the cycle closes through the registry at codec time.
//
// Registration is not safe for concurrent use; do all loading up front and
// the registry is freely shareable afterwards, like the descriptors it
// holds.
type Registry struct {
	types map[string]*schema.Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*schema.Descriptor)}
}

// Register adds a named descriptor after structural validation. Anonymous
// descriptors are rejected; give messages and unions their Name or pass an
// explicit name via RegisterAs.
func (r *Registry) Register(desc *schema.Descriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("cannot register descriptor without a name")
	}
	return r.RegisterAs(desc.Name, desc)
}

// RegisterAs adds a descriptor under an explicit name, e.g. for typedefs of
// primitive or container types.
func (r *Registry) RegisterAs(name string, desc *schema.Descriptor) error {
	if name == "" {
		return fmt.Errorf("cannot register descriptor under empty name")
	}
	if _, exists := r.types[name]; exists {
		return fmt.Errorf("type %q already registered", name)
	}
	if err := validate(desc); err != nil {
		return fmt.Errorf("invalid descriptor %q: %w", name, err)
	}
	r.types[name] = desc
	return nil
}

// GetType returns the descriptor registered under name.
func (r *Registry) GetType(name string) (*schema.Descriptor, error) {
	desc, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("type %q not registered", name)
	}
	return desc, nil
}

// ListTypes returns the registered type names in sorted order.
func (r *Registry) ListTypes() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckRefs verifies that every named reference reachable from the
// registered types resolves. Call it once loading is complete; forward
// references between files are legal until then.
func (r *Registry) CheckRefs() error {
	for name, desc := range r.types {
		if err := r.checkRefs(desc); err != nil {
			return fmt.Errorf("type %q: %w", name, err)
		}
	}
	return nil
}

func (r *Registry) checkRefs(desc *schema.Descriptor) error {
	if desc.Kind == schema.KindRef {
		if _, ok := r.types[desc.TypeRef]; !ok {
			return fmt.Errorf("unresolved type reference %q", desc.TypeRef)
		}
		return nil
	}
	for _, st := range desc.Subtypes {
		if err := r.checkRefs(st); err != nil {
			return err
		}
	}
	for _, o := range desc.Options {
		for _, st := range o.Subtypes {
			if err := r.checkRefs(st); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadFile loads type definitions from a JSON schema file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if err := r.LoadJSON(data); err != nil {
		return fmt.Errorf("failed to load schema file %s: %w", path, err)
	}
	return nil
}

// LoadDir recursively loads every *.json schema file under path, then
// verifies cross-file references.
func (r *Registry) LoadDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		if err := r.LoadFile(path); err != nil {
			return err
		}
		return r.CheckRefs()
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		return r.LoadFile(p)
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	return r.CheckRefs()
}

// ===== STRUCTURAL VALIDATION =====

// validate enforces the arity rules the codec depends on. It checks the
// descriptor tree but not reference resolution, which CheckRefs covers once
// loading is done.
func validate(desc *schema.Descriptor) error {
	switch desc.Kind {
	case schema.KindBool, schema.KindByte, schema.KindInt, schema.KindLong,
		schema.KindFloat, schema.KindString:
		if len(desc.Subtypes) != 0 {
			return fmt.Errorf("primitive %s must not have subtypes", desc.Kind)
		}
		return nil

	case schema.KindRef:
		if desc.TypeRef == "" {
			return fmt.Errorf("type reference without a target name")
		}
		return nil

	case schema.KindTuple:
		if len(desc.Subtypes) == 0 {
			return fmt.Errorf("tuple must have at least one subtype")
		}
		return validateSubtypes(desc.Subtypes)

	case schema.KindList:
		// Exactly one element type. The historical multi-subtype htuple
		// encoding is not supported.
		if len(desc.Subtypes) != 1 {
			return fmt.Errorf("list must have exactly one subtype, has %d", len(desc.Subtypes))
		}
		return validateSubtypes(desc.Subtypes)

	case schema.KindAssoc:
		if len(desc.Subtypes) != 2 {
			return fmt.Errorf("assoc must have exactly key and value subtypes, has %d", len(desc.Subtypes))
		}
		return validateSubtypes(desc.Subtypes)

	case schema.KindMsg:
		if len(desc.Fields) != len(desc.Subtypes) {
			return fmt.Errorf("message has %d field names but %d subtypes", len(desc.Fields), len(desc.Subtypes))
		}
		seen := make(map[string]struct{}, len(desc.Fields))
		for _, f := range desc.Fields {
			if f == "" {
				return fmt.Errorf("message field with empty name")
			}
			if _, dup := seen[f]; dup {
				return fmt.Errorf("duplicate message field %q", f)
			}
			seen[f] = struct{}{}
		}
		return validateSubtypes(desc.Subtypes)

	case schema.KindUnion:
		if len(desc.Options) == 0 {
			return fmt.Errorf("union must have at least one constructor")
		}
		constTags := make(map[uint64]string)
		tupleTags := make(map[uint64]string)
		names := make(map[string]struct{})
		for _, o := range desc.Options {
			if o.Name == "" {
				return fmt.Errorf("union constructor with empty name")
			}
			if _, dup := names[o.Name]; dup {
				return fmt.Errorf("duplicate constructor %q", o.Name)
			}
			names[o.Name] = struct{}{}
			tags := tupleTags
			if o.Constant() {
				tags = constTags
			}
			if prev, dup := tags[o.Tag]; dup {
				return fmt.Errorf("constructors %q and %q share tag %d", prev, o.Name, o.Tag)
			}
			tags[o.Tag] = o.Name
			if err := validateSubtypes(o.Subtypes); err != nil {
				return fmt.Errorf("constructor %q: %w", o.Name, err)
			}
		}
		return nil
	}

	return fmt.Errorf("unknown descriptor kind %q", desc.Kind)
}

func validateSubtypes(subtypes []*schema.Descriptor) error {
	for i, st := range subtypes {
		if st == nil {
			return fmt.Errorf("nil subtype at index %d", i)
		}
		if err := validate(st); err != nil {
			return err
		}
	}
	return nil
}
