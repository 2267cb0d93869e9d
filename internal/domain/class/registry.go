package class

import (
	"fmt"
	"strings"
)

// Registry is a read-only lookup table of global classes.
// It is built once at startup and shared by reference.
type Registry struct {
	classes []GlobalClass
	byCode  map[string]GlobalClass
	byID    map[int]GlobalClass
}

// NewRegistry validates and indexes classes. Codes are normalized to upper case.
func NewRegistry(classes []GlobalClass) (*Registry, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidRegistry)
	}

	r := &Registry{
		classes: make([]GlobalClass, 0, len(classes)),
		byCode:  make(map[string]GlobalClass, len(classes)),
		byID:    make(map[int]GlobalClass, len(classes)),
	}
	for _, c := range classes {
		c.Code = normalizeCode(c.Code)
		if c.Code == "" || c.Code == UnknownCode {
			return nil, fmt.Errorf("%w: invalid code %q", ErrInvalidRegistry, c.Code)
		}
		if c.ID <= 0 {
			return nil, fmt.Errorf("%w: class %s has non-positive id", ErrInvalidRegistry, c.Code)
		}
		if _, dup := r.byCode[c.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate code %s", ErrInvalidRegistry, c.Code)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidRegistry, c.ID)
		}
		if strings.TrimSpace(c.Name) == "" {
			c.Name = c.Code
		}
		r.classes = append(r.classes, c)
		r.byCode[c.Code] = c
		r.byID[c.ID] = c
	}
	return r, nil
}

// Default returns a registry of the built-in classes.
func Default() *Registry {
	r, err := NewRegistry(Defaults())
	if err != nil {
		panic(err)
	}
	return r
}

// All returns the classes in registration order.
func (r *Registry) All() []GlobalClass {
	out := make([]GlobalClass, len(r.classes))
	copy(out, r.classes)
	return out
}

// Lookup returns the class registered under code.
func (r *Registry) Lookup(code string) (GlobalClass, bool) {
	c, ok := r.byCode[normalizeCode(code)]
	return c, ok
}

// ByID returns the class with the given global id.
func (r *Registry) ByID(id int) (GlobalClass, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Validate returns ErrUnknownClass naming the first code with no entry.
func (r *Registry) Validate(codes []string) error {
	for _, code := range codes {
		if _, ok := r.Lookup(code); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownClass, code)
		}
	}
	return nil
}

// Resolve maps codes to display metadata. Codes without an entry resolve to
// Unknown and are reported in the second return value instead of failing.
func (r *Registry) Resolve(codes []string) ([]Resolved, []string) {
	resolved := make([]Resolved, 0, len(codes))
	var unresolved []string
	for _, code := range codes {
		if c, ok := r.Lookup(code); ok {
			resolved = append(resolved, Resolved{Code: c.Code, Class: c})
			continue
		}
		unknown := Unknown
		unknown.Name = fmt.Sprintf("unknown (%s)", code)
		resolved = append(resolved, Resolved{Code: code, Class: unknown, Unknown: true})
		unresolved = append(unresolved, code)
	}
	return resolved, unresolved
}

// BuildRemap maps importer-local class names (index = local id) onto
// registry codes. A local name matches a class by code, by full display
// name, or by any word of the display name, case-insensitively.
// Explicit overrides win over name matching. Every local id must map.
func (r *Registry) BuildRemap(localNames []string, overrides map[int]string) (RemapTable, error) {
	table := make(RemapTable, len(localNames))
	for id, code := range overrides {
		c, ok := r.Lookup(code)
		if !ok {
			return nil, fmt.Errorf("%w: override %d -> %q", ErrUnknownClass, id, code)
		}
		table[id] = c.Code
	}

	for id, name := range localNames {
		if _, ok := table[id]; ok {
			continue
		}
		c, ok := r.matchName(name)
		if !ok {
			return nil, fmt.Errorf("%w: local class %d %q", ErrUnknownClass, id, name)
		}
		table[id] = c.Code
	}
	return table, nil
}

func (r *Registry) matchName(name string) (GlobalClass, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return GlobalClass{}, false
	}
	if c, ok := r.Lookup(name); ok {
		return c, true
	}
	for _, c := range r.classes {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
		for _, word := range strings.FieldsFunc(c.Name, isNameSeparator) {
			if strings.EqualFold(word, name) {
				return c, true
			}
		}
	}
	return GlobalClass{}, false
}

func isNameSeparator(r rune) bool {
	return r == ' ' || r == '(' || r == ')' || r == '/' || r == ','
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
