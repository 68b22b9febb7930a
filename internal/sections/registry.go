package sections

import (
	"errors"
	"fmt"

	"fileuploader/internal/config"
)

var ErrDuplicateSection = errors.New("duplicate section id")

// Registry keeps sections in registration order. It is read-only once built.
type Registry struct {
	order []Section
	byID  map[string]int
}

func NewRegistry(sections ...Section) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(sections))}
	for _, s := range sections {
		if _, dup := r.byID[s.ID()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSection, s.ID())
		}
		r.byID[s.ID()] = len(r.order)
		r.order = append(r.order, s)
	}
	return r, nil
}

// FromConfig builds a registry from the configured section list.
func FromConfig(entries []config.SectionConfig) (*Registry, error) {
	list := make([]Section, 0, len(entries))
	for _, e := range entries {
		list = append(list, NewSection(e.ID, e.Controller, e.Metadata))
	}
	return NewRegistry(list...)
}

func (r *Registry) All() []Section {
	return append([]Section(nil), r.order...)
}

func (r *Registry) Get(id string) (Section, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Section{}, false
	}
	return r.order[i], true
}

func (r *Registry) Len() int { return len(r.order) }
