package template

// Store exposes quick reply templates to handlers.
type Store interface {
	List() []Template
	FindByID(id string) (Template, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Template
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied templates.
func NewMemoryStore(items []Template) *MemoryStore {
	return &MemoryStore{items: append([]Template(nil), items...)}
}

// List returns the templates in display order.
func (s *MemoryStore) List() []Template {
	return append([]Template(nil), s.items...)
}

// FindByID looks up a template by identifier.
func (s *MemoryStore) FindByID(id string) (Template, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Template{}, false
}
