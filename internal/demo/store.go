package demo

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// Widget is the demo resource
type Widget struct {
	ID        int       `json:"id"`
	Ref       uuid.UUID `json:"ref"`
	Name      string    `json:"name" validate:"required,min=2,max=64"`
	Price     float64   `json:"price" validate:"gte=0"`
	Tags      []string  `json:"tags,omitempty" validate:"max=8,dive,required"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// WidgetStore is an in-memory widget repository
type WidgetStore struct {
	mu      sync.RWMutex
	widgets map[int]Widget
	nextID  int
	now     func() time.Time
}

// NewWidgetStore creates an empty store
func NewWidgetStore() *WidgetStore {
	return &WidgetStore{
		widgets: make(map[int]Widget),
		nextID:  1,
		now:     time.Now,
	}
}

// List returns all widgets ordered by id
func (s *WidgetStore) List() []Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b Widget) int { return a.ID - b.ID })
	return out
}

// Get returns the widget with id
func (s *WidgetStore) Get(id int) (Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.widgets[id]
	if !ok {
		return Widget{}, metaroute.ErrNotFound("Widget not found")
	}
	return w, nil
}

// FindByRef returns the widget with ref
func (s *WidgetStore) FindByRef(ref uuid.UUID) (Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.widgets {
		if w.Ref == ref {
			return w, nil
		}
	}
	return Widget{}, metaroute.ErrNotFound("Widget not found")
}

// Add stores w under a new id and ref
func (s *WidgetStore) Add(w Widget) Widget {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.ID = s.nextID
	w.Ref = uuid.New()
	w.CreatedAt = s.now().UTC()
	s.nextID++
	s.widgets[w.ID] = w
	return w
}

// Update replaces the mutable fields of widget id
func (s *WidgetStore) Update(id int, w Widget) (Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.widgets[id]
	if !ok {
		return Widget{}, metaroute.ErrNotFound("Widget not found")
	}
	existing.Name = w.Name
	existing.Price = w.Price
	existing.Tags = w.Tags
	s.widgets[id] = existing
	return existing, nil
}

// SetOwner records owner on widget id
func (s *WidgetStore) SetOwner(id int, owner string) (Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.widgets[id]
	if !ok {
		return Widget{}, metaroute.ErrNotFound("Widget not found")
	}
	w.Owner = owner
	s.widgets[id] = w
	return w, nil
}

// Delete removes widget id
func (s *WidgetStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.widgets[id]; !ok {
		return metaroute.ErrNotFound("Widget not found")
	}
	delete(s.widgets, id)
	return nil
}

// Len returns the number of stored widgets
func (s *WidgetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.widgets)
}
