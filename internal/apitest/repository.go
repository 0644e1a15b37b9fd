package apitest

import (
	"sort"
	"sync"
	"time"

	"github.com/windfall/sprache/internal/errors"
)

// Entity is anything stored by id.
type Entity interface {
	GetID() string
	GetCreatedAt() time.Time
}

// InMemoryRepository is a goroutine-safe map keyed by entity id.
type InMemoryRepository[T Entity] struct {
	mu   sync.RWMutex
	data map[string]T
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository[T Entity]() *InMemoryRepository[T] {
	return &InMemoryRepository[T]{
		data: make(map[string]T),
	}
}

// GetByID retrieves an entity by ID.
func (r *InMemoryRepository[T]) GetByID(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if entity, ok := r.data[id]; ok {
		return entity, nil
	}
	return zero, errors.NotFound("entity")
}

// GetAll returns every entity, newest first.
func (r *InMemoryRepository[T]) GetAll() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entities := make([]T, 0, len(r.data))
	for _, entity := range r.data {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].GetCreatedAt().Equal(entities[j].GetCreatedAt()) {
			return entities[i].GetID() < entities[j].GetID()
		}
		return entities[i].GetCreatedAt().After(entities[j].GetCreatedAt())
	})
	return entities
}

// Create stores a new entity.
func (r *InMemoryRepository[T]) Create(entity T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[entity.GetID()]; ok {
		return errors.Conflict("entity already exists")
	}
	r.data[entity.GetID()] = entity
	return nil
}

// Delete deletes an entity by ID.
func (r *InMemoryRepository[T]) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return errors.NotFound("entity")
	}
	delete(r.data, id)
	return nil
}
