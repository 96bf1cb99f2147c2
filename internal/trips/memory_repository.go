package trips

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository keeps trips in process memory.
// Trips are lost on restart; use PostgresRepository to persist them.
type InMemoryRepository struct {
	mu    sync.RWMutex
	trips map[string]*Trip
}

// NewInMemoryRepository creates a new in-memory trip repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trips: make(map[string]*Trip),
	}
}

// Create stores a copy of the trip.
func (r *InMemoryRepository) Create(_ context.Context, t *Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *t
	r.trips[t.ID] = &cpy
	return nil
}

// Get retrieves a trip by user ID and trip ID.
func (r *InMemoryRepository) Get(_ context.Context, userID, tripID string) (*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[tripID]
	if !ok || t.UserID != userID {
		return nil, ErrTripNotFound
	}

	cpy := *t
	return &cpy, nil
}

// List returns a user's trips, newest first.
func (r *InMemoryRepository) List(_ context.Context, userID string, opts ListOptions) ([]*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trips := []*Trip{}
	for _, t := range r.trips {
		if t.UserID == userID {
			cpy := *t
			trips = append(trips, &cpy)
		}
	}

	sort.Slice(trips, func(i, j int) bool {
		if trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].ID > trips[j].ID
		}
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})

	if opts.Limit > 0 && len(trips) > opts.Limit {
		trips = trips[:opts.Limit]
	}

	return trips, nil
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored trips.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trips)
}
