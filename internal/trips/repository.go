package trips

import "context"

// ListOptions contains options for listing trips.
type ListOptions struct {
	// Limit caps the number of trips returned. Zero or less returns all.
	Limit int
}

// Repository defines the interface for trip persistence.
type Repository interface {
	// Create stores a new trip.
	Create(ctx context.Context, trip *Trip) error

	// Get retrieves a trip by user ID and trip ID.
	// Returns ErrTripNotFound if the trip doesn't exist or belongs to another user.
	Get(ctx context.Context, userID, tripID string) (*Trip, error)

	// List returns a user's trips, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]*Trip, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
