package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TripRepository provides trip candidate data access
type TripRepository interface {
	CreateTrip(ctx context.Context, trip *Trip) error
	GetTripByID(ctx context.Context, tripID uuid.UUID) (*Trip, error)
	FindTripCandidates(ctx context.Context, spatialKeys []string, from, to time.Time, limit int) ([]TripCandidate, error)
}
