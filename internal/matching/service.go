package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gotogether/ride-pooling/internal/geo"
	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/config"
	"github.com/gotogether/ride-pooling/pkg/logger"
	"github.com/gotogether/ride-pooling/pkg/validation"
)

// Score weights. Distance proximity dominates, then time proximity,
// then driver rating.
const (
	distanceWeight = 0.5
	timeWeight     = 0.3
	ratingWeight   = 0.2
)

// maxTripSeats caps how many seats a single driver-offered trip may carry.
const maxTripSeats = 8

// Service ranks driver-offered trips against rider searches.
type Service struct {
	repo TripRepository
	cfg  config.MatchingConfig
}

// NewService creates a new matching service
func NewService(repo TripRepository, cfg config.MatchingConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Rank filters candidates by seat, distance and time constraints, then
// orders them by composite score. Pure and deterministic: identical inputs
// produce identical output, ties broken by candidate id ascending.
func (s *Service) Rank(query MatchQuery, candidates []TripCandidate) []MatchResult {
	results := make([]MatchResult, 0, len(candidates))

	for _, candidate := range candidates {
		if candidate.AvailableSeats <= 0 {
			continue
		}

		originDistance := geo.DistanceKm(query.Origin, candidate.Origin)
		destDistance := geo.DistanceKm(query.Destination, candidate.Destination)
		if originDistance > query.MaxOriginDistanceKm || destDistance > query.MaxDestDistanceKm {
			continue
		}

		timeDiff := candidate.DepartureTime.Sub(query.DepartureTime)
		if timeDiff < 0 {
			timeDiff = -timeDiff
		}
		timeDiffMinutes := int(timeDiff.Minutes())
		if timeDiff > time.Duration(query.TimeWindowMinutes)*time.Minute {
			continue
		}

		results = append(results, MatchResult{
			Candidate:             candidate,
			OriginDistanceKm:      originDistance,
			DestDistanceKm:        destDistance,
			TimeDifferenceMinutes: timeDiffMinutes,
			Score:                 score(query, candidate, originDistance, destDistance, timeDiffMinutes),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Candidate.ID.String() < results[j].Candidate.ID.String()
	})

	return results
}

// score computes the weighted composite in [0,1].
func score(query MatchQuery, candidate TripCandidate, originDistance, destDistance float64, timeDiffMinutes int) float64 {
	maxTotalDistance := query.MaxOriginDistanceKm + query.MaxDestDistanceKm
	distanceComponent := math.Max(0, 1-(originDistance+destDistance)/maxTotalDistance)

	timeComponent := math.Max(0, 1-float64(timeDiffMinutes)/float64(query.TimeWindowMinutes))

	ratingComponent := candidate.DriverRating / 5.0

	final := distanceComponent*distanceWeight + timeComponent*timeWeight + ratingComponent*ratingWeight
	return math.Min(1.0, math.Max(0.0, final))
}

// Search encodes the query origin, expands it to neighboring cells, fetches
// pre-filtered candidates and ranks them.
func (s *Service) Search(ctx context.Context, query MatchQuery) ([]MatchResult, error) {
	spatialKeys := geo.CoverageKeys(query.Origin, s.cfg.GeohashPrecision)

	window := time.Duration(query.TimeWindowMinutes) * time.Minute
	from := query.DepartureTime.Add(-window)
	to := query.DepartureTime.Add(window)

	candidates, err := s.repo.FindTripCandidates(ctx, spatialKeys, from, to, s.cfg.MaxCandidates)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch trip candidates", err)
	}

	results := s.Rank(query, candidates)

	logger.InfoContext(ctx, "trip search completed",
		zap.Int("spatial_keys", len(spatialKeys)),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(results)),
	)

	return results, nil
}

// QueryFromRequest applies configured defaults to an HTTP search payload.
func (s *Service) QueryFromRequest(req *SearchRequest) (MatchQuery, error) {
	origin, err := geo.NewCoordinate(req.OriginLatitude, req.OriginLongitude)
	if err != nil {
		return MatchQuery{}, err
	}
	destination, err := geo.NewCoordinate(req.DestinationLatitude, req.DestinationLongitude)
	if err != nil {
		return MatchQuery{}, err
	}

	query := MatchQuery{
		Origin:              origin,
		Destination:         destination,
		DepartureTime:       req.DepartureTime,
		MaxOriginDistanceKm: req.MaxOriginDistanceKm,
		MaxDestDistanceKm:   req.MaxDestDistanceKm,
		TimeWindowMinutes:   req.TimeWindowMinutes,
	}
	if query.MaxOriginDistanceKm <= 0 {
		query.MaxOriginDistanceKm = s.cfg.MaxOriginDistanceKm
	}
	if query.MaxDestDistanceKm <= 0 {
		query.MaxDestDistanceKm = s.cfg.MaxDestDistanceKm
	}
	if query.TimeWindowMinutes <= 0 {
		query.TimeWindowMinutes = s.cfg.TimeWindowMinutes
	}
	return query, nil
}

// GetTrip fetches a trip by id.
func (s *Service) GetTrip(ctx context.Context, tripID uuid.UUID) (*Trip, error) {
	return s.repo.GetTripByID(ctx, tripID)
}

// CreateTrip persists a driver-offered trip with its spatial keys.
func (s *Service) CreateTrip(ctx context.Context, driverID uuid.UUID, req *CreateTripRequest) (*Trip, error) {
	origin, err := geo.NewCoordinate(req.OriginLatitude, req.OriginLongitude)
	if err != nil {
		return nil, err
	}
	destination, err := geo.NewCoordinate(req.DestinationLatitude, req.DestinationLongitude)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateRating(req.DriverRating); err != nil {
		return nil, common.NewValidationError(err.Error())
	}
	if err := validation.ValidateSeats(req.TotalSeats, maxTripSeats); err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	now := time.Now().UTC()
	trip := &Trip{
		ID:                 uuid.New(),
		DriverID:           driverID,
		Origin:             origin,
		OriginAddress:      req.OriginAddress,
		OriginGeohash:      geo.Encode(origin, s.cfg.GeohashPrecision),
		Destination:        destination,
		DestinationAddress: req.DestinationAddress,
		DestinationGeohash: geo.Encode(destination, s.cfg.GeohashPrecision),
		DepartureTime:      req.DepartureTime,
		TotalSeats:         req.TotalSeats,
		AvailableSeats:     req.TotalSeats,
		FarePerPerson:      req.FarePerPerson,
		DriverDisplayName:  req.DriverDisplayName,
		DriverRating:       req.DriverRating,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		return nil, common.NewInternalError("failed to persist trip", err)
	}

	logger.InfoContext(ctx, "trip created",
		zap.String("trip_id", trip.ID.String()),
		zap.String("driver_id", driverID.String()),
		zap.String("origin_geohash", trip.OriginGeohash),
	)

	return trip, nil
}
