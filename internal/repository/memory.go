package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cycleroute/internal/models"
)

// MemoryRouteRepository keeps routes in insertion order. It is seeded with
// the sample routes used by demos and tests.
type MemoryRouteRepository struct {
	mu     sync.RWMutex
	order  []string
	routes map[string]models.Route
	now    func() time.Time
}

func NewMemoryRouteRepository() *MemoryRouteRepository {
	r := &MemoryRouteRepository{
		routes: make(map[string]models.Route),
		now:    time.Now,
	}
	for _, seed := range SeedRoutes() {
		if _, err := r.SaveRoute(context.Background(), seed); err != nil {
			panic("invalid seed route " + seed.Name + ": " + err.Error())
		}
	}
	return r
}

func (r *MemoryRouteRepository) GetAllRoutes(ctx context.Context) ([]models.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Route, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.routes[id].Clone())
	}
	return out, nil
}

func (r *MemoryRouteRepository) SaveRoute(ctx context.Context, route models.Route) (models.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.routes[route.ID]; ok {
		route.CreatedAt = existing.CreatedAt
	}
	stored, err := prepareRoute(route, r.now())
	if err != nil {
		return models.Route{}, err
	}
	if _, ok := r.routes[stored.ID]; !ok {
		r.order = append(r.order, stored.ID)
	}
	r.routes[stored.ID] = stored
	return stored.Clone(), nil
}

func (r *MemoryRouteRepository) GetRoute(ctx context.Context, id string) (models.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[id]
	if !ok {
		return models.Route{}, ErrNotFound
	}
	return route.Clone(), nil
}

func (r *MemoryRouteRepository) DeleteRoute(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[id]; !ok {
		return ErrNotFound
	}
	delete(r.routes, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryTripRepository is the in-memory TripRepository.
type MemoryTripRepository struct {
	mu          sync.RWMutex
	trips       map[string]models.Trip
	points      map[string][]models.TripPoint
	nextPointID uint
}

func NewMemoryTripRepository() *MemoryTripRepository {
	return &MemoryTripRepository{
		trips:  make(map[string]models.Trip),
		points: make(map[string][]models.TripPoint),
	}
}

func (r *MemoryTripRepository) CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if _, ok := r.trips[trip.ID]; ok {
		return models.Trip{}, ErrConflict
	}
	now := time.Now()
	trip.CreatedAt, trip.UpdatedAt = now, now
	trip.Points = nil
	r.trips[trip.ID] = trip
	return trip, nil
}

func (r *MemoryTripRepository) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trip, ok := r.trips[id]
	if !ok {
		return models.Trip{}, ErrNotFound
	}
	return trip, nil
}

// ListTrips returns the rider's trips, most recently started first.
func (r *MemoryTripRepository) ListTrips(ctx context.Context, riderID uint) ([]models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Trip
	for _, t := range r.trips {
		if t.RiderID == riderID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (r *MemoryTripRepository) FinishTrip(ctx context.Context, id string, finishedAt time.Time) (models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[id]
	if !ok {
		return models.Trip{}, ErrNotFound
	}
	if trip.Status != models.TripRecording {
		return models.Trip{}, ErrNotRecording
	}
	finishTrip(&trip, r.points[id], finishedAt)
	trip.UpdatedAt = time.Now()
	r.trips[id] = trip
	return trip, nil
}

func (r *MemoryTripRepository) AppendPoint(ctx context.Context, point models.TripPoint) (models.TripPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[point.TripID]
	if !ok {
		return models.TripPoint{}, ErrNotFound
	}
	if trip.Status != models.TripRecording {
		return models.TripPoint{}, ErrNotRecording
	}
	r.nextPointID++
	point.ID = r.nextPointID
	r.points[point.TripID] = append(r.points[point.TripID], point)
	return point, nil
}

func (r *MemoryTripRepository) LastPoint(ctx context.Context, tripID string) (models.TripPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pts := r.points[tripID]
	if len(pts) == 0 {
		return models.TripPoint{}, ErrNotFound
	}
	return pts[len(pts)-1], nil
}

func (r *MemoryTripRepository) Points(ctx context.Context, tripID string) ([]models.TripPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pts := r.points[tripID]
	out := make([]models.TripPoint, len(pts))
	copy(out, pts)
	return out, nil
}

// MemoryRiderRepository is the in-memory RiderRepository.
type MemoryRiderRepository struct {
	mu      sync.RWMutex
	riders  map[uint]models.Rider
	byEmail map[string]uint
	nextID  uint
}

func NewMemoryRiderRepository() *MemoryRiderRepository {
	return &MemoryRiderRepository{
		riders:  make(map[uint]models.Rider),
		byEmail: make(map[string]uint),
	}
}

func (r *MemoryRiderRepository) CreateRider(ctx context.Context, rider models.Rider) (models.Rider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rider.Email = normalizeEmail(rider.Email)
	if _, ok := r.byEmail[rider.Email]; ok {
		return models.Rider{}, ErrConflict
	}
	r.nextID++
	now := time.Now()
	rider.ID = r.nextID
	rider.CreatedAt, rider.UpdatedAt = now, now
	r.riders[rider.ID] = rider
	r.byEmail[rider.Email] = rider.ID
	return rider, nil
}

func (r *MemoryRiderRepository) FindRiderByEmail(ctx context.Context, email string) (models.Rider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return models.Rider{}, ErrNotFound
	}
	return r.riders[id], nil
}

func (r *MemoryRiderRepository) GetRider(ctx context.Context, id uint) (models.Rider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rider, ok := r.riders[id]
	if !ok {
		return models.Rider{}, ErrNotFound
	}
	return rider, nil
}
