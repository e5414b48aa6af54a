package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cycleroute/internal/models"
)

// Migrate creates or updates the tables used by the gorm repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Rider{}, &models.Route{}, &models.Waypoint{}, &models.Trip{}, &models.TripPoint{})
}

func orderedWaypoints(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

// mapError turns gorm and postgres errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Detail)
	}
	return err
}

type GormRouteRepository struct {
	db *gorm.DB
}

func NewGormRouteRepository(db *gorm.DB) *GormRouteRepository {
	return &GormRouteRepository{db: db}
}

func (r *GormRouteRepository) GetAllRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	err := r.db.WithContext(ctx).
		Preload("Waypoints", orderedWaypoints).
		Order("created_at ASC").
		Find(&routes).Error
	if err != nil {
		return nil, mapError(err)
	}
	return routes, nil
}

// SaveRoute replaces the route row and its waypoints in a single transaction.
func (r *GormRouteRepository) SaveRoute(ctx context.Context, route models.Route) (models.Route, error) {
	var stored models.Route
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if route.ID != "" {
			var existing models.Route
			err := tx.Select("id", "created_at").First(&existing, "id = ?", route.ID).Error
			switch {
			case err == nil:
				route.CreatedAt = existing.CreatedAt
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		prepared, err := prepareRoute(route, time.Now())
		if err != nil {
			return err
		}
		waypoints := prepared.Waypoints
		prepared.Waypoints = nil

		if err := tx.Omit("Waypoints").Save(&prepared).Error; err != nil {
			return err
		}
		if err := tx.Where("route_id = ?", prepared.ID).Delete(&models.Waypoint{}).Error; err != nil {
			return err
		}
		for i := range waypoints {
			waypoints[i].ID = 0
		}
		if len(waypoints) > 0 {
			if err := tx.Create(&waypoints).Error; err != nil {
				return err
			}
		}
		prepared.Waypoints = waypoints
		stored = prepared
		return nil
	})
	if err != nil {
		return models.Route{}, mapError(err)
	}
	return stored, nil
}

func (r *GormRouteRepository) GetRoute(ctx context.Context, id string) (models.Route, error) {
	var route models.Route
	err := r.db.WithContext(ctx).
		Preload("Waypoints", orderedWaypoints).
		First(&route, "id = ?", id).Error
	if err != nil {
		return models.Route{}, mapError(err)
	}
	return route, nil
}

func (r *GormRouteRepository) DeleteRoute(ctx context.Context, id string) error {
	return mapError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Route{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("route_id = ?", id).Delete(&models.Waypoint{}).Error
	}))
}

type GormTripRepository struct {
	db *gorm.DB
}

func NewGormTripRepository(db *gorm.DB) *GormTripRepository {
	return &GormTripRepository{db: db}
}

func (r *GormTripRepository) CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	trip.Points = nil
	if err := r.db.WithContext(ctx).Create(&trip).Error; err != nil {
		return models.Trip{}, mapError(err)
	}
	return trip, nil
}

func (r *GormTripRepository) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	var trip models.Trip
	if err := r.db.WithContext(ctx).First(&trip, "id = ?", id).Error; err != nil {
		return models.Trip{}, mapError(err)
	}
	return trip, nil
}

func (r *GormTripRepository) ListTrips(ctx context.Context, riderID uint) ([]models.Trip, error) {
	var trips []models.Trip
	err := r.db.WithContext(ctx).Where("rider_id = ?", riderID).Order("started_at DESC").Find(&trips).Error
	if err != nil {
		return nil, mapError(err)
	}
	return trips, nil
}

// lockRecordingTrip takes a row lock on the trip so that finishing and
// appending points serialise.
func lockRecordingTrip(tx *gorm.DB, id string) (models.Trip, error) {
	var trip models.Trip
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&trip, "id = ?", id).Error; err != nil {
		return models.Trip{}, mapError(err)
	}
	if trip.Status != models.TripRecording {
		return models.Trip{}, ErrNotRecording
	}
	return trip, nil
}

func (r *GormTripRepository) FinishTrip(ctx context.Context, id string, finishedAt time.Time) (models.Trip, error) {
	var trip models.Trip
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockRecordingTrip(tx, id)
		if err != nil {
			return err
		}
		var points []models.TripPoint
		if err := tx.Where("trip_id = ?", id).Order("id ASC").Find(&points).Error; err != nil {
			return mapError(err)
		}
		finishTrip(&locked, points, finishedAt)

		res := tx.Model(&models.Trip{}).
			Where("id = ? AND status = ?", id, models.TripRecording).
			Updates(map[string]interface{}{
				"status":           locked.Status,
				"finished_at":      locked.FinishedAt,
				"distance_km":      locked.DistanceKm,
				"elevation_gain_m": locked.ElevationGainM,
				"moving_seconds":   locked.MovingSeconds,
			})
		if res.Error != nil {
			return mapError(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotRecording
		}
		trip = locked
		return nil
	})
	if err != nil {
		return models.Trip{}, err
	}
	return trip, nil
}

func (r *GormTripRepository) AppendPoint(ctx context.Context, point models.TripPoint) (models.TripPoint, error) {
	point.ID = 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockRecordingTrip(tx, point.TripID); err != nil {
			return err
		}
		return mapError(tx.Create(&point).Error)
	})
	if err != nil {
		return models.TripPoint{}, err
	}
	return point, nil
}

func (r *GormTripRepository) LastPoint(ctx context.Context, tripID string) (models.TripPoint, error) {
	var point models.TripPoint
	err := r.db.WithContext(ctx).Where("trip_id = ?", tripID).Order("id DESC").First(&point).Error
	if err != nil {
		return models.TripPoint{}, mapError(err)
	}
	return point, nil
}

func (r *GormTripRepository) Points(ctx context.Context, tripID string) ([]models.TripPoint, error) {
	var points []models.TripPoint
	if err := r.db.WithContext(ctx).Where("trip_id = ?", tripID).Order("id ASC").Find(&points).Error; err != nil {
		return nil, mapError(err)
	}
	return points, nil
}

type GormRiderRepository struct {
	db *gorm.DB
}

func NewGormRiderRepository(db *gorm.DB) *GormRiderRepository {
	return &GormRiderRepository{db: db}
}

func (r *GormRiderRepository) CreateRider(ctx context.Context, rider models.Rider) (models.Rider, error) {
	rider.Email = normalizeEmail(rider.Email)
	if err := r.db.WithContext(ctx).Create(&rider).Error; err != nil {
		return models.Rider{}, mapError(err)
	}
	return rider, nil
}

func (r *GormRiderRepository) FindRiderByEmail(ctx context.Context, email string) (models.Rider, error) {
	var rider models.Rider
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&rider).Error; err != nil {
		return models.Rider{}, mapError(err)
	}
	return rider, nil
}

func (r *GormRiderRepository) GetRider(ctx context.Context, id uint) (models.Rider, error) {
	var rider models.Rider
	if err := r.db.WithContext(ctx).First(&rider, id).Error; err != nil {
		return models.Rider{}, mapError(err)
	}
	return rider, nil
}
