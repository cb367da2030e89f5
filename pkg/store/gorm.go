package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sparkbytesservice/pkg/models"
)

// GormStore is the production Store backed by a relational database through
// GORM. All queries are single-record and owner-scoped; failures surface as
// wrapped errors and never leave partial state behind in the caller.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the users and events tables.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Event{})
}

func (s *GormStore) UpsertUser(ctx context.Context, email, name string) (models.User, error) {
	if email == "" {
		return models.User{}, fmt.Errorf("store: upsert user: email is required")
	}
	user := models.User{
		Email:              email,
		Name:               name,
		DietaryPreferences: pq.StringArray{},
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return models.User{}, fmt.Errorf("store: upsert user %s: %w", email, err)
	}
	// Re-read so the caller sees the stored record, including dietary
	// preferences an earlier sign-in may have accumulated.
	return s.GetUser(ctx, email)
}

func (s *GormStore) GetUser(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("store: get user %s: %w", email, err)
	}
	return user, nil
}

func (s *GormStore) UpdateDietaryPreferences(ctx context.Context, email string, prefs []string) (models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("dietary_preferences", pq.StringArray(prefs))
	if res.Error != nil {
		return models.User{}, fmt.Errorf("store: update preferences for %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return s.GetUser(ctx, email)
}

func (s *GormStore) ListByOwner(ctx context.Context, owner string) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := s.db.WithContext(ctx).
		Where("created_by = ?", owner).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("store: list events for %s: %w", owner, err)
	}
	return events, nil
}

func (s *GormStore) GetEvent(ctx context.Context, id, owner string) (models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		First(&event, "id = ? AND created_by = ?", id, owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Event{}, ErrNotFound
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("store: get event %s: %w", id, err)
	}
	return event, nil
}

func (s *GormStore) CreateEvent(ctx context.Context, owner string, params EventParams) (models.Event, error) {
	if err := validateEventParams(params); err != nil {
		return models.Event{}, err
	}
	// created_by must reference a provisioned user.
	if _, err := s.GetUser(ctx, owner); err != nil {
		return models.Event{}, fmt.Errorf("store: create event: owner %s: %w", owner, err)
	}
	status := params.Status
	if status == "" {
		status = DefaultStatus
	}
	event := models.Event{
		ID:            uuid.NewString(),
		Title:         params.Title,
		Description:   params.Description,
		Location:      params.Location,
		BuildingIndex: params.BuildingIndex,
		Latitude:      *params.Latitude,
		Longitude:     *params.Longitude,
		Status:        status,
		CreatedBy:     owner,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return models.Event{}, fmt.Errorf("store: create event: %w", err)
	}
	return event, nil
}

func (s *GormStore) UpdateEvent(ctx context.Context, id, owner string, params EventParams) (models.Event, error) {
	if owner == "" {
		return models.Event{}, ErrNotFound
	}
	if err := validateEventParams(params); err != nil {
		return models.Event{}, err
	}
	updates := map[string]interface{}{
		"title":          params.Title,
		"description":    params.Description,
		"location":       params.Location,
		"building_index": params.BuildingIndex,
		"latitude":       *params.Latitude,
		"longitude":      *params.Longitude,
	}
	if params.Status != "" {
		updates["status"] = params.Status
	}
	// The owner is part of the predicate, so a non-owner's update matches
	// zero rows and reads the same as a missing id.
	res := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND created_by = ?", id, owner).
		Updates(updates)
	if res.Error != nil {
		return models.Event{}, fmt.Errorf("store: update event %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Event{}, ErrNotFound
	}
	return s.GetEvent(ctx, id, owner)
}

func (s *GormStore) DeleteEvent(ctx context.Context, id, owner string) error {
	if owner == "" {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).
		Where("id = ? AND created_by = ?", id, owner).
		Delete(&models.Event{})
	if res.Error != nil {
		return fmt.Errorf("store: delete event %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*GormStore)(nil)
