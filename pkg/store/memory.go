package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sparkbytesservice/pkg/models"
)

// MemoryStore is an in-process Store with the same semantics as GormStore.
// It backs handler tests and local development without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	events map[string]models.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]models.User),
		events: make(map[string]models.Event),
	}
}

func (s *MemoryStore) UpsertUser(ctx context.Context, email, name string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if email == "" {
		return models.User{}, fmt.Errorf("store: upsert user: email is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	user, ok := s.users[email]
	if !ok {
		user = models.User{
			Email:              email,
			DietaryPreferences: pq.StringArray{},
			CreatedAt:          now,
		}
	}
	user.Name = name
	user.UpdatedAt = now
	s.users[email] = user
	return user, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) UpdateDietaryPreferences(ctx context.Context, email string, prefs []string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	user.DietaryPreferences = pq.StringArray(prefs)
	user.UpdatedAt = time.Now().UTC()
	s.users[email] = user
	return user, nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, owner string) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]models.Event, 0)
	for _, event := range s.events {
		if models.IsOwner(event.CreatedBy, owner) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (s *MemoryStore) GetEvent(ctx context.Context, id, owner string) (models.Event, error) {
	if err := ctx.Err(); err != nil {
		return models.Event{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[id]
	if !ok || !models.IsOwner(event.CreatedBy, owner) {
		return models.Event{}, ErrNotFound
	}
	return event, nil
}

func (s *MemoryStore) CreateEvent(ctx context.Context, owner string, params EventParams) (models.Event, error) {
	if err := ctx.Err(); err != nil {
		return models.Event{}, err
	}
	if err := validateEventParams(params); err != nil {
		return models.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[owner]; !ok {
		return models.Event{}, fmt.Errorf("store: create event: owner %s: %w", owner, ErrNotFound)
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
	s.events[event.ID] = event
	return event, nil
}

func (s *MemoryStore) UpdateEvent(ctx context.Context, id, owner string, params EventParams) (models.Event, error) {
	if err := ctx.Err(); err != nil {
		return models.Event{}, err
	}
	if err := validateEventParams(params); err != nil {
		return models.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok || !models.IsOwner(event.CreatedBy, owner) {
		return models.Event{}, ErrNotFound
	}
	event.Title = params.Title
	event.Description = params.Description
	event.Location = params.Location
	event.BuildingIndex = params.BuildingIndex
	event.Latitude = *params.Latitude
	event.Longitude = *params.Longitude
	if params.Status != "" {
		event.Status = params.Status
	}
	s.events[id] = event
	return event, nil
}

func (s *MemoryStore) DeleteEvent(ctx context.Context, id, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok || !models.IsOwner(event.CreatedBy, owner) {
		return ErrNotFound
	}
	delete(s.events, event.ID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
