package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sparkbytesservice/pkg/store"
)

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	// A single connection keeps the in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.NewGormStore(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func eventParams(title string) store.EventParams {
	lat, lon := 42.3505, -71.1054
	return store.EventParams{
		Title:         title,
		Description:   "leftover catering",
		Location:      "George Sherman Union",
		BuildingIndex: "B1",
		Latitude:      &lat,
		Longitude:     &lon,
	}
}

func TestUpsertUser_CreatesWithEmptyPreferences(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.UpsertUser(ctx, "a@x.edu", "A")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if user.Email != "a@x.edu" || user.Name != "A" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(user.DietaryPreferences) != 0 {
		t.Fatalf("expected empty preferences, got %v", user.DietaryPreferences)
	}
}

func TestUpsertUser_ReprovisionKeepsPreferences(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.UpsertUser(ctx, "a@x.edu", "A"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := st.UpdateDietaryPreferences(ctx, "a@x.edu", []string{"vegan", "halal"}); err != nil {
		t.Fatalf("set preferences: %v", err)
	}

	user, err := st.UpsertUser(ctx, "a@x.edu", "A Renamed")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if user.Name != "A Renamed" {
		t.Fatalf("expected refreshed name, got %q", user.Name)
	}
	if len(user.DietaryPreferences) != 2 || user.DietaryPreferences[0] != "vegan" {
		t.Fatalf("preferences were reset: %v", user.DietaryPreferences)
	}
}

func TestUpdateDietaryPreferences_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.UpdateDietaryPreferences(context.Background(), "nobody@x.edu", []string{"vegan"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if _, err := st.UpsertUser(ctx, "a@x.edu", "A"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	missingTitle := eventParams("")
	if _, err := st.CreateEvent(ctx, "a@x.edu", missingTitle); !errors.Is(err, store.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for missing title, got %v", err)
	}

	missingCoords := eventParams("Pizza")
	missingCoords.Latitude = nil
	if _, err := st.CreateEvent(ctx, "a@x.edu", missingCoords); !errors.Is(err, store.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for missing coordinates, got %v", err)
	}
}

func TestCreateEvent_UnknownOwner(t *testing.T) {
	st := newTestStore(t)
	_, err := st.CreateEvent(context.Background(), "ghost@x.edu", eventParams("Pizza"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unprovisioned owner, got %v", err)
	}
}

func TestCreateEvent_AssignsIDStatusAndTimestamp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if _, err := st.UpsertUser(ctx, "a@x.edu", "A"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	event, err := st.CreateEvent(ctx, "a@x.edu", eventParams("Pizza"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.ID == "" {
		t.Fatal("expected generated id")
	}
	if event.CreatedAt.IsZero() {
		t.Fatal("expected non-zero created_at")
	}
	if event.Status != store.DefaultStatus {
		t.Fatalf("expected default status, got %q", event.Status)
	}
	if event.CreatedBy != "a@x.edu" {
		t.Fatalf("unexpected created_by: %q", event.CreatedBy)
	}
}

func TestListByOwner_OrdersByCreatedAtDesc(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if _, err := st.UpsertUser(ctx, "a@x.edu", "A"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := st.CreateEvent(ctx, "a@x.edu", eventParams(title)); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	events, err := st.ListByOwner(ctx, "a@x.edu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"third", "second", "first"} {
		if events[i].Title != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, events[i].Title)
		}
	}
}

func TestListByOwner_EmptyIsNotAnError(t *testing.T) {
	st := newTestStore(t)
	events, err := st.ListByOwner(context.Background(), "nobody@x.edu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty slice, got %d events", len(events))
	}
}

func TestOwnershipIsolation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	for _, email := range []string{"a@x.edu", "b@y.edu"} {
		if _, err := st.UpsertUser(ctx, email, ""); err != nil {
			t.Fatalf("upsert %s: %v", email, err)
		}
	}

	event, err := st.CreateEvent(ctx, "a@x.edu", eventParams("Pizza"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	others, err := st.ListByOwner(ctx, "b@y.edu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(others) != 0 {
		t.Fatalf("b must not see a's events, got %d", len(others))
	}

	if _, err := st.GetEvent(ctx, event.ID, "b@y.edu"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner get: expected ErrNotFound, got %v", err)
	}
	if _, err := st.UpdateEvent(ctx, event.ID, "b@y.edu", eventParams("Hijacked")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner update: expected ErrNotFound, got %v", err)
	}
	if err := st.DeleteEvent(ctx, event.ID, "b@y.edu"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-owner delete: expected ErrNotFound, got %v", err)
	}

	// The owner's view is untouched by the rejected mutations.
	mine, err := st.ListByOwner(ctx, "a@x.edu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "Pizza" {
		t.Fatalf("owner's event was altered: %+v", mine)
	}
}

func TestUpdateEvent_PreservesImmutableFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if _, err := st.UpsertUser(ctx, "a@x.edu", "A"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	created, err := st.CreateEvent(ctx, "a@x.edu", eventParams("Pizza"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	params := eventParams("Bagels")
	params.Status = "ended"
	updated, err := st.UpdateEvent(ctx, created.ID, "a@x.edu", params)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Bagels" || updated.Status != "ended" {
		t.Fatalf("mutable fields not applied: %+v", updated)
	}
	if updated.ID != created.ID || updated.CreatedBy != created.CreatedBy {
		t.Fatalf("immutable fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
}

func TestDeleteEvent_Exactness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if _, err := st.UpsertUser(ctx, "a@x.edu", "A"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		event, err := st.CreateEvent(ctx, "a@x.edu", eventParams(title))
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		ids = append(ids, event.ID)
	}

	if err := st.DeleteEvent(ctx, ids[1], "a@x.edu"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events, err := st.ListByOwner(ctx, "a@x.edu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(events))
	}
	for _, event := range events {
		if event.ID == ids[1] {
			t.Fatal("deleted event still listed")
		}
	}

	if err := st.DeleteEvent(ctx, ids[1], "a@x.edu"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestSignInToDeleteScenario(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.UpsertUser(ctx, "a@x.edu", "A")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if user.Name != "A" || len(user.DietaryPreferences) != 0 {
		t.Fatalf("unexpected provisioned user: %+v", user)
	}

	event, err := st.CreateEvent(ctx, "a@x.edu", eventParams("Pizza"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.ID == "" || event.CreatedAt.IsZero() {
		t.Fatalf("missing generated fields: %+v", event)
	}

	events, err := st.ListByOwner(ctx, "a@x.edu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].ID != event.ID {
		t.Fatalf("expected exactly the created event, got %+v", events)
	}

	if err := st.DeleteEvent(ctx, event.ID, "b@y.edu"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign delete: expected ErrNotFound, got %v", err)
	}
	if err := st.DeleteEvent(ctx, event.ID, "a@x.edu"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	events, err = st.ListByOwner(ctx, "a@x.edu")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(events))
	}
}
