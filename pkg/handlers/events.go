package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"sparkbytesservice/pkg/auth"
	"sparkbytesservice/pkg/store"
)

// EventHandler serves the owner-scoped event API. Every route resolves the
// identity from the session first; the identity is passed explicitly into
// each store call.
type EventHandler struct {
	Sessions *session.Store
	Store    store.Store
}

func NewEventHandler(sessions *session.Store, st store.Store) *EventHandler {
	return &EventHandler{Sessions: sessions, Store: st}
}

func (h *EventHandler) identity(c *fiber.Ctx) (string, error) {
	email, err := auth.RequireIdentity(c, h.Sessions)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return "", c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "sign-in required"})
		}
		log.Printf("events: session: %v", err)
		return "", c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session unavailable"})
	}
	return email, nil
}

// storeError maps store failures onto HTTP statuses. Ownership rejections
// arrive here as ErrNotFound already, so non-owners see the same 404 as a
// missing record.
func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	case errors.Is(err, store.ErrInvalidEvent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("events: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage failure"})
	}
}

func (h *EventHandler) List(c *fiber.Ctx) error {
	email, err := h.identity(c)
	if err != nil || email == "" {
		return err
	}
	events, err := h.Store.ListByOwner(c.Context(), email)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(events)
}

func (h *EventHandler) Get(c *fiber.Ctx) error {
	email, err := h.identity(c)
	if err != nil || email == "" {
		return err
	}
	event, err := h.Store.GetEvent(c.Context(), c.Params("id"), email)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(event)
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	email, err := h.identity(c)
	if err != nil || email == "" {
		return err
	}
	var params store.EventParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed event payload"})
	}
	event, err := h.Store.CreateEvent(c.Context(), email, params)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *EventHandler) Update(c *fiber.Ctx) error {
	email, err := h.identity(c)
	if err != nil || email == "" {
		return err
	}
	var params store.EventParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed event payload"})
	}
	event, err := h.Store.UpdateEvent(c.Context(), c.Params("id"), email, params)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(event)
}

// Delete requires confirm=true in the query string. The flag is the explicit
// user-confirmation gate; without it the store is never touched. The response
// echoes the deleted id so the client can prune exactly that row from its
// local list.
func (h *EventHandler) Delete(c *fiber.Ctx) error {
	email, err := h.identity(c)
	if err != nil || email == "" {
		return err
	}
	if c.Query("confirm") != "true" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "confirmation required"})
	}
	id := c.Params("id")
	if err := h.Store.DeleteEvent(c.Context(), id, email); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": id})
}

// Me returns the provisioned user record for the signed-in identity.
func (h *EventHandler) Me(c *fiber.Ctx) error {
	email, err := h.identity(c)
	if err != nil || email == "" {
		return err
	}
	user, err := h.Store.GetUser(c.Context(), email)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(user)
}

// UpdatePreferences replaces the signed-in user's dietary preference tags.
// This is the only user field editable after provisioning.
func (h *EventHandler) UpdatePreferences(c *fiber.Ctx) error {
	email, err := h.identity(c)
	if err != nil || email == "" {
		return err
	}
	var body struct {
		DietaryPreferences []string `json:"dietary_preferences"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed preferences payload"})
	}
	user, err := h.Store.UpdateDietaryPreferences(c.Context(), email, body.DietaryPreferences)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(user)
}
