package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"sparkbytesservice/pkg/models"
	"sparkbytesservice/pkg/store"
)

// Identity is the verified pair the OAuth provider hands back. Nothing else
// from the provider is trusted or stored.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ErrNoSession is returned when a request carries no signed-in identity.
var ErrNoSession = errors.New("auth: no session")

const identityKey = "user_email"

// Provision reconciles a verified identity against the user directory. On
// first sign-in it creates the user with empty dietary preferences; on later
// sign-ins it refreshes the name and nothing else. Any store failure aborts
// the sign-in: a session must never exist for an unreconciled identity.
func Provision(ctx context.Context, users store.UserStore, id Identity) (models.User, error) {
	if id.Email == "" {
		return models.User{}, fmt.Errorf("auth: provision: email is required")
	}
	user, err := users.UpsertUser(ctx, id.Email, id.Name)
	if err != nil {
		return models.User{}, fmt.Errorf("auth: provision %s: %w", id.Email, err)
	}
	return user, nil
}

// EstablishSession records the identity for the rest of the client session.
// Callers must only reach this after Provision succeeded.
func EstablishSession(c *fiber.Ctx, sessions *session.Store, email string) error {
	sess, err := sessions.Get(c)
	if err != nil {
		return fmt.Errorf("auth: establish session: %w", err)
	}
	sess.Set(identityKey, email)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("auth: establish session: %w", err)
	}
	return nil
}

// RequireIdentity returns the signed-in email or ErrNoSession. It is the
// only source of the owner identity for the event handlers; no handler reads
// ambient state.
func RequireIdentity(c *fiber.Ctx, sessions *session.Store) (string, error) {
	sess, err := sessions.Get(c)
	if err != nil {
		return "", fmt.Errorf("auth: read session: %w", err)
	}
	email, ok := sess.Get(identityKey).(string)
	if !ok || email == "" {
		return "", ErrNoSession
	}
	return email, nil
}

// ClearSession ends the client session.
func ClearSession(c *fiber.Ctx, sessions *session.Store) error {
	sess, err := sessions.Get(c)
	if err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	return nil
}
