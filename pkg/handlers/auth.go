package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"sparkbytesservice/pkg/auth"
	"sparkbytesservice/pkg/store"
)

const (
	stateKey    = "oauth_state"
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// AuthHandler runs the sign-in flow: redirect to the provider, exchange the
// callback code, fetch the verified identity, provision it, and only then
// establish a session.
type AuthHandler struct {
	OAuth    *oauth2.Config
	Sessions *session.Store
	Users    store.UserStore
}

func NewAuthHandler(oauthCfg *oauth2.Config, sessions *session.Store, users store.UserStore) *AuthHandler {
	return &AuthHandler{OAuth: oauthCfg, Sessions: sessions, Users: users}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state := uuid.NewString()
	sess, err := h.Sessions.Get(c)
	if err != nil {
		log.Printf("login: session: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to start sign-in")
	}
	sess.Set(stateKey, state)
	if err := sess.Save(); err != nil {
		log.Printf("login: save session: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to start sign-in")
	}
	return c.Redirect(h.OAuth.AuthCodeURL(state))
}

func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		log.Printf("callback: session: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("sign-in failed")
	}
	state, _ := sess.Get(stateKey).(string)
	sess.Delete(stateKey)
	if state == "" || c.Query("state") != state {
		log.Printf("callback: state mismatch")
		return c.Status(fiber.StatusBadRequest).SendString("invalid state parameter")
	}

	code := c.Query("code")
	if code == "" {
		log.Printf("callback: no code in query parameters")
		return c.Status(fiber.StatusBadRequest).SendString("no code in query parameters")
	}

	token, err := h.OAuth.Exchange(c.Context(), code)
	if err != nil {
		log.Printf("callback: failed to exchange token: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to exchange token")
	}

	client := h.OAuth.Client(c.Context(), token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		log.Printf("callback: unable to retrieve user info: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("unable to retrieve user info")
	}
	defer resp.Body.Close()

	var identity auth.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		log.Printf("callback: unable to parse user info: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("unable to parse user info")
	}

	// Fail closed: an identity that cannot be reconciled with the user
	// directory never gets a session.
	if _, err := auth.Provision(c.Context(), h.Users, identity); err != nil {
		log.Printf("callback: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("sign-in failed")
	}

	if err := auth.EstablishSession(c, h.Sessions, identity.Email); err != nil {
		log.Printf("callback: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("sign-in failed")
	}

	return c.Redirect("/api/events")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := auth.ClearSession(c, h.Sessions); err != nil {
		log.Printf("logout: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to sign out")
	}
	return c.Redirect("/")
}
