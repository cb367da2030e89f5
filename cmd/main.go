package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/session"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sparkbytesservice/pkg/config"
	"sparkbytesservice/pkg/handlers"
	"sparkbytesservice/pkg/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OAuth2 configuration. Only the verified email and name are consumed
	// from the provider.
	oauthConfig := &oauth2.Config{
		RedirectURL:  cfg.RedirectURL,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	st := store.NewGormStore(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	sessions := session.New()

	app := fiber.New()
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: cfg.SessionSecret,
	}))

	authHandler := handlers.NewAuthHandler(oauthConfig, sessions, st)
	eventHandler := handlers.NewEventHandler(sessions, st)

	app.Get("/auth/login", authHandler.Login)
	app.Get("/auth/callback", authHandler.Callback)
	app.Get("/auth/logout", authHandler.Logout)

	api := app.Group("/api")
	api.Get("/me", eventHandler.Me)
	api.Put("/me/preferences", eventHandler.UpdatePreferences)
	api.Get("/events", eventHandler.List)
	api.Post("/events", eventHandler.Create)
	api.Get("/events/:id", eventHandler.Get)
	api.Put("/events/:id", eventHandler.Update)
	api.Delete("/events/:id", eventHandler.Delete)

	log.Fatal(app.Listen(cfg.ListenAddr))
}
