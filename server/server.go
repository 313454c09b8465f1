package server

import (
	"btreestore/database"
	"btreestore/logger"
	routes "btreestore/server/routes"

	"github.com/gofiber/fiber/v2"
)

// New returns a fiber app serving db.
func New(db *database.Database) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "btreestore",
		DisableStartupMessage: true,
	})

	routes.SetupRoutes(app, db)
	return app
}

// Server serves db on addr until the listener fails.
func Server(db *database.Database, addr string) error {
	app := New(db)

	logger.Sugar.Infow("fiber listening", "addr", addr)
	return app.Listen(addr)
}
