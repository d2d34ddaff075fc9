package main

import (
	"github.com/wfunc/escaperoom/config"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/persistence"
	"github.com/wfunc/escaperoom/server"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Load and validate the game definition. An invalid definition is a
	// deployment error, not something to limp along with.
	def, err := game.Load(cfg.Game.DefinitionPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load game definition %s: %v", cfg.Game.DefinitionPath, err)
	}
	logger.Log.Infof("Loaded game definition: %d rooms", len(def.Rooms))

	// Initialize Database
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, def, db)

	// Start Server
	logger.Log.Infof("Starting escape room server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
