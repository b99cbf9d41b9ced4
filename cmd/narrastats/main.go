package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pbellini/narrastats/internal/api"
	"github.com/pbellini/narrastats/internal/constants"
	"github.com/pbellini/narrastats/internal/logging"
)

func main() {
	// Load configuration (required). Path may be provided via the
	// NARRASTATS_CONFIG env var or defaults to ./narrastats_config.json in
	// the current working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}
	cfg := loadConfigOrExit(configPath)

	// The DB path may be overridden via NARRASTATS_DB; otherwise the config
	// file value or the local data/ default is used.
	dbPath := os.Getenv(constants.EnvDBPath)
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	if dbPath == "" {
		dbPath = constants.DefaultDBPath
	}
	repo := createRepositoryOrExit(dbPath)

	handler := api.NewSessionHandler(repo, cfg.Stats, cfg.Grammar, cfg.SummaryMode)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteHealth, api.Health)

		apiRoutes.POST(constants.RouteSessions, handler.CreateSession)
		apiRoutes.GET(constants.RouteSessions, handler.ListSessions)
		apiRoutes.GET(constants.RouteSessionByID, handler.GetSession)
		apiRoutes.DELETE(constants.RouteSessionDelete, handler.DeleteSession)

		apiRoutes.POST(constants.RouteMessage, handler.PostMessage)
		apiRoutes.POST(constants.RouteTick, handler.Tick)
		apiRoutes.POST(constants.RouteReset, handler.Reset)
		apiRoutes.GET(constants.RouteSummary, handler.GetSummary)
		apiRoutes.GET(constants.RouteExport, handler.ExportState)
		apiRoutes.POST(constants.RouteImport, handler.ImportState)
		apiRoutes.PUT(constants.RouteParserConfig, handler.UpdateParserConfig)
		apiRoutes.POST(constants.RouteStats, handler.AddStat)
		apiRoutes.DELETE(constants.RouteStatByID, handler.DeleteStat)
	}

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
