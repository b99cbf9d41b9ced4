package main

import (
	"github.com/pbellini/narrastats/internal/config"
	"github.com/pbellini/narrastats/internal/logging"
	"github.com/pbellini/narrastats/internal/storage"
)

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Fatal("Missing or invalid narrastats configuration", err, logging.Fields{"config_path": path, "hint": "create a narrastats_config.json with an optional 'stat_list' array (id,name,base_value,min_value,max_value,display_mode,category,show_in_ui) and optional keys: server.address, parser{open,close,separator,case_sensitive}, summary_mode, db_path"})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{"db_path": dbPath})
	}
	return storage.NewSQLiteRepository(db)
}
