package main

import (
	"context"
	"fmt"

	"github.com/custodia-labs/searchsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/searchsync/internal/adapters/driven/search/bleveindex"
	"github.com/custodia-labs/searchsync/internal/adapters/driven/search/elastic"
	"github.com/custodia-labs/searchsync/internal/adapters/driven/search/memory"
	"github.com/custodia-labs/searchsync/internal/adapters/driven/storage/sqlstore"
	"github.com/custodia-labs/searchsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/core/services"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// buildServices loads the configuration at path and wires the engine,
// the database opener and the core services.
func buildServices(_ context.Context, path string) (*cli.Services, error) {
	cfg, err := file.Load(path)
	if err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded %s: %d indices, %d models", cfg.Path(), len(registry.IndexNames()), len(registry.Models()))

	search, err := newSearchEngine(cfg.Search)
	if err != nil {
		return nil, err
	}
	logger.Debug("search engine: %s", cfg.Search.Engine)

	databases := make(map[string]sqlstore.Database, len(cfg.Databases))
	for alias, db := range cfg.Databases {
		databases[alias] = sqlstore.Database{Driver: db.Driver, DSN: db.DSN}
	}
	opener := sqlstore.NewOpener(databases)

	batches := services.NewBatchEngine(search, cfg.EngineConfig())
	return &cli.Services{
		Indices:   services.NewIndexService(registry, search),
		Documents: services.NewDocumentService(registry, search, opener, batches, cfg.DocumentDefaults()),
		Close:     search.Close,
	}, nil
}

func newSearchEngine(cfg file.SearchConfig) (driven.SearchEngine, error) {
	switch cfg.Engine {
	case file.EngineBleve:
		engine, err := bleveindex.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case file.EngineElasticsearch:
		engine, err := elastic.New(elastic.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	case file.EngineMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: search engine %q", domain.ErrUnsupportedType, cfg.Engine)
	}
}
