package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/config"
	"figurebuilder.app/internal/metadata"
	"figurebuilder.app/internal/persistence/indexdb"
)

// openMetadata loads the metadata index from the configured backend. The
// sqlite backend imports the JSON document first when the database is empty
// or the document changed since the last import.
func openMetadata(ctx context.Context, cfg config.Config, cat *catalogs.Catalog, logger *log.Logger) (*metadata.Index, error) {
	switch cfg.Metadata.Backend {
	case config.BackendJSON:
		return metadata.Load(cfg.Metadata.Path)
	case config.BackendSQLite:
		db, err := indexdb.OpenSQLite(cfg.Metadata.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		if cfg.Metadata.Path != "" {
			if _, err := os.Stat(cfg.Metadata.Path); err == nil {
				src, err := metadata.Load(cfg.Metadata.Path)
				if err != nil {
					return nil, err
				}
				have, err := db.Meta(ctx, "metadata_digest")
				if err != nil {
					return nil, err
				}
				if have != src.Digest {
					logger.Printf("importing %s into %s (%d tokens)", cfg.Metadata.Path, cfg.Metadata.SQLitePath, src.Len())
					if err := db.Import(ctx, src); err != nil {
						return nil, err
					}
				}
			}
		}
		if err := db.UpsertCatalogs(ctx, cfg.CatalogDir, cat); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
		return db.LoadIndex(ctx)
	default:
		return nil, fmt.Errorf("unsupported metadata backend: %s", cfg.Metadata.Backend)
	}
}
