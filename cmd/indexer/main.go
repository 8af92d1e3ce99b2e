// Command indexer converts a metadata document into the server's other
// storage forms: a SQLite index and/or a zstd-compressed JSON document.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/metadata"
	"figurebuilder.app/internal/persistence/indexdb"
)

func main() {
	var (
		in         = flag.String("in", "./configs/metadata.json", "metadata document (.json or .json.zst)")
		sqlitePath = flag.String("sqlite", "", "write a SQLite index to this path")
		zstPath    = flag.String("zst", "", "write a zstd-compressed copy to this path")
		configDir  = flag.String("configs", "", "catalog directory to record alongside the SQLite index (optional)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lmicroseconds)
	if *sqlitePath == "" && *zstPath == "" {
		logger.Fatalf("nothing to do: pass -sqlite and/or -zst")
	}

	x, err := metadata.Load(*in)
	if err != nil {
		logger.Fatalf("load metadata: %v", err)
	}
	logger.Printf("loaded %s tokens from %s (digest %s)", humanize.Comma(int64(x.Len())), *in, short(x.Digest))

	if *zstPath != "" {
		if !strings.HasSuffix(*zstPath, ".zst") {
			logger.Fatalf("-zst path must end in .zst")
		}
		if err := metadata.WriteFile(*zstPath, x); err != nil {
			logger.Fatalf("write %s: %v", *zstPath, err)
		}
		logger.Printf("wrote %s (%s)", *zstPath, fileSize(*zstPath))
	}

	if *sqlitePath != "" {
		ctx := context.Background()
		db, err := indexdb.OpenSQLite(*sqlitePath)
		if err != nil {
			logger.Fatalf("open sqlite: %v", err)
		}
		defer db.Close()
		if err := db.Import(ctx, x); err != nil {
			logger.Fatalf("import: %v", err)
		}
		if *configDir != "" {
			cat, err := catalogs.Load(*configDir)
			if err != nil {
				logger.Fatalf("load catalogs: %v", err)
			}
			if err := db.UpsertCatalogs(ctx, *configDir, cat); err != nil {
				logger.Fatalf("record catalogs: %v", err)
			}
		}
		logger.Printf("wrote %s (%s)", *sqlitePath, fileSize(*sqlitePath))
	}
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func fileSize(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(fi.Size()))
}
