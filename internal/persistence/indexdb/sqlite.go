package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"figurebuilder.app/internal/catalogs"
	"figurebuilder.app/internal/match"
	"figurebuilder.app/internal/metadata"
	"figurebuilder.app/internal/traits"
)

const schemaVersion = "1"

// SQLiteIndex stores the metadata catalog as one row per explicit trait
// entry, so exact-match queries can run in SQL.
type SQLiteIndex struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalog_documents (
			file TEXT PRIMARY KEY,
			sha256 TEXT NOT NULL,
			body TEXT NOT NULL,
			stored_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			id INTEGER PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS token_traits (
			token_id INTEGER NOT NULL REFERENCES tokens(id) ON DELETE CASCADE,
			trait TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (token_id, trait)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_token_traits_trait_value ON token_traits(trait, value);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Import replaces the stored tokens with the entries of x.
func (s *SQLiteIndex) Import(ctx context.Context, x *metadata.Index) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM token_traits`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens`); err != nil {
		return err
	}
	insertToken, err := tx.PrepareContext(ctx, `INSERT INTO tokens(id) VALUES(?)`)
	if err != nil {
		return err
	}
	defer insertToken.Close()
	insertTrait, err := tx.PrepareContext(ctx, `INSERT INTO token_traits(token_id,trait,value) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer insertTrait.Close()

	var insertErr error
	x.Scan(func(id int, set traits.Set) bool {
		if _, insertErr = insertToken.ExecContext(ctx, id); insertErr != nil {
			return false
		}
		for _, a := range set.Attributes() {
			if _, insertErr = insertTrait.ExecContext(ctx, id, a.TraitType, a.Value); insertErr != nil {
				return false
			}
		}
		return true
	})
	if insertErr != nil {
		return fmt.Errorf("import: %w", insertErr)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	meta := [][2]string{
		{"schema_version", schemaVersion},
		{"metadata_digest", x.Digest},
		{"imported_at", now},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpsertCatalogs records the raw catalog documents of dir with the digests
// c was loaded with.
func (s *SQLiteIndex) UpsertCatalogs(ctx context.Context, dir string, c *catalogs.Catalog) error {
	rows := []struct{ name, digest string }{
		{catalogs.PartsFile, c.PartsDigest},
		{catalogs.ColorsFile, c.ColorsDigest},
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, r := range rows {
		if r.digest == "" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, r.name))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO catalog_documents(file,sha256,body,stored_at) VALUES(?,?,?,?)`, r.name, r.digest, string(b), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Meta returns a value of the meta table, or "" when unset.
func (s *SQLiteIndex) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// LoadIndex reads the stored tokens back into an in-memory index carrying
// the digest of the imported document.
func (s *SQLiteIndex) LoadIndex(ctx context.Context) (*metadata.Index, error) {
	entries := map[int]map[traits.Trait]string{}
	ids, err := s.db.QueryContext(ctx, `SELECT id FROM tokens`)
	if err != nil {
		return nil, err
	}
	for ids.Next() {
		var id int
		if err := ids.Scan(&id); err != nil {
			_ = ids.Close()
			return nil, err
		}
		entries[id] = map[traits.Trait]string{}
	}
	if err := ids.Close(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT token_id, trait, value FROM token_traits`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id      int
			name, v string
		)
		if err := rows.Scan(&id, &name, &v); err != nil {
			return nil, err
		}
		t, ok := traits.Parse(name)
		if !ok {
			continue
		}
		if m, ok := entries[id]; ok {
			m[t] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sets := make(map[int]traits.Set, len(entries))
	for id, m := range entries {
		sets[id] = traits.NewSet(m)
	}
	x := metadata.New(sets)
	if x.Digest, err = s.Meta(ctx, "metadata_digest"); err != nil {
		return nil, err
	}
	return x, nil
}

// MatchIDs returns, in ascending order, the IDs of tokens whose normalized
// value equals the constraint for every trait of constraints. A None
// constraint matches tokens with no entry, an empty entry or an explicit
// None.
func (s *SQLiteIndex) MatchIDs(ctx context.Context, constraints match.Edits) ([]int, error) {
	var (
		where []string
		args  []any
	)
	for _, t := range constraints.Traits() {
		v := constraints[t]
		if v == "" || v == traits.None {
			where = append(where, `NOT EXISTS (SELECT 1 FROM token_traits x WHERE x.token_id = t.id AND x.trait = ? AND x.value NOT IN ('', 'None'))`)
			args = append(args, string(t))
			continue
		}
		where = append(where, `EXISTS (SELECT 1 FROM token_traits x WHERE x.token_id = t.id AND x.trait = ? AND x.value = ?)`)
		args = append(args, string(t), v)
	}
	q := `SELECT t.id FROM tokens t`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY t.id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Find is match.Find evaluated in SQL: the qualifying edits select the
// tokens and the usual ranking orders them.
func (s *SQLiteIndex) Find(ctx context.Context, edits match.Edits, owned []int) ([]match.Match, error) {
	q := match.Qualifying(edits)
	if len(q) == 0 {
		return nil, nil
	}
	ids, err := s.MatchIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	own := make(map[int]bool, len(owned))
	for _, id := range owned {
		own[id] = true
	}
	sets, err := s.sets(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]match.Match, 0, len(ids))
	for _, id := range ids {
		set := sets[id]
		eff := set.Get(traits.Effect)
		out = append(out, match.Match{
			ID:         id,
			Traits:     set,
			Owned:      own[id],
			Effect:     eff,
			EffectRank: match.EffectRank(eff),
		})
	}
	match.Sort(out)
	return out, nil
}

func (s *SQLiteIndex) sets(ctx context.Context, ids []int) (map[int]traits.Set, error) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `SELECT token_id, trait, value FROM token_traits WHERE token_id IN (`+strings.Join(marks, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := map[int]map[traits.Trait]string{}
	for rows.Next() {
		var (
			id      int
			name, v string
		)
		if err := rows.Scan(&id, &name, &v); err != nil {
			return nil, err
		}
		t, ok := traits.Parse(name)
		if !ok {
			continue
		}
		if entries[id] == nil {
			entries[id] = map[traits.Trait]string{}
		}
		entries[id][t] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make(map[int]traits.Set, len(ids))
	for _, id := range ids {
		out[id] = traits.NewSet(entries[id])
	}
	return out, nil
}
