/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package index maintains an embedded SQLite index of a compiled story.
// It stores chapters and choice links and feeds an FTS5 table for full-text
// search. The index is derived from the script and can be rebuilt at any time.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "branchreader/internal/log"
	"branchreader/internal/story"
	"branchreader/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the SQLite schema. Bump it together with a step in
// runMigrations.
const schemaVersion = 2

// Open creates or opens the index database at path, enables WAL mode and
// brings the schema up to date.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("index"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	for _, step := range []func(context.Context, *sql.DB) error{ensureMetaAndVersion, ensureSchema, runMigrations} {
		if err := step(ctx, db); err != nil {
			_ = db.Close()
			l.Error("prepare schema failed", slog.Any("err", err))
			return nil, err
		}
	}
	l.Debug("index ready")
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh database: start at 1 and let runMigrations walk forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// seq keeps source order and tolerates repeated chapter ids.
		`CREATE TABLE IF NOT EXISTS chapters (
			seq        INTEGER PRIMARY KEY,
			chapter_id INTEGER NOT NULL,
			title      TEXT    NOT NULL,
			line       INTEGER,
			text       TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chapters_id ON chapters(chapter_id);`,
		`CREATE TABLE IF NOT EXISTS choices (
			from_seq  INTEGER NOT NULL,
			position  INTEGER NOT NULL,
			target_id INTEGER NOT NULL,
			text      TEXT    NOT NULL,
			terminal  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY(from_seq, position),
			FOREIGN KEY(from_seq) REFERENCES chapters(seq) ON DELETE CASCADE
		);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_chapters USING fts5(
			title,
			text,
			content='chapters',
			content_rowid='seq',
			tokenize = 'unicode61'
		);`,
		`CREATE TRIGGER IF NOT EXISTS chapters_ai AFTER INSERT ON chapters BEGIN
			INSERT INTO fts_chapters(rowid, title, text) VALUES (new.seq, new.title, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS chapters_ad AFTER DELETE ON chapters BEGIN
			INSERT INTO fts_chapters(fts_chapters, rowid, title, text) VALUES ('delete', old.seq, old.title, old.text);
		END;`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_choices_target ON choices(target_id);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in db.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// Build replaces the indexed content with the chapters of c.
// source is recorded in the meta table for reference.
func Build(ctx context.Context, db *sql.DB, c *story.Collection, source string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func(err error) error {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM choices;"); err != nil {
		return rollback(fmt.Errorf("clear choices: %w", err))
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters;"); err != nil {
		return rollback(fmt.Errorf("clear chapters: %w", err))
	}
	insChapter, err := tx.PrepareContext(ctx, "INSERT INTO chapters(seq, chapter_id, title, line, text) VALUES(?,?,?,?,?);")
	if err != nil {
		return rollback(fmt.Errorf("prepare chapter insert: %w", err))
	}
	defer insChapter.Close()
	insChoice, err := tx.PrepareContext(ctx, "INSERT INTO choices(from_seq, position, target_id, text, terminal) VALUES(?,?,?,?,?);")
	if err != nil {
		return rollback(fmt.Errorf("prepare choice insert: %w", err))
	}
	defer insChoice.Close()

	for i, ch := range c.Chapters() {
		seq := i + 1
		line := sql.NullInt64{Int64: int64(ch.Line), Valid: ch.Line > 0}
		if _, err := insChapter.ExecContext(ctx, seq, ch.ID, ch.Title, line, strings.Join(ch.Lines, "\n")); err != nil {
			return rollback(fmt.Errorf("insert chapter %d: %w", ch.ID, err))
		}
		for pos, choice := range ch.Choices.All() {
			if _, err := insChoice.ExecContext(ctx, seq, pos, choice.ID, choice.Text, choice.Terminal()); err != nil {
				return rollback(fmt.Errorf("insert choice %d of chapter %d: %w", choice.ID, ch.ID, err))
			}
		}
	}
	meta := map[string]string{
		"source":     source,
		"indexed_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, k, v); err != nil {
			return rollback(fmt.Errorf("write meta: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// BuildFile opens the index at path, rebuilds it from c and closes it.
func BuildFile(ctx context.Context, path string, c *story.Collection, source string) error {
	db, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()
	return Build(ctx, db, c, source)
}

// Meta returns a value from the meta table, "" when absent.
func Meta(ctx context.Context, db *sql.DB, key string) (string, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// Info describes an index for display.
type Info struct {
	Source    string
	IndexedAt string
	Schema    int
}

// Describe reads the recorded source, build time and schema version.
func Describe(ctx context.Context, db *sql.DB) (Info, error) {
	var (
		info Info
		err  error
	)
	if info.Schema, err = SchemaVersion(ctx, db); err != nil {
		return info, fmt.Errorf("read schema version: %w", err)
	}
	if info.Source, err = Meta(ctx, db, "source"); err != nil {
		return info, fmt.Errorf("read meta: %w", err)
	}
	if info.IndexedAt, err = Meta(ctx, db, "indexed_at"); err != nil {
		return info, fmt.Errorf("read meta: %w", err)
	}
	return info, nil
}
