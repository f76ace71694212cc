/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const defaultLimit = 100

// Query describes a full-text search over indexed chapters.
// An empty Text lists every chapter in script order.
type Query struct {
	Text   string
	Limit  int
	Offset int
}

// Result is one matching chapter.
type Result struct {
	ChapterID int
	Title     string
	Line      int
	Snippet   string
}

// Link is a choice in one chapter pointing at another.
type Link struct {
	FromID    int
	FromTitle string
	Text      string
	Terminal  bool
}

// Search runs q against the FTS table. Matches in the title or the text count.
func Search(ctx context.Context, db *sql.DB, q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	text := strings.TrimSpace(q.Text)

	var (
		rows *sql.Rows
		err  error
	)
	if text == "" {
		rows, err = db.QueryContext(ctx, `SELECT chapter_id, title, line, '' FROM chapters ORDER BY seq LIMIT ? OFFSET ?`, limit, offset)
	} else {
		rows, err = db.QueryContext(ctx, `SELECT c.chapter_id, c.title, c.line, snippet(fts_chapters, -1, '[', ']', '...', 12)
			FROM fts_chapters JOIN chapters c ON c.seq = fts_chapters.rowid
			WHERE fts_chapters MATCH ?
			ORDER BY rank, c.seq
			LIMIT ? OFFSET ?`, ftsQuery(text), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r       Result
			line    sql.NullInt64
			snippet sql.NullString
		)
		if err := rows.Scan(&r.ChapterID, &r.Title, &line, &snippet); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Line = int(line.Int64)
		r.Snippet = strings.ReplaceAll(snippet.String, "\n", " ")
		out = append(out, r)
	}
	return out, rows.Err()
}

// ftsQuery quotes every term so user input never hits FTS5 query syntax.
func ftsQuery(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

// LinksTo lists the choices across the story that lead to chapterID,
// in script order.
func LinksTo(ctx context.Context, db *sql.DB, chapterID int) ([]Link, error) {
	rows, err := db.QueryContext(ctx, `SELECT c.chapter_id, c.title, ch.text, ch.terminal
		FROM choices ch JOIN chapters c ON c.seq = ch.from_seq
		WHERE ch.target_id = ?
		ORDER BY ch.from_seq, ch.position`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("links: %w", err)
	}
	defer rows.Close()
	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.FromID, &l.FromTitle, &l.Text, &l.Terminal); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
