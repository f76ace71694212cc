/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	applog "branchreader/internal/log"
)

var (
	// ErrScriptNotFound is returned by Load when the script file does not exist.
	ErrScriptNotFound = errors.New("script not found")
	// ErrNoChapters is returned when a script compiles to zero chapters.
	ErrNoChapters = errors.New("no chapters found")
	// ErrDuplicateChapter is returned when two chapters share an id and
	// duplicates are not allowed.
	ErrDuplicateChapter = errors.New("duplicate chapter id")
)

// ParseOptions tunes script parsing.
type ParseOptions struct {
	// AllowDuplicateIDs keeps chapters with repeated ids instead of failing.
	// Lookup then resolves to the first of them.
	AllowDuplicateIDs bool
}

// chapterState is the chapter currently being accumulated by the parser.
// It is replaced as a whole on every marker line.
type chapterState struct {
	id    int
	open  bool // false until a marker with a numeric id was seen
	title string
	line  int
	lines []string
}

func (s chapterState) compile() (Chapter, bool) {
	if !s.open {
		return Chapter{}, false
	}
	ch, ok := CompileChapter(s.id, s.title, s.lines)
	ch.Line = s.line
	return ch, ok
}

// Parse compiles a full script, rejecting duplicate chapter ids.
func Parse(text string) (*Collection, error) {
	return ParseWithOptions(text, ParseOptions{})
}

// ParseWithOptions compiles a full script into a chapter collection.
//
// Syntax:
//   - A line that, once trimmed, starts and ends with "###" is a chapter marker.
//     The first all-digit token is the chapter id; the other tokens form the title.
//   - Markers without a numeric token open no chapter; the text up to the next
//     marker is discarded.
//   - Everything else is chapter body, compiled by CompileChapter.
func ParseWithOptions(text string, opts ParseOptions) (*Collection, error) {
	l := applog.WithOperation(applog.WithComponent("story"), "parse")

	var (
		chapters []Chapter
		seen     = map[int]int{} // chapter id -> marker line
		cur      chapterState
	)
	finalize := func(s chapterState) error {
		ch, ok := s.compile()
		if !ok {
			if s.open {
				l.Debug("empty chapter dropped", slog.Int("chapter", s.id), slog.Int("line", s.line))
			}
			return nil
		}
		if first, dup := seen[ch.ID]; dup {
			if !opts.AllowDuplicateIDs {
				return fmt.Errorf("%w: %d (lines %d and %d)", ErrDuplicateChapter, ch.ID, first, ch.Line)
			}
			l.Warn("duplicate chapter id shadowed", slog.Int("chapter", ch.ID), slog.Int("line", ch.Line))
		} else {
			seen[ch.ID] = ch.Line
		}
		chapters = append(chapters, ch)
		return nil
	}

	for i, line := range strings.Split(normalizeNewlines(text), "\n") {
		if !IsMarker(line) {
			if cur.open {
				cur.lines = append(cur.lines, line)
			}
			continue
		}
		if err := finalize(cur); err != nil {
			return nil, err
		}
		id, title, ok := ParseMarker(line)
		if !ok {
			l.Debug("marker without chapter id", slog.Int("line", i+1), slog.String("marker", strings.TrimSpace(line)))
		}
		cur = chapterState{id: id, open: ok, title: title, line: i + 1}
	}
	if err := finalize(cur); err != nil {
		return nil, err
	}

	c := NewCollection(chapters...)
	if c.Len() == 0 {
		return c, ErrNoChapters
	}
	l.Debug("script parsed", slog.Int("chapters", c.Len()))
	return c, nil
}

// IsMarker reports whether line is a chapter marker.
func IsMarker(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "###") && strings.HasSuffix(t, "###")
}

// ParseMarker extracts the chapter id and title from a marker line.
// ok is false when the marker carries no numeric token.
func ParseMarker(line string) (id int, title string, ok bool) {
	fields := strings.Fields(strings.Trim(strings.TrimSpace(line), "# "))
	titleParts := make([]string, 0, len(fields))
	for _, f := range fields {
		if isDigits(f) {
			if !ok {
				if n, err := strconv.Atoi(f); err == nil {
					id, ok = n, true
				}
			}
			continue
		}
		titleParts = append(titleParts, f)
	}
	return id, strings.Join(titleParts, " "), ok
}

// Load reads a UTF-8 script file and compiles it.
func Load(path string, opts ParseOptions) (*Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrScriptNotFound, path, err)
		}
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseWithOptions(strings.TrimPrefix(string(b), "\ufeff"), opts)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
