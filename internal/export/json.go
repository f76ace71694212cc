/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes compiled stories to other formats: a JSON document
// validated against an embedded schema, and a printable PDF gamebook.
package export

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"branchreader/internal/story"
)

//go:embed story.schema.json
var storySchema []byte

// Format identifies JSON documents written by WriteJSON.
const (
	Format        = "branchreader/story"
	FormatVersion = 1
)

// ErrInvalidDocument is returned when a document does not match the schema.
var ErrInvalidDocument = errors.New("story document does not match schema")

type StoryDocument struct {
	Format   string        `json:"format"`
	Version  int           `json:"version"`
	Start    int           `json:"start"`
	Chapters []ChapterJSON `json:"chapters"`
}

type ChapterJSON struct {
	ID      int          `json:"id"`
	Title   string       `json:"title"`
	Line    int          `json:"line,omitempty"`
	Lines   []string     `json:"lines"`
	Choices []ChoiceJSON `json:"choices"`
}

type ChoiceJSON struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Terminal bool   `json:"terminal"`
}

// Document converts a collection into its JSON shape.
func Document(c *story.Collection) StoryDocument {
	doc := StoryDocument{Format: Format, Version: FormatVersion, Chapters: []ChapterJSON{}}
	if first, ok := c.First(); ok {
		doc.Start = first.ID
	}
	for _, ch := range c.Chapters() {
		cj := ChapterJSON{
			ID:      ch.ID,
			Title:   ch.Title,
			Line:    ch.Line,
			Lines:   append([]string{}, ch.Lines...),
			Choices: []ChoiceJSON{},
		}
		for _, choice := range ch.Choices.All() {
			cj.Choices = append(cj.Choices, ChoiceJSON{ID: choice.ID, Text: choice.Text, Terminal: choice.Terminal()})
		}
		doc.Chapters = append(doc.Chapters, cj)
	}
	return doc
}

// MarshalJSON encodes the collection and validates the result against the schema.
func MarshalJSON(c *story.Collection) ([]byte, error) {
	data, err := json.MarshalIndent(Document(c), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode story: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Validate checks a JSON story document against the embedded schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(storySchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate story: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}

// WriteJSON writes the collection as a JSON document to outPath.
func WriteJSON(c *story.Collection, outPath string) error {
	data, err := MarshalJSON(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
