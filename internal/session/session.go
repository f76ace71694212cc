/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session drives a reading session: it walks the chapter graph,
// rendering one chapter at a time and following the reader's choices.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	applog "branchreader/internal/log"
	"branchreader/internal/progress"
	"branchreader/internal/render"
	"branchreader/internal/story"
	"branchreader/internal/terminal"
)

// ErrChapterNotFound is returned when the next chapter id is not in the script.
var ErrChapterNotFound = errors.New("chapter not found")

// NotFoundError carries the id that could not be resolved.
// It matches ErrChapterNotFound with errors.Is.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%v: %d", ErrChapterNotFound, e.ID) }

func (e *NotFoundError) Unwrap() error { return ErrChapterNotFound }

// Engine owns the navigation cursor of one session.
type Engine struct {
	chapters  *story.Collection
	surf      terminal.Surface
	estimator progress.Estimator
	reserved  int
	start     int
	hasStart  bool

	// cursor
	next    int
	visited []int

	log *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEstimator replaces the default linear progress estimator.
func WithEstimator(e progress.Estimator) Option {
	return func(en *Engine) {
		if e != nil {
			en.estimator = e
		}
	}
}

// WithReservedRows sets the number of terminal rows kept free around the text.
func WithReservedRows(n int) Option {
	return func(en *Engine) { en.reserved = n }
}

// WithStart starts the session at id instead of the first chapter.
func WithStart(id int) Option {
	return func(en *Engine) { en.start, en.hasStart = id, true }
}

// New creates a session over chapters rendered on surf.
func New(chapters *story.Collection, surf terminal.Surface, opts ...Option) *Engine {
	e := &Engine{
		chapters:  chapters,
		surf:      surf,
		estimator: progress.Linear{},
		reserved:  render.DefaultReservedRows,
		log:       applog.WithComponent("session"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run reads the story until it ends. It returns nil when the reader reaches
// a chapter without choices or a terminal continuation that leads nowhere.
// A choice that names a missing chapter stops the session with
// ErrChapterNotFound; input errors such as io.EOF are returned as is.
func (e *Engine) Run() error {
	first, ok := e.chapters.First()
	if !ok {
		return story.ErrNoChapters
	}
	e.next = first.ID
	if e.hasStart {
		e.next = e.start
	}
	e.visited = e.visited[:0]
	r := render.New(e.surf, e.reserved)

	for {
		ch, ok := e.chapters.Lookup(e.next)
		if !ok {
			e.log.Error("chapter not found", slog.Int("chapter", e.next), slog.Int("visited", len(e.visited)))
			return &NotFoundError{ID: e.next}
		}
		e.visited = append(e.visited, ch.ID)
		e.log.Debug("render chapter", slog.Int("chapter", ch.ID), slog.String("title", ch.Title), slog.Int("step", len(e.visited)))

		pct := e.estimator.Estimate(e.visited, e.chapters)
		bar := func() string {
			_, cols := e.surf.Size()
			return progress.Bar(pct, cols)
		}
		selected, err := r.ShowFunc(bar, ch.Lines, ch.Choices)
		if err != nil {
			return err
		}

		if ch.Choices.Len() == 0 {
			e.log.Info("story finished", slog.Int("chapter", ch.ID), slog.Int("visited", len(e.visited)))
			return nil
		}
		if text, _ := ch.Choices.Get(selected); text == "" {
			if _, exists := e.chapters.Lookup(selected); !exists {
				e.log.Info("story finished", slog.Int("chapter", ch.ID), slog.Int("continuation", selected))
				return nil
			}
		}
		e.next = selected
	}
}

// Visited returns the ids of the chapters shown so far, in order.
func (e *Engine) Visited() []int {
	return append([]int(nil), e.visited...)
}
