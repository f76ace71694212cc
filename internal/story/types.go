/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package story compiles a plain-text branching script into chapters.
//
// A script is a sequence of chapter markers ("### 3 The Vault ###") each
// followed by prose. Prose is split into sentences; sentences of the form
// ">id>text" become choices instead of narrative lines.
package story

// Chapter is a single compiled section of a script.
type Chapter struct {
	ID      int
	Title   string
	Lines   []string // one entry per sentence, in narrative order
	Choices *Choices
	Line    int // 1-based line number of the chapter marker in the source
}

// Continuations returns the choices a reader can leave the chapter through.
// A terminal continuation is taken without prompting, so when one is present
// it is the only continuation.
func (ch Chapter) Continuations() []Choice {
	all := ch.Choices.All()
	for _, c := range all {
		if c.Terminal() {
			return []Choice{c}
		}
	}
	return all
}

// Choice is one numbered continuation offered at the end of a chapter.
type Choice struct {
	ID   int
	Text string
}

// Terminal reports whether the choice is a terminal continuation, i.e. a
// directive with empty text that ends the prompt without asking for input.
func (c Choice) Terminal() bool { return c.Text == "" }

// Choices is an insertion-ordered map from choice id to choice text.
// Setting an id twice overwrites the text but keeps the first position.
// A nil *Choices behaves as an empty set.
type Choices struct {
	order []int
	text  map[int]string
}

// NewChoices returns an empty choice set.
func NewChoices() *Choices {
	return &Choices{text: map[int]string{}}
}

// Set stores text for id.
func (c *Choices) Set(id int, text string) {
	if _, ok := c.text[id]; !ok {
		c.order = append(c.order, id)
	}
	c.text[id] = text
}

// Get returns the text stored for id.
func (c *Choices) Get(id int) (string, bool) {
	if c == nil {
		return "", false
	}
	t, ok := c.text[id]
	return t, ok
}

// Has reports whether id is a valid choice.
func (c *Choices) Has(id int) bool {
	_, ok := c.Get(id)
	return ok
}

func (c *Choices) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// All returns the choices in order of first appearance.
func (c *Choices) All() []Choice {
	if c == nil {
		return nil
	}
	out := make([]Choice, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Choice{ID: id, Text: c.text[id]})
	}
	return out
}

// Collection is the ordered, read-only set of chapters compiled from a script.
type Collection struct {
	chapters []Chapter
	byID     map[int]int
}

// NewCollection indexes chapters by id. When ids repeat, lookup resolves to
// the first chapter carrying the id.
func NewCollection(chapters ...Chapter) *Collection {
	c := &Collection{
		chapters: append([]Chapter(nil), chapters...),
		byID:     make(map[int]int, len(chapters)),
	}
	for i, ch := range c.chapters {
		if _, ok := c.byID[ch.ID]; !ok {
			c.byID[ch.ID] = i
		}
	}
	return c
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.chapters)
}

// Chapters returns the chapters in source order.
func (c *Collection) Chapters() []Chapter {
	if c == nil {
		return nil
	}
	return append([]Chapter(nil), c.chapters...)
}

// Lookup finds a chapter by id.
func (c *Collection) Lookup(id int) (Chapter, bool) {
	if c == nil {
		return Chapter{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Chapter{}, false
	}
	return c.chapters[i], true
}

// First returns the chapter the reading session starts with.
func (c *Collection) First() (Chapter, bool) {
	if c.Len() == 0 {
		return Chapter{}, false
	}
	return c.chapters[0], true
}
