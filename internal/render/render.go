/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render shows a chapter page by page and collects the reader's choice.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"branchreader/internal/story"
	"branchreader/internal/terminal"
)

// Prompts shown to the reader.
const (
	PromptContinue = "Press Enter to continue..."
	PromptChoice   = "Choice: "
	PromptInvalid  = "Invalid choice. Please try again: "
)

// DefaultReservedRows is the number of terminal rows kept free for the
// progress bar, spacing and prompts.
const DefaultReservedRows = 10

// PageHeight returns the number of content lines that fit on one page.
func PageHeight(rows, reserved int) int {
	if h := rows - reserved; h > 1 {
		return h
	}
	return 1
}

// Paginate splits lines into pages of at most height lines. It always
// returns at least one page so that a chapter without prose still gets a
// screen. The result depends only on its arguments.
func Paginate(lines []string, height int) [][]string {
	if height < 1 {
		height = 1
	}
	if len(lines) == 0 {
		return [][]string{{}}
	}
	pages := make([][]string, 0, (len(lines)+height-1)/height)
	for start := 0; start < len(lines); start += height {
		end := min(start+height, len(lines))
		pages = append(pages, lines[start:end:end])
	}
	return pages
}

// Renderer draws chapters on a terminal surface.
type Renderer struct {
	surf     terminal.Surface
	reserved int
	choiceID lipgloss.Style
	bar      lipgloss.Style
}

// New returns a renderer that keeps reservedRows terminal rows free.
// Styles are bound to the surface output, so a terminal gets bold ids and a
// colored bar while plain writers receive plain text.
func New(surf terminal.Surface, reservedRows int) *Renderer {
	if reservedRows < 0 {
		reservedRows = DefaultReservedRows
	}
	lr := lipgloss.NewRenderer(styleOutput(surf))
	return &Renderer{
		surf:     surf,
		reserved: reservedRows,
		choiceID: lr.NewStyle().Bold(true),
		bar:      lr.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// styleOutput returns the stream lipgloss inspects for color support. A
// Console exposes its underlying file, which is what terminal detection needs.
func styleOutput(surf terminal.Surface) io.Writer {
	if o, ok := surf.(interface{ Output() io.Writer }); ok && o.Output() != nil {
		return o.Output()
	}
	return surf
}

// Show renders a chapter with a fixed progress bar and returns the selected
// choice id, or 0 when choices is empty.
func (r *Renderer) Show(bar string, lines []string, choices *story.Choices) (int, error) {
	return r.ShowFunc(func() string { return bar }, lines, choices)
}

// ShowFunc is Show with a bar that is regenerated before every screen, so a
// resized terminal gets a bar of the right width.
//
// The content is paginated against the current terminal height; every page
// but the last waits for Enter. Choices are then listed as "<id>: <text>"
// until the reader enters a valid id. The first choice with empty text is a
// terminal continuation: it is acknowledged with Enter and returned without
// asking for a number.
func (r *Renderer) ShowFunc(bar func() string, lines []string, choices *story.Choices) (int, error) {
	rows, _ := r.surf.Size()
	pages := Paginate(lines, PageHeight(rows, r.reserved))

	for i, page := range pages {
		if err := r.header(bar()); err != nil {
			return 0, err
		}
		for _, line := range page {
			if _, err := fmt.Fprintln(r.surf, line); err != nil {
				return 0, err
			}
		}
		if i < len(pages)-1 {
			if _, err := io.WriteString(r.surf, "\n\n"); err != nil {
				return 0, err
			}
			if _, err := r.surf.ReadLine(PromptContinue); err != nil {
				return 0, err
			}
		}
	}
	if _, err := io.WriteString(r.surf, "\n\n"); err != nil {
		return 0, err
	}

	if choices.Len() == 0 {
		return 0, nil
	}

	prompt := PromptChoice
	for first := true; ; first = false {
		// The last page is still on screen the first time round.
		if !first || len(pages) > 1 {
			if err := r.header(bar()); err != nil {
				return 0, err
			}
		}
		for _, c := range choices.All() {
			if c.Terminal() {
				if _, err := io.WriteString(r.surf, "\n\n"); err != nil {
					return 0, err
				}
				if _, err := r.surf.ReadLine(PromptContinue); err != nil {
					return 0, err
				}
				return c.ID, nil
			}
			if _, err := fmt.Fprintf(r.surf, "\n\t%s: %s\n", r.choiceID.Render(strconv.Itoa(c.ID)), c.Text); err != nil {
				return 0, err
			}
		}
		if _, err := io.WriteString(r.surf, "\n\n"); err != nil {
			return 0, err
		}
		in, err := r.surf.ReadLine(prompt)
		if err != nil {
			return 0, err
		}
		if id, ok := ParseSelection(in, choices); ok {
			return id, nil
		}
		prompt = PromptInvalid
	}
}

func (r *Renderer) header(bar string) error {
	if err := r.surf.Clear(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.surf, "%s\n\n", r.bar.Render(bar))
	return err
}

// ParseSelection accepts a non-negative decimal integer that is a key of choices.
func ParseSelection(in string, choices *story.Choices) (int, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(in), 10, 0)
	if err != nil || n > math.MaxInt {
		return 0, false
	}
	id := int(n)
	if !choices.Has(id) {
		return 0, false
	}
	return id, true
}
