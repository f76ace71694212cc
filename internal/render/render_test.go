/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"errors"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchreader/internal/story"
	"branchreader/internal/terminal"
)

func choices(pairs ...any) *story.Choices {
	c := story.NewChoices()
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Set(pairs[i].(int), pairs[i+1].(string))
	}
	return c
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strings.Repeat("x", i+1) + "."
	}
	return out
}

func TestPageHeight(t *testing.T) {
	assert.Equal(t, 14, PageHeight(24, 10))
	assert.Equal(t, 1, PageHeight(10, 10))
	assert.Equal(t, 1, PageHeight(3, 10))
}

func TestPaginate(t *testing.T) {
	lines := numbered(25)
	pages := Paginate(lines, 10)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 10)
	assert.Len(t, pages[2], 5)
	assert.Equal(t, lines[20:], pages[2])

	assert.Len(t, Paginate(numbered(20), 10), 2)
	assert.Equal(t, [][]string{{}}, Paginate(nil, 10))
	assert.Len(t, Paginate(numbered(3), 0), 3)
}

func TestPaginateIsStable(t *testing.T) {
	lines := numbered(37)
	first := Paginate(lines, PageHeight(17, 10))
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, Paginate(lines, PageHeight(17, 10))) {
			t.Fatalf("page boundaries changed between calls")
		}
	}
}

func TestShowSinglePageRetriesInvalidInput(t *testing.T) {
	f := terminal.NewFake(24, 80, "9", "abc", "-1", "2")
	r := New(f, 10)

	id, err := r.Show("[bar]", []string{"You arrive."}, choices(1, "Stay.", 2, "Leave."))
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	assert.Equal(t, []string{
		"clear",
		"read:" + PromptChoice,
		"clear",
		"read:" + PromptInvalid,
		"clear",
		"read:" + PromptInvalid,
		"clear",
		"read:" + PromptInvalid,
	}, f.Events)

	out := f.Out.String()
	assert.Contains(t, out, "[bar]")
	assert.Contains(t, out, "You arrive.")
	assert.Contains(t, out, "\t1: Stay.")
	assert.Contains(t, out, "\t2: Leave.")
}

func TestShowPaginatesLongChapters(t *testing.T) {
	f := terminal.NewFake(12, 80, "", "", " 1 ")
	r := New(f, 10)

	id, err := r.Show("[bar]", numbered(5), choices(1, "On."))
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, []string{
		"clear", "read:" + PromptContinue,
		"clear", "read:" + PromptContinue,
		"clear",
		"clear", "read:" + PromptChoice,
	}, f.Events)
}

func TestShowTerminalContinuationShortCircuits(t *testing.T) {
	f := terminal.NewFake(24, 80, "")
	r := New(f, 10)

	id, err := r.Show("[bar]", []string{"The end is near."}, choices(1, "Run.", 5, "", 2, "Hide."))
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	assert.Equal(t, []string{"clear", "read:" + PromptContinue}, f.Events)
	assert.Contains(t, f.Out.String(), "1: Run.")
	assert.NotContains(t, f.Out.String(), "Hide.")
}

func TestShowWithoutChoicesReturnsZero(t *testing.T) {
	f := terminal.NewFake(24, 80)
	id, err := New(f, 10).Show("[bar]", []string{"Fin."}, story.NewChoices())
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	assert.Equal(t, []string{"clear"}, f.Events)
}

func TestShowPropagatesInputErrors(t *testing.T) {
	f := terminal.NewFake(24, 80)
	_, err := New(f, 10).Show("[bar]", []string{"Hm."}, choices(1, "Go."))
	assert.True(t, errors.Is(err, io.EOF), "expected io.EOF, got %v", err)
}

func TestShowFuncRegeneratesBar(t *testing.T) {
	f := terminal.NewFake(24, 80, "x", "1")
	calls := 0
	_, err := New(f, 10).ShowFunc(func() string {
		calls++
		return "[bar]"
	}, []string{"Hm."}, choices(1, "Go."))
	require.NoError(t, err)
	// one page, then a redraw after the invalid input
	assert.Equal(t, 2, calls)
}

func TestParseSelection(t *testing.T) {
	c := choices(0, "zero", 3, "three")
	for in, want := range map[string]int{"3": 3, " 0 ": 0, "03": 3} {
		id, ok := ParseSelection(in, c)
		assert.True(t, ok, in)
		assert.Equal(t, want, id, in)
	}
	for _, in := range []string{"", "4", "+3", "-3", "3.0", "three", "99999999999999999999999"} {
		_, ok := ParseSelection(in, c)
		assert.False(t, ok, in)
	}
}

func TestStyleOutputUsesConsoleStream(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	c := terminal.NewConsoleFrom(strings.NewReader(""), f)
	assert.True(t, styleOutput(c) == io.Writer(f), "console styles must probe the wrapped file")

	fake := terminal.NewFake(24, 80)
	assert.True(t, styleOutput(fake) == io.Writer(fake))
}

func TestConsoleStylesRenderWhenColorIsAvailable(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")

	var out bytes.Buffer
	r := New(terminal.NewConsoleFrom(strings.NewReader(""), &out), 10)
	assert.Equal(t, "\x1b[1m7\x1b[0m", r.choiceID.Render("7"))
	assert.Contains(t, r.bar.Render("[bar]"), "\x1b[")
}

func TestPlainWriterGetsPlainText(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "")
	t.Setenv("CI", "")
	f := terminal.NewFake(24, 80)
	assert.Equal(t, "7", New(f, 10).choiceID.Render("7"))
}
