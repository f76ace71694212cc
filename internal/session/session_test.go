/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchreader/internal/progress"
	"branchreader/internal/story"
	"branchreader/internal/terminal"
)

const cave = `### 1 Gate ###
You stand at the gate. >2>Go left. >3>Go right.
### 2 Hall ###
A long hall. >4>Continue.
### 3 Yard ###
An empty yard. >1>Back to the gate.
### 4 Treasure ###
You found it.
`

func parse(t *testing.T, script string) *story.Collection {
	t.Helper()
	c, err := story.Parse(script)
	require.NoError(t, err)
	return c
}

func TestRunWalksChoicesToTheEnd(t *testing.T) {
	f := terminal.NewFake(24, 60, "3", "1", "2", "4")
	e := New(parse(t, cave), f)

	require.NoError(t, e.Run())
	assert.Equal(t, []int{1, 3, 1, 2, 4}, e.Visited())
	assert.Contains(t, f.Out.String(), "You found it.")
	assert.Contains(t, f.Out.String(), "25.00%")
}

func TestRunAbortsOnMissingStartChapter(t *testing.T) {
	f := terminal.NewFake(24, 60)
	e := New(parse(t, cave), f, WithStart(99))

	err := e.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChapterNotFound))
	assert.Contains(t, err.Error(), "99")
	assert.Empty(t, f.Events, "nothing should be rendered")
	assert.Zero(t, f.Out.Len())
}

func TestRunAbortsOnDanglingChoice(t *testing.T) {
	f := terminal.NewFake(24, 60, "7")
	e := New(parse(t, "### 1 A ###\nA door. >7>Open it.\n"), f)

	err := e.Run()
	assert.True(t, errors.Is(err, ErrChapterNotFound))
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 7, nf.ID)
	assert.Equal(t, []int{1}, e.Visited())
}

func TestRunTerminalContinuation(t *testing.T) {
	t.Run("missing target ends the story", func(t *testing.T) {
		f := terminal.NewFake(24, 60, "")
		e := New(parse(t, "### 1 A ###\nGoodbye. >9>\n"), f)
		require.NoError(t, e.Run())
		assert.Equal(t, []int{1}, e.Visited())
	})
	t.Run("existing target continues", func(t *testing.T) {
		f := terminal.NewFake(24, 60, "")
		e := New(parse(t, "### 1 A ###\nOnwards. >2>\n### 2 B ###\nThe end.\n"), f)
		require.NoError(t, e.Run())
		assert.Equal(t, []int{1, 2}, e.Visited())
		for _, ev := range f.Events {
			assert.NotEqual(t, "read:Choice: ", ev, "no numeric prompt expected")
		}
	})
}

func TestRunReturnsInputErrors(t *testing.T) {
	f := terminal.NewFake(24, 60)
	err := New(parse(t, cave), f).Run()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestRunEmptyCollection(t *testing.T) {
	err := New(story.NewCollection(), terminal.NewFake(24, 60)).Run()
	assert.True(t, errors.Is(err, story.ErrNoChapters))
}

func TestRunUsesEstimatorAndLiveWidth(t *testing.T) {
	f := terminal.NewFake(24, 30, "2", "4")
	f.OnRead = func(f *terminal.Fake) { f.Cols = 40 }
	e := New(parse(t, cave), f, WithEstimator(progress.UniqueVisits{}))

	require.NoError(t, e.Run())
	out := f.Out.String()
	// 30 columns: 10 cells wide, 40 columns: 20 cells wide.
	assert.Contains(t, out, "["+strings.Repeat("█", 2)+strings.Repeat("░", 8)+"] 25.00%")
	assert.Contains(t, out, "["+strings.Repeat("█", 15)+strings.Repeat("░", 5)+"] 75.00%")
}

func TestRunReservedRowsPaginates(t *testing.T) {
	long := "### 1 Long ###\nOne. Two. Three. Four.\n"
	f := terminal.NewFake(12, 60, "", "", "")
	e := New(parse(t, long), f, WithReservedRows(10))

	require.NoError(t, e.Run())
	assert.Equal(t, 2, f.Clears(), "two pages of two lines each")
}
