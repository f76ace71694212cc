/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"log/slog"
	"strconv"
	"strings"

	applog "branchreader/internal/log"
)

// CompileChapter turns the raw lines between two chapter markers into a
// Chapter. It returns false when the body is empty or whitespace only, in
// which case the chapter is dropped from the script.
func CompileChapter(id int, title string, raw []string) (Chapter, bool) {
	body := strings.TrimSpace(strings.Join(raw, "\n"))
	if body == "" {
		return Chapter{}, false
	}

	ch := Chapter{
		ID:      id,
		Title:   strings.TrimSpace(title),
		Lines:   []string{},
		Choices: NewChoices(),
	}
	for _, sentence := range SplitSentences(body) {
		s := strings.TrimSpace(sentence)
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, ">") {
			cid, text, ok := ParseChoice(s)
			if !ok {
				applog.WithOperation(applog.WithComponent("story"), "compile").Debug("malformed choice dropped",
					slog.Int("chapter", id), slog.String("directive", s))
				continue
			}
			ch.Choices.Set(cid, text)
			continue
		}
		ch.Lines = append(ch.Lines, s)
	}
	return ch, true
}

// ParseChoice parses a choice directive of the form ">id>text".
// Text may itself contain '>' and may be empty (terminal continuation).
func ParseChoice(sentence string) (id int, text string, ok bool) {
	parts := strings.Split(strings.TrimSpace(sentence), ">")
	if len(parts) < 3 || parts[0] != "" || !isDigits(parts[1]) {
		return 0, "", false
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", false
	}
	return id, strings.TrimSpace(strings.Join(parts[2:], ">")), true
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
