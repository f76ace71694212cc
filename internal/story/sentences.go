/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import "strings"

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }

// SplitSentences splits text into trimmed sentences.
// Terminators (. ! ?) inside double quotes never split, and a run of
// terminators such as "..." or "?!" splits once, after the run. Newlines
// inside quotes are removed so dialogue spanning source lines stays together.
// A trailing fragment without terminator is kept when it is not blank.
func SplitSentences(text string) []string {
	merged := joinQuotedLines(text)

	var (
		out      []string
		cur      strings.Builder
		inQuotes bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for i, r := range merged {
		cur.WriteRune(r)
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case isTerminator(r) && !inQuotes:
			if i+1 < len(merged) && isTerminator(merged[i+1]) {
				continue
			}
			flush()
		}
	}
	flush()
	return out
}

// joinQuotedLines drops newlines that occur while a double quote is open.
func joinQuotedLines(text string) []rune {
	out := make([]rune, 0, len(text))
	inQuotes := false
	for _, r := range text {
		if r == '"' {
			inQuotes = !inQuotes
		}
		if r == '\n' && inQuotes {
			continue
		}
		out = append(out, r)
	}
	return out
}
