/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"reflect"
	"testing"
)

func TestSplitSentencesKeepsQuotedRunTogether(t *testing.T) {
	got := SplitSentences(`He said. "Stop! Now." and left.`)
	want := []string{"He said.", `"Stop! Now." and left.`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
}

func TestSplitSentencesTerminatorRuns(t *testing.T) {
	got := SplitSentences("Wait... What?! Fine.")
	want := []string{"Wait...", "What?!", "Fine."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
}

func TestSplitSentencesJoinsDialogueAcrossLines(t *testing.T) {
	got := SplitSentences("She whispered \"come\nhere. now\" and waited.\nThe door opened.")
	want := []string{`She whispered "comehere. now" and waited.`, "The door opened."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
}

func TestSplitSentencesFlushesTrailingFragment(t *testing.T) {
	got := SplitSentences("First. and then nothing")
	want := []string{"First.", "and then nothing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
	if got := SplitSentences("Done.   \n  "); !reflect.DeepEqual(got, []string{"Done."}) {
		t.Fatalf("blank trailing fragment kept: %q", got)
	}
	if got := SplitSentences(""); len(got) != 0 {
		t.Fatalf("empty text produced sentences: %q", got)
	}
}

func TestSplitSentencesUnicode(t *testing.T) {
	got := SplitSentences("Über alles. Ça va?")
	want := []string{"Über alles.", "Ça va?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
}
