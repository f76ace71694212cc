/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package terminal

import (
	"bytes"
	"io"
)

// Fake is an in-memory Surface for tests. Inputs are consumed one per
// ReadLine; once they run out ReadLine returns io.EOF. Events records
// "clear" and "read:<prompt>" in call order.
type Fake struct {
	Rows, Cols int
	Inputs     []string
	Out        bytes.Buffer
	Events     []string
	// OnRead, when set, runs before each ReadLine returns, e.g. to resize.
	OnRead func(f *Fake)
}

// NewFake returns a fake terminal of the given size fed with inputs.
func NewFake(rows, cols int, inputs ...string) *Fake {
	return &Fake{Rows: rows, Cols: cols, Inputs: inputs}
}

func (f *Fake) Write(p []byte) (int, error) { return f.Out.Write(p) }

func (f *Fake) Clear() error {
	f.Events = append(f.Events, "clear")
	return nil
}

func (f *Fake) Size() (rows, cols int) { return f.Rows, f.Cols }

func (f *Fake) ReadLine(prompt string) (string, error) {
	f.Out.WriteString(prompt)
	f.Events = append(f.Events, "read:"+prompt)
	if f.OnRead != nil {
		f.OnRead(f)
	}
	if len(f.Inputs) == 0 {
		return "", io.EOF
	}
	line := f.Inputs[0]
	f.Inputs = f.Inputs[1:]
	return line, nil
}

// Clears counts the Clear calls so far.
func (f *Fake) Clears() int {
	n := 0
	for _, e := range f.Events {
		if e == "clear" {
			n++
		}
	}
	return n
}
