/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package terminal abstracts the console the reading session runs in.
// Everything the session needs from the process terminal goes through Surface
// so tests can drive a session with Fake.
package terminal

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Surface is the terminal capability used by the renderer and the session.
type Surface interface {
	io.Writer
	// Clear erases the screen and homes the cursor.
	Clear() error
	// Size returns the current terminal size. It is read fresh on every call.
	Size() (rows, cols int)
	// ReadLine prints prompt and blocks until a full line was entered.
	// The trailing line break is removed.
	ReadLine(prompt string) (string, error)
}

// Fallback size used when the output is not a terminal.
const (
	DefaultRows = 24
	DefaultCols = 80
)

// clearSequence homes the cursor, erases the screen and the scrollback.
const clearSequence = "\x1b[H\x1b[2J\x1b[3J"

// Console is a Surface backed by real file descriptors.
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	fd      int
	tty     bool
	getSize func(fd int) (width, height int, err error)
}

// NewConsole binds a console to the process stdin and stdout.
func NewConsole() *Console {
	return NewConsoleFrom(os.Stdin, os.Stdout)
}

// NewConsoleFrom binds a console to arbitrary streams. Size is queried from
// out when it is a terminal file.
func NewConsoleFrom(in io.Reader, out io.Writer) *Console {
	c := &Console{in: bufio.NewReader(in), out: out, fd: -1, getSize: term.GetSize}
	if f, ok := out.(*os.File); ok {
		c.fd = int(f.Fd())
		c.tty = term.IsTerminal(c.fd)
	}
	return c
}

func (c *Console) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c *Console) Clear() error {
	_, err := io.WriteString(c.out, clearSequence)
	return err
}

// Size asks the terminal first, so a resize is seen on the next call.
// LINES and COLUMNS fill in when out is not a terminal, and
// DefaultRows x DefaultCols after that.
func (c *Console) Size() (rows, cols int) {
	if c.tty {
		if w, h, err := c.getSize(c.fd); err == nil {
			rows, cols = h, w
		}
	}
	if rows <= 0 {
		rows = envInt("LINES")
	}
	if cols <= 0 {
		cols = envInt("COLUMNS")
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	return rows, cols
}

// Output returns the stream the console writes to. Styling checks it for a
// terminal.
func (c *Console) Output() io.Writer { return c.out }

func (c *Console) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		if _, err := io.WriteString(c.out, prompt); err != nil {
			return "", err
		}
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func envInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
