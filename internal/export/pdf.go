/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"branchreader/internal/story"
)

// PDFOptions controls the printable gamebook.
// Units are millimetres on A4 unless PageSize says otherwise.
// Text uses the built-in Helvetica font, so characters outside cp1252 are
// replaced.
type PDFOptions struct {
	Title             string
	Author            string
	PageSize          string // gofpdf size name, "A4" when empty
	OneChapterPerPage bool
}

// WritePDF renders the collection as a gamebook: one numbered section per
// chapter, each choice printed as "turn to N" with an internal link.
func WritePDF(c *story.Collection, w io.Writer, opt PDFOptions) error {
	if c.Len() == 0 {
		return story.ErrNoChapters
	}
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}
	pdf := gofpdf.New("P", "mm", size, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetCreator("branchreader", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	chapters := c.Chapters()
	links := make(map[int]int, len(chapters))
	for _, ch := range chapters {
		if _, ok := links[ch.ID]; !ok {
			links[ch.ID] = pdf.AddLink()
		}
	}

	pdf.AddPage()
	if opt.Title != "" {
		pdf.SetFont("Helvetica", "B", 22)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 12, tr(opt.Title), "", "C", false)
		pdf.Ln(8)
	}

	linked := map[int]bool{}
	for i, ch := range chapters {
		if opt.OneChapterPerPage && i > 0 {
			pdf.AddPage()
		}
		if !linked[ch.ID] {
			pdf.SetLink(links[ch.ID], pdf.GetY(), -1)
			linked[ch.ID] = true
		}

		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(0, 0, 0)
		heading := fmt.Sprintf("%d", ch.ID)
		if ch.Title != "" {
			heading += "  " + ch.Title
		}
		pdf.CellFormat(0, 9, tr(heading), "B", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 11)
		if len(ch.Lines) > 0 {
			pdf.MultiCell(0, 5.5, tr(strings.Join(ch.Lines, " ")), "", "J", false)
		}
		pdf.Ln(2)

		if endsStory(ch, c) {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetTextColor(0, 0, 0)
			pdf.CellFormat(0, 6, "THE END", "", 1, "C", false, 0, "")
		} else {
			for _, choice := range ch.Continuations() {
				writeChoice(pdf, tr, choice, links)
			}
		}
		pdf.Ln(6)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// endsStory reports whether a reader stops after ch: it has no choices, or
// its continuation is a terminal one that names no chapter. Normal choices to
// missing chapters are authoring errors and stay visible.
func endsStory(ch story.Chapter, c *story.Collection) bool {
	cont := ch.Continuations()
	if len(cont) == 0 {
		return true
	}
	if len(cont) == 1 && cont[0].Terminal() {
		_, ok := c.Lookup(cont[0].ID)
		return !ok
	}
	return false
}

func writeChoice(pdf *gofpdf.Fpdf, tr func(string) string, choice story.Choice, links map[int]int) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	label := "- " + choice.Text + " "
	if choice.Terminal() {
		label = "- Continue "
	}
	pdf.Write(6, tr(label))

	target := fmt.Sprintf("(turn to %d)", choice.ID)
	pdf.SetFont("Helvetica", "B", 11)
	if link, ok := links[choice.ID]; ok {
		pdf.SetTextColor(0, 70, 160)
		pdf.WriteLinkID(6, target, link)
	} else {
		pdf.SetTextColor(160, 0, 0)
		pdf.Write(6, target)
	}
	pdf.Ln(6)
}

// ExportPDF writes the gamebook to outPath, creating parent directories.
func ExportPDF(c *story.Collection, outPath string, opt PDFOptions) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := WritePDF(c, f, opt); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}
	return f.Close()
}
