/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"branchreader/internal/config"
	"branchreader/internal/crash"
	"branchreader/internal/export"
	"branchreader/internal/index"
	applog "branchreader/internal/log"
	"branchreader/internal/progress"
	"branchreader/internal/session"
	"branchreader/internal/story"
	"branchreader/internal/terminal"
	"branchreader/internal/version"
)

// app bundles what a command needs so tests can swap the terminal and sinks.
type app struct {
	cfg     config.AppConfig
	stdout  io.Writer
	stderr  io.Writer
	surface func() terminal.Surface
	log     *slog.Logger
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "branchreader: read branching stories in the terminal")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  branchreader                                Read the configured script (default lines.txt)")
	_, _ = fmt.Fprintln(w, "  branchreader read [<script> [<chapter-id>]]  Read <script>, optionally from a chapter")
	_, _ = fmt.Fprintln(w, "  branchreader version|-v|--version           Show version")
	_, _ = fmt.Fprintln(w, "  branchreader export json <script> <out>     Write the chapter graph as JSON")
	_, _ = fmt.Fprintln(w, "  branchreader export pdf <script> <out>      Write a printable gamebook")
	_, _ = fmt.Fprintln(w, "  branchreader index <script> <db>            Build a full-text index of <script>")
	_, _ = fmt.Fprintln(w, "  branchreader search <db> <query...>         Search an index")
	_, _ = fmt.Fprintln(w, "  branchreader links <db> <chapter-id>        List choices leading to a chapter")
	_, _ = fmt.Fprintln(w, "  branchreader config path|show|init [--force]  Inspect or create the config file")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	defer crash.Recover(crash.Info{Script: cfg.Reader.Script})

	a := &app{
		cfg:     cfg,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		surface: func() terminal.Surface { return terminal.NewConsole() },
		log:     l,
	}
	if code := a.run(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}

// run dispatches args and returns the process exit code.
func (a *app) run(args []string) int {
	a.log.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		return a.read(a.cfg.Reader.Script)
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(a.stdout, "branchreader")
		_, _ = fmt.Fprintln(a.stdout, version.String())
		return 0
	case "help", "--help", "-h":
		usage(a.stdout)
		return 0
	case "read":
		script := a.cfg.Reader.Script
		if len(args) >= 2 {
			script = args[1]
		}
		var opts []session.Option
		if len(args) >= 3 {
			id, err := strconv.Atoi(strings.TrimSpace(args[2]))
			if err != nil || id < 0 {
				_, _ = fmt.Fprintf(a.stderr, "invalid chapter id %q\n", args[2])
				usage(a.stderr)
				return 2
			}
			opts = append(opts, session.WithStart(id))
		}
		return a.read(script, opts...)
	case "export":
		if len(args) < 4 {
			_, _ = fmt.Fprintln(a.stderr, "export requires <json|pdf> <script> <out>")
			usage(a.stderr)
			return 2
		}
		return a.export(args[1], args[2], args[3])
	case "index":
		if len(args) < 3 {
			_, _ = fmt.Fprintln(a.stderr, "index requires <script> and <db>")
			usage(a.stderr)
			return 2
		}
		return a.index(args[1], args[2])
	case "search":
		if len(args) < 2 {
			_, _ = fmt.Fprintln(a.stderr, "search requires <db> [query]")
			usage(a.stderr)
			return 2
		}
		return a.search(args[1], strings.Join(args[2:], " "))
	case "links":
		if len(args) < 3 {
			_, _ = fmt.Fprintln(a.stderr, "links requires <db> and <chapter-id>")
			usage(a.stderr)
			return 2
		}
		return a.links(args[1], args[2])
	case "config":
		return a.configCmd(args[1:])
	}
	_, _ = fmt.Fprintf(a.stderr, "unknown command %q\n", args[0])
	usage(a.stderr)
	return 2
}

// load parses script and reports load failures the way the reader expects.
func (a *app) load(script string) (*story.Collection, bool) {
	c, err := story.Load(script, story.ParseOptions{AllowDuplicateIDs: a.cfg.Reader.AllowDuplicateIDs})
	switch {
	case err == nil:
		return c, true
	case errors.Is(err, story.ErrScriptNotFound):
		_, _ = fmt.Fprintf(a.stdout, "File '%s' does not exist.\n", script)
	case errors.Is(err, story.ErrNoChapters):
		_, _ = fmt.Fprintln(a.stdout, "No chapters found.")
	default:
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
	}
	a.log.Error("load script failed", slog.String("script", script), slog.Any("err", err))
	return nil, false
}

func (a *app) read(script string, extra ...session.Option) int {
	c, ok := a.load(script)
	if !ok {
		return 1
	}
	est, err := progress.New(a.cfg.Reader.Progress)
	if err != nil {
		a.log.Warn("unknown progress strategy, using linear", slog.String("progress", a.cfg.Reader.Progress))
		est = progress.Linear{}
	}

	surf := a.surface()
	opts := append([]session.Option{
		session.WithEstimator(est),
		session.WithReservedRows(a.cfg.Reader.ReservedRows),
	}, extra...)
	e := session.New(c, surf, opts...)
	err = e.Run()
	var nf *session.NotFoundError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, io.EOF):
		// input closed: treat like the reader walking away
		a.log.Info("input closed", slog.Int("visited", len(e.Visited())))
		_, _ = fmt.Fprintln(surf)
		return 0
	case errors.As(err, &nf):
		_, _ = fmt.Fprintf(surf, "Chapter with ID %d not found. Exiting.\n", nf.ID)
		return 1
	default:
		a.log.Error("session failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return 1
	}
}

func (a *app) export(format, script, out string) int {
	l := applog.WithOperation(a.log, "export").With(slog.String("format", format), slog.String("out", out))
	if format != "json" && format != "pdf" {
		_, _ = fmt.Fprintf(a.stderr, "unknown export format %q\n", format)
		usage(a.stderr)
		return 2
	}
	c, ok := a.load(script)
	if !ok {
		return 1
	}
	var err error
	if format == "json" {
		err = export.WriteJSON(c, out)
	} else {
		title := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
		err = export.ExportPDF(c, out, export.PDFOptions{Title: title})
	}
	if err != nil {
		l.Error("export failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return 1
	}
	l.Info("exported", slog.Int("chapters", c.Len()))
	_, _ = fmt.Fprintf(a.stdout, "Exported %d chapters to %s\n", c.Len(), out)
	return 0
}

func (a *app) index(script, dbPath string) int {
	c, ok := a.load(script)
	if !ok {
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := index.BuildFile(ctx, dbPath, c, script); err != nil {
		a.log.Error("index failed", slog.String("db", dbPath), slog.Any("err", err))
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return 1
	}
	_, _ = fmt.Fprintf(a.stdout, "Indexed %d chapters into %s\n", c.Len(), dbPath)
	return 0
}

// openIndex opens an existing index; a missing file is reported, not created.
func (a *app) openIndex(ctx context.Context, dbPath string) (*sql.DB, bool) {
	if _, err := os.Stat(dbPath); err != nil {
		_, _ = fmt.Fprintf(a.stdout, "File '%s' does not exist.\n", dbPath)
		return nil, false
	}
	db, err := index.Open(ctx, dbPath)
	if err != nil {
		a.log.Error("open index failed", slog.String("db", dbPath), slog.Any("err", err))
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return nil, false
	}
	return db, true
}

func (a *app) search(dbPath, query string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	db, ok := a.openIndex(ctx, dbPath)
	if !ok {
		return 1
	}
	defer db.Close()

	info, err := index.Describe(ctx, db)
	if err != nil {
		a.log.Warn("describe index failed", slog.String("db", dbPath), slog.Any("err", err))
	} else {
		_, _ = fmt.Fprintf(a.stdout, "Index of %s (built %s, schema %d)\n", info.Source, info.IndexedAt, info.Schema)
	}
	res, err := index.Search(ctx, db, index.Query{Text: query})
	if err != nil {
		a.log.Error("search failed", slog.String("db", dbPath), slog.Any("err", err))
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return 1
	}
	if len(res) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "No matches.")
		return 0
	}
	for _, r := range res {
		_, _ = fmt.Fprintf(a.stdout, "%d\t%s\t(line %d)\n", r.ChapterID, r.Title, r.Line)
		if r.Snippet != "" {
			_, _ = fmt.Fprintf(a.stdout, "\t%s\n", r.Snippet)
		}
	}
	return 0
}

func (a *app) links(dbPath, rawID string) int {
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil || id < 0 {
		_, _ = fmt.Fprintf(a.stderr, "invalid chapter id %q\n", rawID)
		usage(a.stderr)
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	db, ok := a.openIndex(ctx, dbPath)
	if !ok {
		return 1
	}
	defer db.Close()

	links, err := index.LinksTo(ctx, db, id)
	if err != nil {
		a.log.Error("links failed", slog.String("db", dbPath), slog.Int("chapter", id), slog.Any("err", err))
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return 1
	}
	if len(links) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "No choices lead to chapter %d.\n", id)
		return 0
	}
	for _, l := range links {
		text := l.Text
		if l.Terminal {
			text = "(continue)"
		}
		_, _ = fmt.Fprintf(a.stdout, "%d\t%s\t%s\n", l.FromID, l.FromTitle, text)
	}
	return 0
}

// configCmd handles "config path|show|init [--force]".
func (a *app) configCmd(args []string) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(a.stderr, "config requires path, show or init")
		usage(a.stderr)
		return 2
	}
	path, err := config.ConfigPath()
	if err != nil {
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return 1
	}
	switch args[0] {
	case "path":
		_, _ = fmt.Fprintln(a.stdout, path)
		return 0
	case "show":
		c := a.cfg
		settings := []struct {
			key string
			val any
		}{
			{"reader.script", c.Reader.Script},
			{"reader.reserved_rows", c.Reader.ReservedRows},
			{"reader.progress", c.Reader.Progress},
			{"reader.allow_duplicate_ids", c.Reader.AllowDuplicateIDs},
			{"logging.level", c.Logging.Level},
			{"logging.format", c.Logging.Format},
			{"logging.source", c.Logging.Source},
			{"logging.file", c.Logging.File},
		}
		_, _ = fmt.Fprintf(a.stdout, "# %s\n", path)
		for _, s := range settings {
			line := fmt.Sprintf("%s = %v", s.key, s.val)
			if env, ok := config.EnvOverrideFor(s.key); ok {
				line += fmt.Sprintf("  (from %s)", env)
			}
			_, _ = fmt.Fprintln(a.stdout, line)
		}
		return 0
	case "init":
		force := len(args) > 1 && args[1] == "--force"
		if _, err := os.Stat(path); err == nil && !force {
			_, _ = fmt.Fprintf(a.stdout, "Config already exists at %s (use --force to overwrite).\n", path)
			return 1
		}
		if err := config.Save(config.Defaults()); err != nil {
			a.log.Error("save config failed", slog.String("path", path), slog.Any("err", err))
			_, _ = fmt.Fprintln(a.stderr, "Error:", err)
			return 1
		}
		_, _ = fmt.Fprintf(a.stdout, "Wrote default config to %s\n", path)
		return 0
	}
	_, _ = fmt.Fprintf(a.stderr, "unknown config command %q\n", args[0])
	usage(a.stderr)
	return 2
}
