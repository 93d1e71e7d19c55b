package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/daviddao/tickboard/pkg/config"
	"github.com/daviddao/tickboard/pkg/journal"
	"github.com/daviddao/tickboard/pkg/logutil"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg *config.Config
	// journal is nil when no journal path is configured.
	journal *journal.Journal
	out     io.Writer
}

// newApp loads the config, installs the logger and opens the journal. A
// journal is mandatory when needJournal is set.
func newApp(opts *globalOptions, out io.Writer, needJournal bool) (*app, error) {
	cfg := config.GetDefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.FromFile(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.logLevel != "" {
		cfg.LogConf.Level = opts.logLevel
	}
	if err := logutil.InitLogger(&cfg.LogConf); err != nil {
		return nil, fmt.Errorf("cannot init logger: %w", err)
	}

	path := cfg.Journal.Path
	if opts.journalPath != "" {
		path = opts.journalPath
	}
	a := &app{cfg: cfg, out: out}
	if path == "" {
		if needJournal {
			return nil, fmt.Errorf("no journal: pass --journal or set TICKBOARD_JOURNAL")
		}
		return a, nil
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	a.journal = j
	return a, nil
}

// Close releases the journal, if any.
func (a *app) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

// printJSON writes v to the app's output as indented JSON.
func (a *app) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

// truncate shortens s to n bytes for one-line display.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
