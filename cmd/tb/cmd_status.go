package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/daviddao/tickboard/pkg/model"
)

// statusOptions defines flags for `tb status`.
type statusOptions struct {
	global *globalOptions

	runID   string
	jsonOut bool
}

func newCmdStatus(global *globalOptions) *cobra.Command {
	o := &statusOptions{global: global}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recorded runs and the actors of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	cmd.Flags().StringVar(&o.runID, "run", "", "run id to detail (default: latest run)")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "JSON output")
	return cmd
}

// runInfo is a run with its event count.
type runInfo struct {
	model.Run
	Events int64 `json:"events"`
}

func (o *statusOptions) run(cmd *cobra.Command) (err error) {
	a, err := newApp(o.global, cmd.OutOrStdout(), true)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()

	runs, err := a.journal.ListRuns()
	if err != nil {
		return err
	}
	infos := make([]runInfo, len(runs))
	for i, r := range runs {
		infos[i] = runInfo{Run: r, Events: a.journal.CountEvents(r.ID)}
	}

	runID, err := a.resolveRun(o.runID)
	if err != nil {
		return err
	}
	var actors []model.ActorRecord
	if runID != "" {
		if actors, err = a.journal.ListActors(runID); err != nil {
			return err
		}
	}

	if o.jsonOut {
		return a.printJSON(map[string]interface{}{
			"runs":   infos,
			"run_id": runID,
			"actors": actors,
		})
	}

	if len(infos) == 0 {
		fmt.Fprintln(a.out, "runs: none")
		return nil
	}
	fmt.Fprintln(a.out, "runs:")
	for _, ri := range infos {
		marker := ""
		if ri.ID == runID {
			marker = " <--"
		}
		fmt.Fprintf(a.out, "  %s workers=%-3d events=%-8s started %s%s\n",
			ri.ID, ri.Workers, humanize.Comma(ri.Events), humanize.Time(ri.StartedAt), marker)
	}
	fmt.Fprintf(a.out, "actors of %s:\n", runID)
	for _, ar := range actors {
		fmt.Fprintf(a.out, "  %s %-3d %-20s %s\n", liveIndicator(ar), ar.ID, ar.Name, lifetime(ar))
	}
	return nil
}

// liveIndicator returns a short text indicator for display.
func liveIndicator(ar model.ActorRecord) string {
	if ar.Live() {
		return "[+]"
	}
	return "[-]"
}

func lifetime(ar model.ActorRecord) string {
	if ar.Live() {
		return fmt.Sprintf("spawned=%d", ar.SpawnedAt)
	}
	return fmt.Sprintf("spawned=%d stopped=%d", ar.SpawnedAt, ar.StoppedAt)
}
