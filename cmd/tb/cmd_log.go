package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/daviddao/tickboard/pkg/model"
)

// logOptions defines flags for `tb log`.
type logOptions struct {
	global *globalOptions

	runID   string
	since   int64
	limit   int
	kind    string
	jsonOut bool
}

func (o *logOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.runID, "run", "", "run id (default: latest run)")
	cmd.Flags().Int64Var(&o.since, "since", 0, "fetch events with tick >= this")
	cmd.Flags().IntVar(&o.limit, "limit", 50, "max events to return")
	cmd.Flags().StringVar(&o.kind, "kind", "", "filter by event kind (spawn, stop, send, deliver)")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "JSON output")
}

func newCmdLog(global *globalOptions) *cobra.Command {
	o := &logOptions{global: global}
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Query the event log of a recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	o.addFlags(cmd)
	return cmd
}

func (o *logOptions) run(cmd *cobra.Command) (err error) {
	a, err := newApp(o.global, cmd.OutOrStdout(), true)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()

	runID, err := a.resolveRun(o.runID)
	if err != nil {
		return err
	}
	if runID == "" {
		fmt.Fprintln(a.out, "no runs")
		return nil
	}

	events, err := a.journal.ListEvents(runID, o.since, o.limit)
	if err != nil {
		return err
	}
	if o.kind != "" {
		filtered := events[:0]
		for _, e := range events {
			if string(e.Kind) == o.kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if o.jsonOut {
		return a.printJSON(map[string]interface{}{"run_id": runID, "events": events, "count": len(events)})
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "no events")
		return nil
	}
	names, err := a.actorNames(runID)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintln(a.out, formatEvent(e, names))
	}
	return nil
}

// resolveRun returns flagVal, or the latest run id when it is empty. An
// empty journal yields "".
func (a *app) resolveRun(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	r, err := a.journal.LatestRun()
	if err != nil || r == nil {
		return "", err
	}
	return r.ID, nil
}

func (a *app) actorNames(runID string) (map[int64]string, error) {
	actors, err := a.journal.ListActors(runID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(actors))
	for _, ar := range actors {
		names[ar.ID] = ar.Name
	}
	return names, nil
}

func formatEvent(e model.Event, names map[int64]string) string {
	name, ok := names[e.ActorID]
	if !ok {
		name = fmt.Sprintf("actor-%d", e.ActorID)
	}
	switch e.Kind {
	case model.EventSpawn:
		return fmt.Sprintf("[tick=%d] spawn %s", e.Tick, name)
	case model.EventStop:
		return fmt.Sprintf("[tick=%d] stop %s", e.Tick, name)
	case model.EventSend:
		return fmt.Sprintf("[tick=%d] send %s -> %s due=%d %s",
			e.Tick, e.MessageKind, name, e.DeliverAt, truncate(e.Body, 120))
	case model.EventDeliver:
		return fmt.Sprintf("[tick=%d] deliver %s -> %s", e.Tick, e.MessageKind, name)
	default:
		return fmt.Sprintf("[tick=%d] %s %s %s", e.Tick, e.Kind, name, e.MessageKind)
	}
}
