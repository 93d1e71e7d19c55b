package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/board"
	"github.com/daviddao/tickboard/pkg/model"
	"github.com/daviddao/tickboard/pkg/scenario"
)

// runOptions defines flags for `tb run`.
type runOptions struct {
	global *globalOptions

	scenarioPath string
	workers      int
	jsonOut      bool
	metrics      bool
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.scenarioPath, "scenario", "", "TOML scenario to run (default: built-in session)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "override the worker pool size")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "JSON output")
	cmd.Flags().BoolVar(&o.metrics, "metrics", false, "print kernel and board metrics after the run")
}

func newCmdRun(global *globalOptions) *cobra.Command {
	o := &runOptions{global: global}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario against a fresh board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	o.addFlags(cmd)
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) (err error) {
	a, err := newApp(o.global, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()

	sc := scenario.Default(a.cfg)
	if o.scenarioPath != "" {
		if sc, err = scenario.Load(o.scenarioPath); err != nil {
			return err
		}
	}
	if o.workers > 0 {
		sc.Workers = o.workers
	}

	var opts []scenario.Option
	var runID string
	if a.journal != nil {
		workers := sc.Workers
		if workers == 0 {
			workers = a.cfg.Workers
		}
		cfgText, _ := a.cfg.Toml()
		if runID, err = a.journal.BeginRun(workers, cfgText); err != nil {
			return err
		}
		opts = append(opts, scenario.WithObserver(a.journal))
	}

	var registry *prometheus.Registry
	if o.metrics {
		registry = prometheus.NewRegistry()
		actor.InitMetrics(registry)
		board.InitMetrics(registry)
	}

	res, runErr := scenario.Run(a.cfg, sc, opts...)
	if res == nil {
		return runErr
	}

	var families []*dto.MetricFamily
	if registry != nil {
		if families, err = registry.Gather(); err != nil {
			return multierr.Append(runErr, err)
		}
	}

	if o.jsonOut {
		out := map[string]interface{}{"result": res}
		if runID != "" {
			out["run_id"] = runID
		}
		if registry != nil {
			out["metrics"] = metricSamples(families)
		}
		if err := a.printJSON(out); err != nil {
			return multierr.Append(runErr, err)
		}
		return runErr
	}

	for _, e := range res.Entries {
		fmt.Fprintln(a.out, formatEntry(e))
	}
	fmt.Fprintf(a.out, "%d steps, %d failed, %s ticks, %d items left\n",
		len(res.Entries), len(res.Failed()), humanize.Comma(res.Ticks), res.Items)
	if len(res.Banned) > 0 {
		fmt.Fprintf(a.out, "banned: %s\n", strings.Join(res.Banned, ", "))
	}
	if !res.Quiescent {
		fmt.Fprintf(a.out, "not quiescent: frontier %s, blocked by %s\n",
			formatPointstamps(res.Frontier), formatPointstamps(res.BlockedBy))
	}
	if runID != "" {
		fmt.Fprintf(a.out, "journal run %s\n", runID)
	}
	if registry != nil {
		fmt.Fprintln(a.out, "metrics:")
		for _, s := range metricSamples(families) {
			fmt.Fprintf(a.out, "  %-60s %g\n", s.Name, s.Value)
		}
	}
	return runErr
}

func formatPointstamps(ps []model.Pointstamp) string {
	if len(ps) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, fmt.Sprintf("actor-%d@%d", p.ActorID, p.Tick))
	}
	return strings.Join(parts, " ")
}

func formatEntry(e scenario.Entry) string {
	mark := "ok"
	if !e.OK {
		mark = "FAIL"
	}
	line := fmt.Sprintf("[tick=%d] %-4s step %d %s -> %s", e.Tick, mark, e.Step, e.Op, e.Reply)
	if e.Detail != "" {
		line += " (" + truncate(e.Detail, 80) + ")"
	}
	return line
}

// metricSample is one counter or gauge value with its labels folded into
// the name, Prometheus text style.
type metricSample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func metricSamples(families []*dto.MetricFamily) []metricSample {
	var out []metricSample
	for _, f := range families {
		for _, m := range f.GetMetric() {
			name := f.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, 0, len(labels))
				for _, l := range labels {
					pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			var v float64
			switch f.GetType() {
			case dto.MetricType_COUNTER:
				v = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			out = append(out, metricSample{Name: name, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
