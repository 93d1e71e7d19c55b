package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daviddao/tickboard/pkg/config"
	"github.com/daviddao/tickboard/pkg/scenario"
)

// initOptions defines flags for `tb init`.
type initOptions struct {
	output       string
	scenarioPath string
	force        bool
}

func newCmdInit() *cobra.Command {
	o := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config and, optionally, the built-in scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	cmd.Flags().StringVar(&o.output, "output", "tickboard.toml", "config file to write")
	cmd.Flags().StringVar(&o.scenarioPath, "scenario", "", "also write the built-in scenario to this file")
	cmd.Flags().BoolVar(&o.force, "force", false, "overwrite existing files")
	return cmd
}

func (o *initOptions) run(cmd *cobra.Command) error {
	cfg := config.GetDefaultConfig()
	doc, err := cfg.Toml()
	if err != nil {
		return err
	}
	if err := o.write(o.output, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote config %s\n", o.output)

	if o.scenarioPath == "" {
		return nil
	}
	doc, err = scenario.Default(cfg).Toml()
	if err != nil {
		return err
	}
	if err := o.write(o.scenarioPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote scenario %s\n", o.scenarioPath)
	return nil
}

func (o *initOptions) write(path, doc string) error {
	if !o.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}
