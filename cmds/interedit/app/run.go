package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/scenario"
)

type Run struct {
	cmd *cobra.Command

	mainopts *Options
	vars     []string
	output   string
}

func NewRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario> <options>",
		Short: "replay an edit scenario",
		Long: `
Builds the sheet described by the scenario file and executes its
operations. The final state of the sheet is printed, even if an
operation did not behave as expected.
`,
		Args: cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Run{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(cmd.Context(), args) }
	flags := cmd.Flags()
	flags.StringArrayVarP(&c.vars, "var", "v", nil, "scenario variable (name=value)")
	flags.StringVarP(&c.output, "output", "o", "yaml", "output format (yaml or json)")
	return cmd
}

func (c *Run) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	vars, err := ParseVars(c.vars)
	if err != nil {
		return err
	}
	s, cfg, err := c.mainopts.Scenario(args[0], vars)
	if err != nil {
		return err
	}

	session, err := scenario.NewSession(c.mainopts.lctx, s, edit.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer session.Close()

	runErr := session.Run(ctx)

	data, err := Format(c.output, session.Report())
	if err != nil {
		return err
	}
	fmt.Fprint(c.cmd.OutOrStdout(), string(data))
	return runErr
}
