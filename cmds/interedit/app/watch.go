package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/interedit/pkg/watch"
)

type Watch struct {
	cmd *cobra.Command

	mainopts *Options
	count    int
}

func NewWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [<sheet>] <options>",
		Short: "watch the selections published by a server",
		Args:  cobra.MaximumNArgs(1),
	}
	TweakCommand(cmd)

	c := &Watch{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(cmd.Context(), args) }
	flags := cmd.Flags()
	flags.IntVarP(&c.count, "count", "n", 0, "stop after the given number of selections")
	return cmd
}

func (c *Watch) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	u, err := url.Parse(c.mainopts.GetURL())
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}

	req := watch.Request{}
	if len(args) == 1 {
		req.Sheet = args[0]
	}

	client := watch.NewClient[watch.Request, watch.Selection](fmt.Sprintf("%s://%s/watch", scheme, u.Host))
	w, err := client.Watch(ctx, req)
	if err != nil {
		return err
	}
	defer w.Close()

	go func() {
		<-ctx.Done()
		w.Close()
	}()

	received := 0
	for c.count <= 0 || received < c.count {
		events, err := w.Receive()
		if err != nil {
			if ctx.Err() != nil || watch.IsErrClosed(err) {
				return nil
			}
			return err
		}
		for _, e := range events {
			data, _ := json.Marshal(e)
			fmt.Fprintf(c.cmd.OutOrStdout(), "%s\n", string(data))
			received++
		}
	}
	return nil
}
