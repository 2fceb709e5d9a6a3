package app

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/interedit/pkg/ctxutil"
	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/healthz"
	"github.com/mandelsoft/interedit/pkg/scenario"
	"github.com/mandelsoft/interedit/pkg/server"
	"github.com/mandelsoft/interedit/pkg/service"
	"github.com/mandelsoft/interedit/pkg/watch"
)

type Serve struct {
	cmd *cobra.Command

	mainopts *Options
	vars     []string
	port     int
	run      bool
}

func NewServe(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <scenario> <options>",
		Short: "serve a sheet for remote editing",
		Long: `
Builds the sheet described by the scenario file and serves it:

  POST /sheet/operations  apply an edit operation
  GET  /sheet/report      get the state of the sheet
  GET  /watch             websocket for the published selections
  GET  /metrics           prometheus metrics
  GET  /healthz           health of the edit worker
`,
		Args: cobra.ExactArgs(1),
	}
	TweakCommand(cmd)

	c := &Serve{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(cmd.Context(), args) }
	flags := cmd.Flags()
	flags.StringArrayVarP(&c.vars, "var", "v", nil, "scenario variable (name=value)")
	flags.IntVarP(&c.port, "port", "p", 8080, "server port")
	flags.BoolVarP(&c.run, "run", "r", false, "execute the scenario operations before serving")
	return cmd
}

func (c *Serve) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := c.mainopts.lctx.Logger(REALM)

	vars, err := ParseVars(c.vars)
	if err != nil {
		return err
	}
	s, cfg, err := c.mainopts.Scenario(args[0], vars)
	if err != nil {
		return err
	}

	registry := watch.NewRegistry()
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	session, err := scenario.NewSession(c.mainopts.lctx, s,
		edit.WithConfig(cfg),
		edit.WithPublisher(registry),
		edit.WithRegisterer(metrics),
	)
	if err != nil {
		return err
	}
	if c.run {
		if err := session.Run(ctx); err != nil {
			session.Close()
			return err
		}
	}

	srv := server.NewServer(c.port, 20*time.Second)
	handler := server.NewSessionHandler(session, "/sheet")
	handler.RegisterHandler(srv)
	endpoint := watch.WatchHttpHandler[watch.Request, watch.Selection](registry)
	srv.Handle("/watch", endpoint)
	srv.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	srv.HandleFunc("/healthz", healthz.Healthz)

	ctx = ctxutil.SignalContext(ctx, os.Interrupt, syscall.SIGTERM)
	reg := service.New(c.mainopts.lctx, ctx)
	reg.Add(handler)
	reg.Add(srv)
	if err := reg.Start(); err != nil {
		return err
	}
	log.Info("serving sheet {{sheet}} on {{address}}", "sheet", s.Name, "address", srv.Address())

	<-ctx.Done()
	endpoint.Close()
	return reg.Wait()
}
