package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/interedit/pkg/edit"
	"github.com/mandelsoft/interedit/pkg/scenario"
	"github.com/mandelsoft/interedit/pkg/utils"
)

const ENV_SERVER = "INTEREDIT_SERVER"

type Options struct {
	fs       vfs.FileSystem
	lctx     logging.Context
	logLevel string
	config   string
	address  string
}

// Config reads the controller configuration from the default locations
// and the config option, overwritten by the environment.
func (o *Options) Config() (edit.Config, error) {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "interedit", "config.yaml"))
	}
	if o.config != "" {
		if ok, err := vfs.FileExists(o.fs, o.config); err != nil || !ok {
			return edit.Config{}, fmt.Errorf("config file %q not found", o.config)
		}
		paths = append(paths, o.config)
	}
	return edit.LoadConfig(o.fs, paths...)
}

// Scenario loads a scenario and combines its settings with the
// configuration.
func (o *Options) Scenario(path string, vars map[string]string) (*scenario.Scenario, edit.Config, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, cfg, err
	}
	s, err := scenario.Load(o.fs, path, vars)
	if err != nil {
		return nil, cfg, err
	}
	cfg = s.Settings.Apply(cfg)
	return s, cfg, cfg.Validate()
}

// GetURL returns the base url of the server.
func (o *Options) GetURL() string {
	a := o.address
	if !strings.HasPrefix(a, "http://") && !strings.HasPrefix(a, "https://") {
		a = "http://" + a
	}
	return strings.TrimSuffix(a, "/")
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs:       utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
		lctx:     logging.DefaultContext(),
		logLevel: "warn",
	}

	opts.address = os.Getenv(ENV_SERVER)
	if opts.address == "" {
		opts.address = "http://localhost:8080"
	}

	maincmd := &cobra.Command{
		Use:   "interedit <options> <cmd> <args>",
		Short: "edit symbol interpretation graphs of music sheets",
		Long: `
This command replays edit scenarios on the interpretation graph of a
sheet, serves a scenario for remote editing or watches the selections
published by a server.
`,
		TraverseChildren: true,
		SilenceUsage:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.lctx, opts.logLevel)
		},
	}

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.logLevel, "log-level", "L", opts.logLevel, "log level")
	flags.StringVarP(&opts.config, "config", "c", "", "controller configuration file")
	flags.StringVarP(&opts.address, "server", "s", opts.address, "interedit server")

	maincmd.AddCommand(NewRun(opts))
	maincmd.AddCommand(NewServe(opts))
	maincmd.AddCommand(NewWatch(opts))
	return maincmd
}
