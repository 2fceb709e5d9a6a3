package edit

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"
)

const (
	ENV_GUTTER_RATIO        = "INTEREDIT_GUTTER_RATIO"
	ENV_USE_STAFF_LINK      = "INTEREDIT_USE_STAFF_LINK"
	ENV_USE_STAFF_PROXIMITY = "INTEREDIT_USE_STAFF_PROXIMITY"
)

// Config controls the behavior of a controller.
type Config struct {
	// UseStaffLink enables staff selection by links to already
	// assigned interpretations.
	UseStaffLink bool `json:"useStaffLink"`
	// UseStaffProximity enables staff selection by distance.
	UseStaffProximity bool `json:"useStaffProximity"`
	// GutterRatio is the maximum distance to the closest staff as a
	// ratio of the gap between the two closest staves.
	GutterRatio float64 `json:"gutterRatio"`

	QueueName        string `json:"queueName,omitempty"`
	MetricsNamespace string `json:"metricsNamespace,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		UseStaffLink:      true,
		UseStaffProximity: true,
		GutterRatio:       0.33,
		QueueName:         "edits",
		MetricsNamespace:  "interedit",
	}
}

// LoadConfig reads the default configuration overwritten by the given
// files and the environment. Missing files are ignored.
func LoadConfig(fs vfs.FileSystem, paths ...string) (Config, error) {
	cfg := DefaultConfig()
	for _, p := range paths {
		ok, err := vfs.FileExists(fs, p)
		if err != nil || !ok {
			continue
		}
		data, err := vfs.ReadFile(fs, p)
		if err != nil {
			return cfg, fmt.Errorf("config %q: %w", p, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %q: %w", p, err)
		}
	}
	return cfg, cfg.ApplyEnv()
}

// ApplyEnv overwrites settings from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(ENV_GUTTER_RATIO); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", ENV_GUTTER_RATIO, err)
		}
		c.GutterRatio = f
	}
	for name, field := range map[string]*bool{
		ENV_USE_STAFF_LINK:      &c.UseStaffLink,
		ENV_USE_STAFF_PROXIMITY: &c.UseStaffProximity,
	} {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*field = b
		}
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.GutterRatio < 0 || c.GutterRatio > 1 {
		return fmt.Errorf("gutter ratio %f must be in [0,1]", c.GutterRatio)
	}
	return nil
}
