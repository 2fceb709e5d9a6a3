package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// TweakCommand sets the common command properties.
func TweakCommand(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.DisableFlagsInUseLine = true
}

// ParseVars parses variable settings of the form name=value.
func ParseVars(list []string) (map[string]string, error) {
	vars := map[string]string{}
	for _, v := range list {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable setting %q", v)
		}
		vars[name] = value
	}
	return vars, nil
}

// Format renders data in the given output format.
func Format(output string, data any) ([]byte, error) {
	switch output {
	case "", "yaml":
		return yaml.Marshal(data)
	case "json":
		return json.MarshalIndent(data, "", "  ")
	default:
		return nil, fmt.Errorf("invalid output format %q", output)
	}
}
