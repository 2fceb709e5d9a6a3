package app

import (
	"fmt"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/logging/logrusl"
	"github.com/mandelsoft/logging/logrusr"
)

var REALM = logging.DefineRealm("interedit", "interactive sheet edits")

// realms are the realm prefixes the log level applies to.
var realms = []string{"interedit"}

// setupLogging configures a human readable logrus based logger for the
// given log level.
func setupLogging(lctx logging.Context, level string) error {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	logcfg := logrusl.Human(true)
	lctx.SetBaseLogger(logrusr.New(logcfg.NewLogrus()))
	for _, r := range realms {
		lctx.AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix(r)))
	}
	return nil
}
