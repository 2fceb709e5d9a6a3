// Package healthz keeps track of the liveness of the edit workers.
// Every worker registers a check and ticks it regularly. A check not
// ticked within three periods marks the process as unhealthy.
package healthz

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("interedit/healthz", "worker health monitoring")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

type check struct {
	last    time.Time
	timeout time.Duration
}

var (
	lock   sync.Mutex
	checks = map[string]*check{}
)

// Start registers a check expected to be ticked every period.
func Start(key string, period time.Duration) {
	lock.Lock()
	defer lock.Unlock()
	checks[key] = &check{time.Now(), 3 * period}
}

// Tick reports the liveness for a check. Ticks for unknown checks are
// ignored.
func Tick(key string) {
	lock.Lock()
	defer lock.Unlock()
	if c := checks[key]; c != nil {
		c.last = time.Now()
	}
}

func End(key string) {
	lock.Lock()
	defer lock.Unlock()
	delete(checks, key)
}

// Status is the state of a single check.
type Status struct {
	Key     string    `json:"key"`
	Last    time.Time `json:"last"`
	Healthy bool      `json:"healthy"`
}

func (s Status) String() string {
	state := "ok"
	if !s.Healthy {
		state = "outdated"
	}
	return fmt.Sprintf("%s: %s (%s)", s.Key, s.Last.Format(time.RFC3339), state)
}

// HealthInfo returns the overall health and the state of all checks
// ordered by key.
func HealthInfo() (bool, []Status) {
	lock.Lock()
	defer lock.Unlock()

	ok := true
	now := time.Now()
	var list []Status
	for _, key := range slices.Sorted(maps.Keys(checks)) {
		c := checks[key]
		limit := now.Add(-c.timeout)
		s := Status{Key: key, Last: c.last, Healthy: !c.last.Before(limit)}
		if !s.Healthy {
			log.Warn("outdated health check", "key", key, "delay", limit.Sub(c.last))
			ok = false
		} else {
			log.Trace("last health report", "key", key, "last", c.last)
		}
		list = append(list, s)
	}
	return ok, list
}

func IsHealthy() bool {
	ok, _ := HealthInfo()
	return ok
}
