package metrics

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// Timers tracks the duration of the processing phases.
type Timers struct {
	Timers map[string]*Timer `json:"Timers,omitempty"`
	last   string
	now    func() time.Time
}

func NewTimers() *Timers {
	return &Timers{Timers: make(map[string]*Timer), now: time.Now}
}

// set a timer, updating if existing.
func (ts *Timers) set(k string) {
	if _, ok := ts.Timers[k]; !ok {
		ts.Timers[k] = &Timer{start: ts.now()}
	} else {
		ts.Timers[k].Total = ts.now().Sub(ts.Timers[k].start).Seconds()
	}
}

// Set check last timer, stop and add a new one (lap).
func (ts *Timers) Set(k string) {
	if ts.last != "" {
		ts.set(ts.last)
	}
	ts.set(k)
	ts.last = k
}

// Add a new timer, or stop it when already started.
func (ts *Timers) Add(k string) {
	ts.set(k)
}

// Stop closes the running lap started by Set.
func (ts *Timers) Stop() {
	if ts.last != "" {
		ts.set(ts.last)
		ts.last = ""
	}
}

// LogDebug writes the timers, sorted by name, at debug level.
func (ts *Timers) LogDebug() {
	keys := make([]string, 0, len(ts.Timers))
	for k := range ts.Timers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Debugf("timer %s: %.3fs", k, ts.Timers[k].Total)
	}
}

type Timer struct {
	start time.Time

	// Total time in seconds
	Total float64 `json:"seconds"`
}
