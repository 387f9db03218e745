/*
Copyright 2021 ICS-FORTH.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package subscribers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/carv-ics-forth/testwatch/internal/hub"
	"github.com/carv-ics-forth/testwatch/internal/registry"
	"github.com/carv-ics-forth/testwatch/internal/scheduler"
)

// DefaultPadding is the estimated worker startup+execution time added to the
// cron-computed next fire time before a missing report is considered a miss
// (spec.md §4.D.2). Hard-coded per spec.md §9 open question: no per-suite
// tuning mechanism exists yet.
const DefaultPadding = time.Minute

// lateReportThreshold: if a deadline check runs more than this long after the
// started-at time of the last report seen, the watchdog logs that the padding
// estimate is too short (spec.md §4.D.2), without otherwise changing behavior.
const lateReportThreshold = 5 * time.Minute

// Watchdog is the subscriber that detects a missing report (spec.md §4.D.2).
// One instance per managed resource; owns at most one outstanding scheduler
// handle at a time.
type Watchdog struct {
	key         registry.Key
	executionID string
	cronSched   cron.Schedule
	padding     time.Duration

	sched  *scheduler.Scheduler
	poster EventPoster
	log    logr.Logger
	nowFn  func() time.Time

	mu         sync.Mutex
	lastSeen   *time.Time
	handle     scheduler.Handle
	hasHandle  bool
	tornDown   bool
}

var _ hub.Subscriber = (*Watchdog)(nil)

// NewWatchdog parses cronExpr, arms the first deadline check at
// next_fire(cronExpr, now)+padding, and returns the watchdog. The caller is
// expected to register the result with the Hub under executionID.
func NewWatchdog(key registry.Key, executionID, cronExpr string, sched *scheduler.Scheduler, poster EventPoster, log logr.Logger) (*Watchdog, error) {
	parsed, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, errors.Wrapf(err, "unparseable schedule %q", cronExpr)
	}

	w := &Watchdog{
		key:         key,
		executionID: executionID,
		cronSched:   parsed,
		padding:     DefaultPadding,
		sched:       sched,
		poster:      poster,
		log:         log,
		nowFn:       time.Now,
	}

	w.arm(w.nowFn())

	return w, nil
}

func (w *Watchdog) Identity() string { return "watchdog:" + w.key.String() }

// arm computes the next deadline from `from` and schedules checkDeadline.
// Per spec.md §8's "Watchdog re-arm" property, `from` must be the time the
// prior check ran (or construction time for the first arm) — never the
// report's started-at time.
func (w *Watchdog) arm(from time.Time) {
	next := w.cronSched.Next(from).Add(w.padding)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tornDown {
		return
	}

	w.handle = w.sched.ScheduleAt(next, 0, w.checkDeadline, nil)
	w.hasHandle = true
}

// Update records that a report arrived. Per spec.md §4.D.2 this only
// records last_seen; it does not re-arm (open question in spec.md §9).
func (w *Watchdog) Update(report hub.Report) error {
	t, err := time.Parse(time.RFC3339, report.StartedAt)
	if err != nil {
		return errors.Wrapf(err, "parse started_at_time %q", report.StartedAt)
	}

	w.mu.Lock()
	w.lastSeen = &t
	w.mu.Unlock()

	return nil
}

// checkDeadline runs on the Scheduler's runner goroutine. It is the
// callback handed to Scheduler.ScheduleAt by arm.
func (w *Watchdog) checkDeadline(interface{}) {
	w.mu.Lock()
	if w.tornDown {
		// OnDelete raced with fire and lost; cancellation is idempotent at
		// teardown, so simply do nothing further (spec.md §5).
		w.mu.Unlock()
		return
	}

	seen := w.lastSeen
	w.lastSeen = nil
	w.hasHandle = false
	w.mu.Unlock()

	now := w.nowFn()

	switch {
	case seen == nil:
		if w.poster != nil {
			w.poster.PostEvent(context.Background(), w.key, "Warning", "NoResultsReceived",
				fmt.Sprintf("no results received for execution %s in the last interval", w.executionID))
		}
	case now.Sub(*seen) > lateReportThreshold:
		w.log.Info("report arrived long after the previous deadline check; time estimation may be too short",
			"resource", w.key.String(), "delay", now.Sub(*seen).String())
	}

	w.arm(now)
}

// OnDelete cancels the outstanding handle, if any. After this call no
// further checkDeadline will run for this watchdog (spec.md §4.D.2).
func (w *Watchdog) OnDelete() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tornDown = true

	if w.hasHandle {
		w.sched.Cancel(w.handle)
		w.hasHandle = false
	}
}
