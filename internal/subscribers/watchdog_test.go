package subscribers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/onsi/gomega"

	"github.com/carv-ics-forth/testwatch/internal/hub"
	"github.com/carv-ics-forth/testwatch/internal/registry"
	"github.com/carv-ics-forth/testwatch/internal/scheduler"
)

// fakeSchedule lets tests control next_fire without waiting on real cron
// ticks (the watchdog only ever calls Next, cron.Schedule's sole method).
type fakeSchedule struct {
	next func(time.Time) time.Time
}

func (f fakeSchedule) Next(t time.Time) time.Time { return f.next(t) }

type countingPoster struct {
	calls int32
}

func (p *countingPoster) PostEvent(_ context.Context, _ registry.Key, _, reason, _ string) {
	if reason == "NoResultsReceived" {
		atomic.AddInt32(&p.calls, 1)
	}
}

func newTestWatchdog(sched *scheduler.Scheduler, poster *countingPoster, every time.Duration) *Watchdog {
	return &Watchdog{
		key:         registry.Key{Namespace: "ns", Name: "suite"},
		executionID: "deadbeef",
		cronSched:   fakeSchedule{next: func(t time.Time) time.Time { return t.Add(every) }},
		padding:     0,
		sched:       sched,
		poster:      poster,
		log:         logr.Discard(),
		nowFn:       time.Now,
	}
}

func TestWatchdogEmitsEventWhenNoReportArrivesBeforeDeadline(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	poster := &countingPoster{}
	w := newTestWatchdog(s, poster, 10*time.Millisecond)
	w.arm(time.Now())

	g.Eventually(func() int32 {
		return atomic.LoadInt32(&poster.calls)
	}, "500ms", "5ms").Should(gomega.BeNumerically(">=", int32(1)))
}

func TestWatchdogUpdateSuppressesMissingReportEvent(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	poster := &countingPoster{}
	w := newTestWatchdog(s, poster, 30*time.Millisecond)
	w.arm(time.Now())

	g.Expect(w.Update(hub.Report{StartedAt: time.Now().Format(time.RFC3339)})).To(gomega.Succeed())

	g.Consistently(func() int32 {
		return atomic.LoadInt32(&poster.calls)
	}, "60ms", "10ms").Should(gomega.BeZero())
}

func TestWatchdogReArmsAfterEachCheck(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	poster := &countingPoster{}
	w := newTestWatchdog(s, poster, 10*time.Millisecond)
	w.arm(time.Now())

	g.Eventually(func() int32 {
		return atomic.LoadInt32(&poster.calls)
	}, "500ms", "5ms").Should(gomega.BeNumerically(">=", int32(2)))
}

func TestWatchdogOnDeleteCancelsOutstandingHandle(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	poster := &countingPoster{}
	w := newTestWatchdog(s, poster, 20*time.Millisecond)
	w.arm(time.Now())

	w.OnDelete()

	g.Consistently(func() int32 {
		return atomic.LoadInt32(&poster.calls)
	}, "100ms", "10ms").Should(gomega.BeZero())
}

func TestWatchdogOnDeleteIsIdempotent(t *testing.T) {
	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	poster := &countingPoster{}
	w := newTestWatchdog(s, poster, 20*time.Millisecond)
	w.arm(time.Now())

	w.OnDelete()
	w.OnDelete() // must not panic or double-cancel.
}
