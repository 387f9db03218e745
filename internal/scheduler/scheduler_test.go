package scheduler_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/onsi/gomega"

	"github.com/carv-ics-forth/testwatch/internal/scheduler"
)

func TestFiresInDeadlineOrder(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	var mu sync.Mutex
	var order []int

	record := func(i int) scheduler.Func {
		return func(interface{}) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}
	}

	now := time.Now()
	s.ScheduleAt(now.Add(30*time.Millisecond), 0, record(3), nil)
	s.ScheduleAt(now.Add(10*time.Millisecond), 0, record(1), nil)
	s.ScheduleAt(now.Add(20*time.Millisecond), 0, record(2), nil)

	g.Eventually(func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), order...)
	}, "500ms", "5ms").Should(gomega.Equal([]int{1, 2, 3}))
}

func TestCancelPreventsFiring(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	var fired int32

	h := s.ScheduleAt(time.Now().Add(20*time.Millisecond), 0, func(interface{}) {
		atomic.AddInt32(&fired, 1)
	}, nil)

	s.Cancel(h)

	g.Consistently(func() int32 {
		return atomic.LoadInt32(&fired)
	}, "100ms", "10ms").Should(gomega.BeZero())
}

func TestCancelOfAlreadyFiredIsNoop(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	done := make(chan struct{})
	h := s.ScheduleAt(time.Now(), 0, func(interface{}) { close(done) }, nil)

	g.Eventually(done, "200ms").Should(gomega.BeClosed())

	// should not panic and should be a no-op.
	s.Cancel(h)
}

func TestPanicInCallbackDoesNotKillRunner(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	s.ScheduleAt(time.Now(), 0, func(interface{}) {
		panic("boom")
	}, nil)

	var recovered int32
	s.ScheduleAt(time.Now().Add(10*time.Millisecond), 0, func(interface{}) {
		atomic.AddInt32(&recovered, 1)
	}, nil)

	g.Eventually(func() int32 {
		return atomic.LoadInt32(&recovered)
	}, "500ms", "5ms").Should(gomega.Equal(int32(1)))
}

func TestEmptyReportsPendingEntries(t *testing.T) {
	g := gomega.NewWithT(t)

	s := scheduler.New(logr.Discard())
	go s.Run()
	defer s.Stop()

	g.Expect(s.Empty()).To(gomega.BeTrue())

	s.ScheduleAt(time.Now().Add(time.Hour), 0, func(interface{}) {}, nil)

	g.Expect(s.Empty()).To(gomega.BeFalse())
}
