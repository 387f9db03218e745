package hub_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/onsi/gomega"

	"github.com/carv-ics-forth/testwatch/internal/hub"
)

type fakeSubscriber struct {
	id       string
	updates  int32
	deletes  int32
	failNext bool
}

func (f *fakeSubscriber) Update(hub.Report) error {
	atomic.AddInt32(&f.updates, 1)
	if f.failNext {
		f.failNext = false
		return errTest
	}
	return nil
}

func (f *fakeSubscriber) OnDelete()        { atomic.AddInt32(&f.deletes, 1) }
func (f *fakeSubscriber) Identity() string { return f.id }

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestFanOutDeliversToEverySubscriber(t *testing.T) {
	g := gomega.NewWithT(t)

	h := hub.New(logr.Discard())

	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	h.Add("exec-1", a)
	h.Add("exec-1", b)

	h.Publish(hub.Report{ExecutionID: "exec-1"})

	g.Expect(atomic.LoadInt32(&a.updates)).To(gomega.Equal(int32(1)))
	g.Expect(atomic.LoadInt32(&b.updates)).To(gomega.Equal(int32(1)))
}

func TestAddIsIdempotentForSameIdentity(t *testing.T) {
	g := gomega.NewWithT(t)

	h := hub.New(logr.Discard())
	a1 := &fakeSubscriber{id: "a"}
	a2 := &fakeSubscriber{id: "a"}

	h.Add("exec-1", a1)
	h.Add("exec-1", a2)

	g.Expect(h.Count("exec-1")).To(gomega.Equal(1))
}

func TestRemoveAllTearsDownEverySubscriberOnce(t *testing.T) {
	g := gomega.NewWithT(t)

	h := hub.New(logr.Discard())
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	h.Add("exec-1", a)
	h.Add("exec-1", b)

	h.RemoveAll("exec-1")

	g.Expect(atomic.LoadInt32(&a.deletes)).To(gomega.Equal(int32(1)))
	g.Expect(atomic.LoadInt32(&b.deletes)).To(gomega.Equal(int32(1)))
	g.Expect(h.Count("exec-1")).To(gomega.Equal(0))
}

func TestPublishAfterRemoveAllIsNoop(t *testing.T) {
	g := gomega.NewWithT(t)

	h := hub.New(logr.Discard())
	a := &fakeSubscriber{id: "a"}
	h.Add("exec-1", a)
	h.RemoveAll("exec-1")

	h.Publish(hub.Report{ExecutionID: "exec-1"})

	g.Expect(atomic.LoadInt32(&a.updates)).To(gomega.BeZero())
}

func TestFailingSubscriberDoesNotBlockPeers(t *testing.T) {
	g := gomega.NewWithT(t)

	h := hub.New(logr.Discard())
	bad := &fakeSubscriber{id: "bad", failNext: true}
	good := &fakeSubscriber{id: "good"}
	h.Add("exec-1", bad)
	h.Add("exec-1", good)

	h.Publish(hub.Report{ExecutionID: "exec-1"})

	g.Expect(atomic.LoadInt32(&good.updates)).To(gomega.Equal(int32(1)))
}

// slowRecordingSubscriber records the StartedAt of every report it sees, in
// delivery order, pausing inside Update until release is closed — used to
// force two Publish calls for the same execution id to overlap in time and
// prove the Hub still serializes their delivery.
type slowRecordingSubscriber struct {
	mu      sync.Mutex
	seen    []string
	entered chan struct{}
	release chan struct{}
}

func (s *slowRecordingSubscriber) Update(r hub.Report) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release

	s.mu.Lock()
	s.seen = append(s.seen, r.StartedAt)
	s.mu.Unlock()
	return nil
}

func (s *slowRecordingSubscriber) OnDelete()        {}
func (s *slowRecordingSubscriber) Identity() string { return "slow" }

func TestPublishSerializesDeliveryForTheSameExecutionID(t *testing.T) {
	g := gomega.NewWithT(t)

	h := hub.New(logr.Discard())
	sub := &slowRecordingSubscriber{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	h.Add("exec-1", sub)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		h.Publish(hub.Report{ExecutionID: "exec-1", StartedAt: "first"})
	}()

	// Wait until the first Publish is blocked inside Update, then fire the
	// second before releasing the first — if Publish did not hold its lock
	// across delivery, the second call's Update could run (and finish)
	// before the first does.
	<-sub.entered

	secondStarted := make(chan struct{})
	go func() {
		defer wg.Done()
		close(secondStarted)
		h.Publish(hub.Report{ExecutionID: "exec-1", StartedAt: "second"})
	}()

	<-secondStarted
	time.Sleep(20 * time.Millisecond)

	sub.mu.Lock()
	seenBeforeRelease := len(sub.seen)
	sub.mu.Unlock()
	g.Expect(seenBeforeRelease).To(gomega.Equal(0), "second Publish must not have delivered yet")

	close(sub.release)
	wg.Wait()

	g.Expect(sub.seen).To(gomega.Equal([]string{"first", "second"}))
}

func TestConcurrentAddAndPublishOfSameIdentityKeepsOneSubscriber(t *testing.T) {
	g := gomega.NewWithT(t)

	h := hub.New(logr.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "exec"
			sub := &fakeSubscriber{id: "s"}
			h.Add(id, sub)
			h.Publish(hub.Report{ExecutionID: id})
		}(i)
	}
	wg.Wait()

	g.Expect(h.Count("exec")).To(gomega.Equal(1))
}
