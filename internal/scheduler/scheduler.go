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

// Package scheduler implements a single-thread cooperative timer wheel: the
// deadline-watchdog subscribers in internal/subscribers arm and re-arm
// entries here instead of each owning its own goroutine/timer.
package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Handle identifies a previously scheduled entry. It stays valid until either
// the callback has started to execute or Cancel(handle) has succeeded.
type Handle uint64

// Func is a scheduled callback. It runs synchronously on the runner thread.
type Func func(args interface{})

// entry is one pending (deadline, priority, callback) tuple in the heap.
type entry struct {
	deadline time.Time
	priority int
	seq      uint64 // insertion sequence, for FIFO tie-break
	handle   Handle
	fn       Func
	args     interface{}
	canceled bool
}

// entryHeap is a min-heap ordered by (deadline, priority desc, seq).
// Higher priority values fire first within the same deadline.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if !h[i].deadline.Equal(h[j].deadline) {
		return h[i].deadline.Before(h[j].deadline)
	}
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(*entry))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler is a single dedicated thread that drains a min-heap of pending
// callbacks. Callers from any goroutine may Schedule/Cancel concurrently;
// callbacks themselves run only on the runner goroutine, so watchdog state
// (internal/subscribers) needs no locking of its own.
type Scheduler struct {
	log logr.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	heap    entryHeap
	byHandle map[Handle]*entry
	nextSeq  uint64
	nextHandle Handle
	stopped bool
	started bool
}

// New constructs a Scheduler. Call Run in a dedicated goroutine to start
// draining it.
func New(log logr.Logger) *Scheduler {
	s := &Scheduler{
		log:      log,
		byHandle: make(map[Handle]*entry),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// ScheduleAt enqueues fn to run at t with the given priority. A timestamp in
// the past fires at the next drain. Returns a handle valid for Cancel.
func (s *Scheduler) ScheduleAt(t time.Time, priority int, fn Func, args interface{}) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	s.nextHandle++

	e := &entry{
		deadline: t,
		priority: priority,
		seq:      s.nextSeq,
		handle:   s.nextHandle,
		fn:       fn,
		args:     args,
	}

	s.byHandle[e.handle] = e
	heap.Push(&s.heap, e)

	// Wake the runner: either it was blocked on an empty heap, or it may
	// need to re-evaluate its sleep because this entry is now the soonest.
	s.cond.Signal()

	return e.handle
}

// Cancel invalidates handle. A no-op if the handle is unknown or its
// callback has already started (or finished) executing. Idempotent.
func (s *Scheduler) Cancel(handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byHandle[handle]
	if !ok {
		return
	}

	e.canceled = true
	delete(s.byHandle, handle)
}

// Empty reports whether there are no pending (non-canceled) entries.
func (s *Scheduler) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.byHandle) == 0
}

// Stop flips a flag and wakes the runner. Pending entries are dropped: there
// is no retry on Stop, by design.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.cond.Broadcast()
}

// Alive reports whether Run is (or was, before Stop) draining the heap. Used
// by the HTTP healthz surface (spec.md §6.4).
func (s *Scheduler) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started && !s.stopped
}

// Run blocks, draining due entries until Stop is called. It must run on a
// single dedicated goroutine — callbacks execute synchronously here, and a
// callback that itself calls ScheduleAt is safe to do so re-entrantly
// (ScheduleAt only needs the mutex, which Run releases before invoking fn).
func (s *Scheduler) Run() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	for {
		s.mu.Lock()

		if s.stopped {
			s.mu.Unlock()
			return
		}

		if len(s.heap) == 0 {
			// Quiescent wait: block on the condition variable, not a busy-loop.
			s.cond.Wait()
			s.mu.Unlock()
			continue
		}

		now := time.Now()
		next := s.heap[0]

		if next.deadline.After(now) {
			// Sleep until the nearest deadline or until signalled, whichever
			// is sooner. sync.Cond has no timed wait, so we simulate one: a
			// helper goroutine wakes the condition at the deadline, and any
			// concurrent ScheduleAt/Stop also signals it early.
			wait := next.deadline.Sub(now)
			timer := time.AfterFunc(wait, func() {
				s.mu.Lock()
				s.cond.Broadcast()
				s.mu.Unlock()
			})
			s.cond.Wait()
			timer.Stop()
			s.mu.Unlock()
			continue
		}

		// Pop every entry whose deadline has arrived.
		var due []*entry
		for len(s.heap) > 0 && !s.heap[0].deadline.After(now) {
			e := heap.Pop(&s.heap).(*entry)
			delete(s.byHandle, e.handle)
			due = append(due, e)
		}

		s.mu.Unlock()

		for _, e := range due {
			s.fire(e)
		}
	}
}

// fire invokes a single due entry's callback, recovering from panics so a
// broken callback cannot bring down the runner (spec.md §7 taxonomy (d)).
func (s *Scheduler) fire(e *entry) {
	if e.canceled {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error(nil, "scheduler callback panicked", "recovered", r)
		}
	}()

	e.fn(e.args)
}
