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

// Package hub multiplexes incoming worker reports to the subscribers
// registered for their execution id, and tears subscribers down on removal.
// Grounded on the teacher's child-lifecycle bookkeeping
// (controllers/common/lifecycle) generalized from "track a child object" to
// "track a report subscriber".
package hub

import (
	"sync"

	"github.com/go-logr/logr"
)

// Report is the semantic content of a worker's execution report (spec.md §4.D.1).
type Report struct {
	ExecutionID     string
	StartedAt       string
	TestCaseResults []TestCaseResult
}

type TestCaseResult struct {
	Name          string
	Status        string
	Duration      string
	ErrorMessage  string
}

// Subscriber is anything wired into the Hub under an execution id. Both
// concrete kinds in internal/subscribers implement this.
type Subscriber interface {
	// Update delivers a report. Errors are logged by the Hub and never
	// interrupt delivery to peer subscribers.
	Update(report Report) error

	// OnDelete tears the subscriber down. Invoked exactly once, even if the
	// subscriber never received a report.
	OnDelete()

	// Identity distinguishes subscribers for Add's idempotency check
	// (the same subscriber added twice is a no-op).
	Identity() string
}

// set is the live subscriber membership for one execution id.
type set struct {
	mu      sync.Mutex
	members map[string]Subscriber
	removed bool
}

// Hub owns the execution-id -> subscriber-set map. The map itself is guarded
// by a single lock; each per-id set has its own lock so that publishing to
// one execution id never blocks callers of another (spec.md §5 ordering
// guarantee: delivery is serialized per execution id, free across ids).
type Hub struct {
	log logr.Logger

	mu   sync.Mutex
	sets map[string]*set
}

// New constructs an empty Hub.
func New(log logr.Logger) *Hub {
	return &Hub{
		log:  log,
		sets: make(map[string]*set),
	}
}

func (h *Hub) setFor(executionID string, createIfMissing bool) *set {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sets[executionID]
	if !ok {
		if !createIfMissing {
			return nil
		}
		s = &set{members: make(map[string]Subscriber)}
		h.sets[executionID] = s
	}

	return s
}

// Add registers subscriber under executionID. Creates the set on first use.
// Adding the same subscriber identity twice is idempotent. Adding to a set
// that has already been torn down by RemoveAll re-creates it — this is the
// normal resume/suspend-resume path (spec.md §4.E), not a leak: RemoveAll
// only ever tears down the members present at the time it ran.
func (h *Hub) Add(executionID string, subscriber Subscriber) {
	s := h.setFor(executionID, true)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removed = false
	s.members[subscriber.Identity()] = subscriber
}

// Publish delivers report to every subscriber registered under
// report.ExecutionID, holding the per-id lock for the *entire* delivery —
// not just while snapshotting membership. Two Publish calls for the same
// execution id (the worker's at-least-once delivery means this happens: a
// retried report and the next interval's real report can arrive close
// together, spec.md §5) therefore never interleave their subscribers'
// Update calls; the second caller blocks until the first has finished
// delivering to every subscriber. This is what makes the per-execution-id
// ordering guarantee (spec.md §5) hold all the way through to each
// subscriber's own side effects (e.g. StatusUpdater's status patch), not
// just through the Hub's own bookkeeping. Add/RemoveAll share the same
// lock, so they also block until an in-flight Publish for that id
// completes. A subscriber whose Update returns an error is logged; delivery
// continues to its peers. After RemoveAll has run for an id, Publish for
// that id is a no-op.
func (h *Hub) Publish(report Report) {
	s := h.setFor(report.ExecutionID, false)
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return
	}

	snapshot := make([]Subscriber, 0, len(s.members))
	for _, sub := range s.members {
		snapshot = append(snapshot, sub)
	}

	for _, sub := range snapshot {
		if err := h.deliver(sub, report); err != nil {
			h.log.Error(err, "subscriber update failed", "executionID", report.ExecutionID, "subscriber", sub.Identity())
		}
	}
}

func (h *Hub) deliver(sub Subscriber, report Report) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error(nil, "subscriber update panicked", "recovered", r)
		}
	}()

	return sub.Update(report)
}

// RemoveAll detaches the entire subscriber set for executionID and invokes
// each subscriber's OnDelete exactly once, catching and logging individual
// teardown failures so one bad subscriber cannot orphan its peers. Further
// Publish calls for executionID are no-ops until Add is called again.
func (h *Hub) RemoveAll(executionID string) {
	s := h.setFor(executionID, false)
	if s == nil {
		return
	}

	s.mu.Lock()
	members := s.members
	s.members = make(map[string]Subscriber)
	s.removed = true
	s.mu.Unlock()

	for _, sub := range members {
		h.teardown(sub)
	}
}

func (h *Hub) teardown(sub Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error(nil, "subscriber teardown panicked", "recovered", r, "subscriber", sub.Identity())
		}
	}()

	sub.OnDelete()
}

// Count returns the number of live subscribers for executionID (test/debug
// helper exercising the testable property in spec.md §8 "Hub fan-out").
func (h *Hub) Count(executionID string) int {
	s := h.setFor(executionID, false)
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.members)
}
