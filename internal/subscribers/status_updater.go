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

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/hub"
	"github.com/carv-ics-forth/testwatch/internal/registry"
)

// StatusUpdater is the subscriber that translates each incoming report into
// a .status patch (spec.md §4.D.1). One instance per managed resource.
//
// Its own state (prev) is touched only by the delivery thread that calls
// Update (spec.md §5 "Subscriber internal state is touched only by ... the
// delivery thread"). The Hub holds its per-id lock across an entire Publish
// call (internal/hub/hub.go), so two Update calls for the same execution id
// never run concurrently — this mutex is a defensive second guard on prev,
// not what makes cross-call ordering safe.
type StatusUpdater struct {
	key    registry.Key
	writer StatusWriter
	poster EventPoster
	annot  Annotator // may be nil
	log    logr.Logger

	mu   sync.Mutex
	prev v1alpha1.TestSuiteStatus
}

var _ hub.Subscriber = (*StatusUpdater)(nil)

// NewStatusUpdater constructs a StatusUpdater seeded with the last known
// status snapshot (rec.LastStatus) — non-empty across a suspend/resume cycle
// or a controller restart, empty for a brand new resource.
func NewStatusUpdater(key registry.Key, seed v1alpha1.TestSuiteStatus, writer StatusWriter, poster EventPoster, annot Annotator, log logr.Logger) *StatusUpdater {
	return &StatusUpdater{
		key:    key,
		writer: writer,
		poster: poster,
		annot:  annot,
		log:    log,
		prev:   seed,
	}
}

func (s *StatusUpdater) Identity() string { return "status-updater:" + s.key.String() }

func (s *StatusUpdater) Update(report hub.Report) error {
	overall, passingCount, cases, badNames := classify(report)

	s.mu.Lock()
	lastSucceeded, lastError := applyMonotoneBookkeeping(s.prev, overall, report.StartedAt)
	previousOverall := s.prev.TestExecutionStatus
	if previousOverall == "" {
		previousOverall = v1alpha1.ExecutionPending
	}

	status := v1alpha1.TestSuiteStatus{
		Phase:                  v1alpha1.PhaseActive,
		TestExecutionStatus:    overall,
		LastExecutionTime:      report.StartedAt,
		LastSucceededTime:      lastSucceeded,
		LastExecutionErrorTime: lastError,
		TestCases:              cases,
		PassingCount:           passingCount,
		Suspended:              false,
	}
	s.prev = status
	s.mu.Unlock()

	ctx := context.Background()

	if err := s.writer.ApplyStatus(ctx, s.key, status); err != nil {
		return errors.Wrap(err, "apply status patch")
	}

	if overall == v1alpha1.ExecutionFailing && s.poster != nil {
		s.poster.PostEvent(ctx, s.key, "Warning", "TestCasesFailing",
			fmt.Sprintf("failing case(s): [%s]", joinNames(badNames)))
	}

	if s.annot != nil && previousOverall != overall {
		s.annot.AnnotateTransition(s.key, previousOverall, overall, passingCount)
	}

	return nil
}

func (s *StatusUpdater) OnDelete() {
	s.log.V(1).Info("status-updater removed", "resource", s.key.String())
}
