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

// Package subscribers implements the two Hub subscriber kinds of spec.md
// §4.D: the status-updater, which turns a report into a .status patch, and
// the deadline-watchdog, which detects a missing report.
package subscribers

import (
	"context"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/registry"
)

// EventPoster is the opaque facade into the framework's per-handler event
// context (spec.md §9 "Context passing for framework event posting"). The
// context is an explicit argument: the Lifecycle Controller implements this
// interface itself and records the event against the ObjectRef kept in the
// Registry, and the subscribers pass context.Background(). Subscribers never
// see the framework's client or ambient context type directly.
type EventPoster interface {
	PostEvent(ctx context.Context, key registry.Key, eventType, reason, message string)
}

// StatusWriter applies a computed status patch to the live CRD object.
type StatusWriter interface {
	ApplyStatus(ctx context.Context, key registry.Key, status v1alpha1.TestSuiteStatus) error
}

// Annotator posts best-effort observability annotations on status
// transitions (internal/telemetry, adapted from the teacher's Grafana
// annotator). Optional: a nil Annotator disables this, mirroring the
// teacher's `common.Globals.Annotator != nil` guard.
type Annotator interface {
	AnnotateTransition(key registry.Key, from, to v1alpha1.ExecutionStatus, message string)
}
