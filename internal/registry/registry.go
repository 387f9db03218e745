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

// Package registry is the single source of truth for which TestSuite
// resources the controller believes it is managing (spec.md §4.C).
package registry

import (
	"time"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
)

// ErrAlreadyExists is returned by Insert when a record for the same key is
// already present. The resume-on-restart path treats this as benign
// (spec.md §4.C); every other caller treats it as a programming error.
var ErrAlreadyExists = errors.New("resource record already exists")

// Key identifies a managed resource by (namespace, name).
type Key struct {
	Namespace string
	Name      string
}

func (k Key) String() string {
	return k.Namespace + "/" + k.Name
}

// Record is the in-memory bookkeeping the Lifecycle Controller keeps for one
// managed TestSuite (spec.md §3 "Resource Record").
type Record struct {
	Key Key

	Plural      string
	JobName     string
	ExecutionID string

	SpecSnapshot v1alpha1.TestSuiteSpec
	Schedule     string
	Phase        v1alpha1.Phase

	// ObjectRef lets an EventPoster (internal/subscribers, internal/lifecycle)
	// record an event against the CRD without re-fetching it on every report.
	ObjectRef *corev1.ObjectReference

	// LastStatus is the most recently produced Status Snapshot, used by the
	// status-updater subscriber to apply the monotone-bookkeeping rule
	// (spec.md §3) without re-reading the live object.
	LastStatus v1alpha1.TestSuiteStatus

	CreatedAt time.Time
}

// Registry is a thread-safe index of live Records, keyed by (namespace,name).
// Backed by github.com/orcaman/concurrent-map, which shards its internal
// locking across the key space instead of a single global mutex — a good
// match here since Lifecycle handlers for different resources run
// concurrently (spec.md §5) and each only ever touches its own key.
type Registry struct {
	records cmap.ConcurrentMap
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{records: cmap.New()}
}

// Insert adds rec under its Key. Returns ErrAlreadyExists if a record for
// that key is already present — the Create handler treats that as a bug
// (spec.md §4.E step 2), the resume-on-restart handler treats it as benign.
func (r *Registry) Insert(rec *Record) error {
	inserted := r.records.SetIfAbsent(rec.Key.String(), rec)
	if !inserted {
		return ErrAlreadyExists
	}
	return nil
}

// Get looks up the record for key. The returned bool mirrors map-comma-ok.
func (r *Registry) Get(key Key) (*Record, bool) {
	v, ok := r.records.Get(key.String())
	if !ok {
		return nil, false
	}
	return v.(*Record), true
}

// Remove deletes the record for key, if any. A no-op if absent.
func (r *Registry) Remove(key Key) {
	r.records.Remove(key.String())
}

// Update replaces the record stored under rec.Key. Used by handlers that
// mutate a Record in place (phase transitions, status snapshot updates).
// Get returns the stored pointer, not a copy, so such mutations are already
// visible to every holder of that pointer before Update runs; Record itself
// is not internally synchronized, and Registry only synchronizes the map.
func (r *Registry) Update(rec *Record) {
	r.records.Set(rec.Key.String(), rec)
}

// Count reports the number of managed records (debug/metrics use).
func (r *Registry) Count() int {
	return r.records.Count()
}

// Keys returns every managed key (debug use).
func (r *Registry) Keys() []Key {
	items := r.records.Items()
	keys := make([]Key, 0, len(items))
	for _, v := range items {
		keys = append(keys, v.(*Record).Key)
	}
	return keys
}
