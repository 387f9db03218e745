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

package lifecycle

import (
	"crypto/sha1" //nolint:gosec // used only for a deterministic, non-cryptographic id, not a security boundary.
	"fmt"

	"github.com/carv-ics-forth/testwatch/internal/registry"
)

// JobName deterministically derives the CronJob name for key:
// <name>-<6 hex of sha1(namespace/name)>. Deterministic so that
// resume-on-restart (spec.md §4.E) recomputes the same name from annotations.
func JobName(key registry.Key) string {
	sum := sha1.Sum([]byte(key.String())) //nolint:gosec

	return fmt.Sprintf("%s-%x", key.Name, sum[:3])
}

// ExecutionID deterministically derives the 8-hex worker task id for key.
// Stable for the lifetime of the resource; never regenerated once created
// (spec.md §3 invariant) — regenerating it would orphan in-flight workers
// still tagged with the old id.
func ExecutionID(key registry.Key) string {
	sum := sha1.Sum([]byte(key.String())) //nolint:gosec

	return fmt.Sprintf("%x", sum[:4])
}
