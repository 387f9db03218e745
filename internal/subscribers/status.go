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
	"fmt"
	"strings"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/hub"
)

// isBad reports whether a per-case result counts against passingCount and
// flips the overall suite to Failing (spec.md §4.D.1 step 1).
func isBad(status string) bool {
	switch v1alpha1.TestCaseStatus(status) {
	case v1alpha1.TestCaseFailed, v1alpha1.TestCaseError:
		return true
	default:
		return false
	}
}

// classify computes the overall execution status, the passingCount string,
// the ordered test case records, and the names of the bad cases (for the
// error event message) — spec.md §4.D.1 steps 1-3, and the "Passing count"
// testable property of spec.md §8.
func classify(report hub.Report) (overall v1alpha1.ExecutionStatus, passingCount string, cases []v1alpha1.TestCaseRecord, badNames []string) {
	n := len(report.TestCaseResults)
	bad := 0

	cases = make([]v1alpha1.TestCaseRecord, 0, n)

	for _, c := range report.TestCaseResults {
		rec := v1alpha1.TestCaseRecord{
			Name:          c.Name,
			Status:        v1alpha1.TestCaseStatus(c.Status),
			ExecutionTime: c.Duration,
		}

		if isBad(c.Status) {
			bad++
			badNames = append(badNames, c.Name)
			if c.ErrorMessage != "" {
				rec.Error = c.ErrorMessage
			}
		}

		cases = append(cases, rec)
	}

	if bad > 0 {
		overall = v1alpha1.ExecutionFailing
	} else {
		overall = v1alpha1.ExecutionSucceeding
	}

	passingCount = fmt.Sprintf("%d / %d", n-bad, n)

	return overall, passingCount, cases, badNames
}

// applyMonotoneBookkeeping computes the next lastSucceededTime /
// lastExecutionErrorTime pair per the invariant in spec.md §3: the side
// matching the current overall status advances to startedAt; the other side
// carries forward unchanged, or is the sentinel "-" if it never had a value.
func applyMonotoneBookkeeping(prev v1alpha1.TestSuiteStatus, overall v1alpha1.ExecutionStatus, startedAt string) (lastSucceeded, lastError string) {
	lastSucceeded = prev.LastSucceededTime
	if lastSucceeded == "" {
		lastSucceeded = v1alpha1.NeverSentinel
	}

	lastError = prev.LastExecutionErrorTime
	if lastError == "" {
		lastError = v1alpha1.NeverSentinel
	}

	switch overall {
	case v1alpha1.ExecutionSucceeding:
		lastSucceeded = startedAt
	case v1alpha1.ExecutionFailing:
		lastError = startedAt
	}

	return lastSucceeded, lastError
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
