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

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Phase is the controller-visible lifecycle state of a TestSuite.
type Phase string

const (
	// PhasePending means the resource was accepted but has not yet been
	// validated and wired into the reconciliation core.
	PhasePending Phase = "Pending"

	// PhaseActive means a CronJob exists and subscribers are registered.
	PhaseActive Phase = "Active"

	// PhaseSuspended means .spec.suspend is true; no subscribers are wired.
	PhaseSuspended Phase = "Suspended"

	// PhaseFailed is terminal for this instance until the user edits the resource.
	PhaseFailed Phase = "Failed"
)

// ExecutionStatus summarizes the health derived from the latest report.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "Pending"
	ExecutionSucceeding ExecutionStatus = "Succeeding"
	ExecutionFailing   ExecutionStatus = "Failing"
)

// TestCaseStatus is the per-case outcome status reported by a worker.
type TestCaseStatus string

const (
	TestCaseSucceeded      TestCaseStatus = "Succeeded"
	TestCaseFailed         TestCaseStatus = "Failed"
	TestCaseNotImplemented TestCaseStatus = "NotImplemented"
	TestCaseError          TestCaseStatus = "Error"
)

// NeverSentinel is written to a timestamp field that has never been observed.
const NeverSentinel = "-"

// NetworkValidation is a single assertion entry in .spec.networkValidations.
// Exactly one of the assertion fields below must be set; this is enforced by
// the injected validator (internal/lifecycle/validation.go), not by CRD
// field validation (out of scope, see spec.md §1).
type NetworkValidation struct {
	// Name must be unique within the suite.
	Name string `json:"name"`

	// AllowedToFail marks a case whose failure should not flip the overall
	// suite to Failing (reserved for worker-side interpretation; the
	// controller itself never inspects it, per spec.md §4.D.1).
	// +optional
	AllowedToFail bool `json:"allowedToFail,omitempty"`

	// +optional
	TestDNSResolution *TestDNSResolutionAssertion `json:"testDNSResolution,omitempty"`

	// +optional
	TestIPBlock *TestIPBlockAssertion `json:"testIpBlock,omitempty"`

	// +optional
	TestExactDestination *TestExactDestinationAssertion `json:"testExactDestination,omitempty"`
}

type TestDNSResolutionAssertion struct {
	Hostname string `json:"hostname"`
}

type TestIPBlockAssertion struct {
	CIDR    string `json:"cidr"`
	Blocked bool   `json:"blocked"`
}

type TestExactDestinationAssertion struct {
	Address string `json:"address"`
	Port    int32  `json:"port"`
}

// TestSuiteSpec is the desired state of a recurring test suite.
type TestSuiteSpec struct {
	// Schedule is a standard 5-field cron expression.
	Schedule string `json:"schedule"`

	// Name is a human-readable name, unique within the namespace.
	Name string `json:"name"`

	// Suspend pauses report collection and watchdog checks without deleting
	// the underlying CronJob's history.
	// +optional
	Suspend *bool `json:"suspend,omitempty"`

	// NetworkValidations is the ordered list of assertions the worker will run.
	NetworkValidations []NetworkValidation `json:"networkValidations,omitempty"`
}

// IsSuspended reports the effective value of the optional Suspend field.
func (s *TestSuiteSpec) IsSuspended() bool {
	return s.Suspend != nil && *s.Suspend
}

// TestCaseRecord is a single per-case result carried in .status.testCases.
type TestCaseRecord struct {
	Name          string         `json:"name"`
	Status        TestCaseStatus `json:"status"`
	ExecutionTime string         `json:"executionTime"`
	// +optional
	Error string `json:"error,omitempty"`
}

// TestSuiteStatus is the live view of test health that the controller maintains.
type TestSuiteStatus struct {
	// +optional
	Phase Phase `json:"phase,omitempty"`

	// +optional
	TestExecutionStatus ExecutionStatus `json:"testExecutionStatus,omitempty"`

	// LastExecutionTime is an ISO-8601 string, or the sentinel "-".
	// +optional
	LastExecutionTime string `json:"lastExecutionTime,omitempty"`

	// +optional
	LastSucceededTime string `json:"lastSucceededTime,omitempty"`

	// +optional
	LastExecutionErrorTime string `json:"lastExecutionErrorTime,omitempty"`

	// +optional
	TestCases []TestCaseRecord `json:"testCases,omitempty"`

	// PassingCount is the string "K / N".
	// +optional
	PassingCount string `json:"passingCount,omitempty"`

	// +optional
	Suspended bool `json:"suspended,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Status",type=string,JSONPath=`.status.testExecutionStatus`
// +kubebuilder:printcolumn:name="Passing",type=string,JSONPath=`.status.passingCount`

// TestSuite is the Schema for the testsuites API.
type TestSuite struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   TestSuiteSpec   `json:"spec,omitempty"`
	Status TestSuiteStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// TestSuiteList contains a list of TestSuite.
type TestSuiteList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []TestSuite `json:"items"`
}
