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

// Package grpcserver implements the wire protocol of spec.md §6.3: a single
// unary Report method plus the standard gRPC health service. There is no
// .proto source in this tree — protoc cannot run here — so the request and
// reply are plain structs carried over a JSON wire codec (codec.go)
// registered under the name the grpc-go runtime otherwise reserves for
// protobuf, rather than hand-authored protoreflect-based message types.
package grpcserver

// TestCaseResultMessage is one entry of ReportRequest.TestCaseResults.
type TestCaseResultMessage struct {
	Name              string `json:"name"`
	Status            string `json:"status"` // SUCCEEDED | FAILED | NOTIMPLEMENTED | ERROR
	ExecutionDuration string `json:"execution_duration"`
	ErrorMessage      string `json:"error_message"`
}

// ReportRequest is the body of the single unary method of spec.md §6.3.
type ReportRequest struct {
	ExecutionID     string                  `json:"execution_id"`
	StartedAtTime   string                  `json:"started_at_time"`
	TestCaseResults []TestCaseResultMessage `json:"test_case_results"`
}

// ReportReply is the response of spec.md §6.3.
type ReportReply struct {
	Message string `json:"message"`
}
