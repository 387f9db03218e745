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

package grpcserver

import (
	"context"
	"net"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/carv-ics-forth/testwatch/api/v1alpha1"
	"github.com/carv-ics-forth/testwatch/internal/hub"
)

// Publisher is the subset of *hub.Hub the report handler needs.
type Publisher interface {
	Publish(report hub.Report)
}

// reportServer implements reportServiceServer, translating the wire
// representation of spec.md §6.3 into hub.Report before handing it to
// Hub.Publish.
type reportServer struct {
	publisher Publisher
	log       logr.Logger
}

func (s *reportServer) Report(_ context.Context, req *ReportRequest) (*ReportReply, error) {
	if strings.TrimSpace(req.ExecutionID) == "" {
		return nil, status.Error(codes.InvalidArgument, "execution_id is required")
	}
	if strings.TrimSpace(req.StartedAtTime) == "" {
		return nil, status.Error(codes.InvalidArgument, "started_at_time is required")
	}

	results := make([]hub.TestCaseResult, 0, len(req.TestCaseResults))
	for _, c := range req.TestCaseResults {
		caseStatus, err := normalizeStatus(c.Status)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		results = append(results, hub.TestCaseResult{
			Name:         c.Name,
			Status:       string(caseStatus),
			Duration:     c.ExecutionDuration,
			ErrorMessage: c.ErrorMessage,
		})
	}

	s.publisher.Publish(hub.Report{
		ExecutionID:     req.ExecutionID,
		StartedAt:       req.StartedAtTime,
		TestCaseResults: results,
	})

	s.log.V(1).Info("report accepted", "executionID", req.ExecutionID, "cases", len(results))

	return &ReportReply{Message: "accepted"}, nil
}

// normalizeStatus maps the wire enum (spec.md §6.3: SUCCEEDED, FAILED,
// NOTIMPLEMENTED, ERROR) onto the TestCaseStatus values the rest of the
// controller (internal/subscribers) compares against. An unrecognized code
// is a programming-invariant violation (spec.md §7 taxonomy (f)) from the
// worker's perspective, but is reported back to the caller as an invalid
// argument rather than crashing the server.
func normalizeStatus(wire string) (v1alpha1.TestCaseStatus, error) {
	switch strings.ToUpper(wire) {
	case "SUCCEEDED":
		return v1alpha1.TestCaseSucceeded, nil
	case "FAILED":
		return v1alpha1.TestCaseFailed, nil
	case "NOTIMPLEMENTED":
		return v1alpha1.TestCaseNotImplemented, nil
	case "ERROR":
		return v1alpha1.TestCaseError, nil
	default:
		return "", errors.Errorf("unrecognized test case status %q", wire)
	}
}

// Server owns the gRPC listener for spec.md §6.3: the Report service plus
// the standard health service.
type Server struct {
	addr   string
	log    logr.Logger
	grpc   *grpc.Server
	health *health.Server
}

// New constructs a Server bound to addr (unstarted). publisher is typically
// the process-wide *hub.Hub.
func New(addr string, publisher Publisher, log logr.Logger) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()

	RegisterReportServiceServer(grpcServer, &reportServer{publisher: publisher, log: log})
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{
		addr:   addr,
		log:    log,
		grpc:   grpcServer,
		health: healthServer,
	}
}

// Serve blocks, accepting connections on s.addr until Stop is called.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.addr)
	}

	s.log.Info("gRPC server listening", "addr", s.addr)

	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight calls before returning.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
