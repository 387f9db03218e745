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

	"google.golang.org/grpc"
)

// reportServiceServer is the interface protoc-gen-go-grpc would normally
// generate from the .proto service definition.
type reportServiceServer interface {
	Report(ctx context.Context, req *ReportRequest) (*ReportReply, error)
}

// RegisterReportServiceServer wires srv into s under the service descriptor
// below — the hand-written equivalent of the generated
// RegisterXxxServer function.
func RegisterReportServiceServer(s grpc.ServiceRegistrar, srv reportServiceServer) {
	s.RegisterService(&reportServiceServiceDesc, srv)
}

func reportServiceReportHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(reportServiceServer).Report(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/testwatch.Report/Report",
	}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(reportServiceServer).Report(ctx, req.(*ReportRequest))
	}

	return interceptor(ctx, in, info, handler)
}

// reportServiceServiceDesc mirrors the shape protoc-gen-go-grpc emits for a
// single-method service.
var reportServiceServiceDesc = grpc.ServiceDesc{
	ServiceName: "testwatch.Report",
	HandlerType: (*reportServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Report",
			Handler:    reportServiceReportHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "testwatch/report.proto",
}
