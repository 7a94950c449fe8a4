package workforcev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const RosterService_ServiceName = "workforce.v1.RosterService"

const (
	RosterService_Refresh_FullMethodName         = "/workforce.v1.RosterService/Refresh"
	RosterService_GetSnapshot_FullMethodName     = "/workforce.v1.RosterService/GetSnapshot"
	RosterService_AssignShift_FullMethodName     = "/workforce.v1.RosterService/AssignShift"
	RosterService_AssignLocations_FullMethodName = "/workforce.v1.RosterService/AssignLocations"
	RosterService_RemoveLocation_FullMethodName  = "/workforce.v1.RosterService/RemoveLocation"
	RosterService_ApplyBulk_FullMethodName       = "/workforce.v1.RosterService/ApplyBulk"
	RosterService_InviteMember_FullMethodName    = "/workforce.v1.RosterService/InviteMember"
)

// RosterServiceServer is the server API for RosterService.
type RosterServiceServer interface {
	Refresh(context.Context, *RefreshRequest) (*RosterView, error)
	GetSnapshot(context.Context, *GetSnapshotRequest) (*RosterView, error)
	AssignShift(context.Context, *AssignShiftRequest) (*OutcomeResponse, error)
	AssignLocations(context.Context, *AssignLocationsRequest) (*OutcomeResponse, error)
	RemoveLocation(context.Context, *RemoveLocationRequest) (*OutcomeResponse, error)
	ApplyBulk(context.Context, *ApplyBulkRequest) (*BulkResponse, error)
	InviteMember(context.Context, *InviteMemberRequest) (*InviteMemberResponse, error)
}

// UnimplementedRosterServiceServer returns Unimplemented for every method.
type UnimplementedRosterServiceServer struct{}

func (UnimplementedRosterServiceServer) Refresh(context.Context, *RefreshRequest) (*RosterView, error) {
	return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
}
func (UnimplementedRosterServiceServer) GetSnapshot(context.Context, *GetSnapshotRequest) (*RosterView, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSnapshot not implemented")
}
func (UnimplementedRosterServiceServer) AssignShift(context.Context, *AssignShiftRequest) (*OutcomeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AssignShift not implemented")
}
func (UnimplementedRosterServiceServer) AssignLocations(context.Context, *AssignLocationsRequest) (*OutcomeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AssignLocations not implemented")
}
func (UnimplementedRosterServiceServer) RemoveLocation(context.Context, *RemoveLocationRequest) (*OutcomeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveLocation not implemented")
}
func (UnimplementedRosterServiceServer) ApplyBulk(context.Context, *ApplyBulkRequest) (*BulkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ApplyBulk not implemented")
}
func (UnimplementedRosterServiceServer) InviteMember(context.Context, *InviteMemberRequest) (*InviteMemberResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InviteMember not implemented")
}

// RegisterRosterServiceServer registers srv with s.
func RegisterRosterServiceServer(s grpc.ServiceRegistrar, srv RosterServiceServer) {
	s.RegisterService(&RosterService_ServiceDesc, srv)
}

func unary[Req, Resp any](fullMethod string, call func(RosterServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RosterServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RosterServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RosterService_ServiceDesc is the grpc.ServiceDesc for RosterService.
var RosterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: RosterService_ServiceName,
	HandlerType: (*RosterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Refresh", Handler: unary(RosterService_Refresh_FullMethodName, RosterServiceServer.Refresh)},
		{MethodName: "GetSnapshot", Handler: unary(RosterService_GetSnapshot_FullMethodName, RosterServiceServer.GetSnapshot)},
		{MethodName: "AssignShift", Handler: unary(RosterService_AssignShift_FullMethodName, RosterServiceServer.AssignShift)},
		{MethodName: "AssignLocations", Handler: unary(RosterService_AssignLocations_FullMethodName, RosterServiceServer.AssignLocations)},
		{MethodName: "RemoveLocation", Handler: unary(RosterService_RemoveLocation_FullMethodName, RosterServiceServer.RemoveLocation)},
		{MethodName: "ApplyBulk", Handler: unary(RosterService_ApplyBulk_FullMethodName, RosterServiceServer.ApplyBulk)},
		{MethodName: "InviteMember", Handler: unary(RosterService_InviteMember_FullMethodName, RosterServiceServer.InviteMember)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "workforce/v1/roster.json",
}

// RosterServiceClient is the client API for RosterService.
type RosterServiceClient interface {
	Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RosterView, error)
	GetSnapshot(ctx context.Context, in *GetSnapshotRequest, opts ...grpc.CallOption) (*RosterView, error)
	AssignShift(ctx context.Context, in *AssignShiftRequest, opts ...grpc.CallOption) (*OutcomeResponse, error)
	AssignLocations(ctx context.Context, in *AssignLocationsRequest, opts ...grpc.CallOption) (*OutcomeResponse, error)
	RemoveLocation(ctx context.Context, in *RemoveLocationRequest, opts ...grpc.CallOption) (*OutcomeResponse, error)
	ApplyBulk(ctx context.Context, in *ApplyBulkRequest, opts ...grpc.CallOption) (*BulkResponse, error)
	InviteMember(ctx context.Context, in *InviteMemberRequest, opts ...grpc.CallOption) (*InviteMemberResponse, error)
}

type rosterServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRosterServiceClient returns a client that speaks the JSON codec over cc.
func NewRosterServiceClient(cc grpc.ClientConnInterface) RosterServiceClient {
	return &rosterServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rosterServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RosterView, error) {
	return invoke[RosterView](ctx, c.cc, RosterService_Refresh_FullMethodName, in, opts)
}

func (c *rosterServiceClient) GetSnapshot(ctx context.Context, in *GetSnapshotRequest, opts ...grpc.CallOption) (*RosterView, error) {
	return invoke[RosterView](ctx, c.cc, RosterService_GetSnapshot_FullMethodName, in, opts)
}

func (c *rosterServiceClient) AssignShift(ctx context.Context, in *AssignShiftRequest, opts ...grpc.CallOption) (*OutcomeResponse, error) {
	return invoke[OutcomeResponse](ctx, c.cc, RosterService_AssignShift_FullMethodName, in, opts)
}

func (c *rosterServiceClient) AssignLocations(ctx context.Context, in *AssignLocationsRequest, opts ...grpc.CallOption) (*OutcomeResponse, error) {
	return invoke[OutcomeResponse](ctx, c.cc, RosterService_AssignLocations_FullMethodName, in, opts)
}

func (c *rosterServiceClient) RemoveLocation(ctx context.Context, in *RemoveLocationRequest, opts ...grpc.CallOption) (*OutcomeResponse, error) {
	return invoke[OutcomeResponse](ctx, c.cc, RosterService_RemoveLocation_FullMethodName, in, opts)
}

func (c *rosterServiceClient) ApplyBulk(ctx context.Context, in *ApplyBulkRequest, opts ...grpc.CallOption) (*BulkResponse, error) {
	return invoke[BulkResponse](ctx, c.cc, RosterService_ApplyBulk_FullMethodName, in, opts)
}

func (c *rosterServiceClient) InviteMember(ctx context.Context, in *InviteMemberRequest, opts ...grpc.CallOption) (*InviteMemberResponse, error) {
	return invoke[InviteMemberResponse](ctx, c.cc, RosterService_InviteMember_FullMethodName, in, opts)
}
