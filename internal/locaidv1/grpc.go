package locaidv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	AuthServiceName    = "locaid.v1.AuthService"
	MessageServiceName = "locaid.v1.MessageService"
	ProfileServiceName = "locaid.v1.ProfileService"
)

// unary builds the method descriptor of a unary RPC from a method
// expression of the server interface.
func unary[S, Req, Res any](service, method string, call func(S, context.Context, *Req) (*Res, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// serverStream builds the descriptor of a server-streaming RPC.
func serverStream[S, Req, Res any](method string, call func(S, *Req, grpc.ServerStreamingServer[Res]) error) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    method,
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(Req)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return call(srv.(S), in, &grpc.GenericServerStream[Req, Res]{ServerStream: stream})
		},
	}
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, "/"+service+"/"+method, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func openServerStream[Req, Res any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.ServiceDesc, idx int, in *Req, opts []grpc.CallOption) (grpc.ServerStreamingClient[Res], error) {
	sd := &desc.Streams[idx]
	stream, err := cc.NewStream(ctx, sd, "/"+desc.ServiceName+"/"+sd.StreamName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[Req, Res]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// AuthService

type AuthServiceServer interface {
	GetUser(context.Context, *emptypb.Empty) (*UserReply, error)
	SignIn(context.Context, *SignInRequest) (*UserReply, error)
	SignOut(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	WatchAuth(*emptypb.Empty, grpc.ServerStreamingServer[AuthEvent]) error
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AuthServiceName, "GetUser", AuthServiceServer.GetUser),
		unary(AuthServiceName, "SignIn", AuthServiceServer.SignIn),
		unary(AuthServiceName, "SignOut", AuthServiceServer.SignOut),
	},
	Streams: []grpc.StreamDesc{
		serverStream("WatchAuth", AuthServiceServer.WatchAuth),
	},
	Metadata: "locaid/v1/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

type AuthServiceClient interface {
	GetUser(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*UserReply, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*UserReply, error)
	SignOut(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	WatchAuth(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AuthEvent], error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc}
}

func (c *authServiceClient) GetUser(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*UserReply, error) {
	return invoke[UserReply](ctx, c.cc, AuthServiceName, "GetUser", in, opts)
}

func (c *authServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*UserReply, error) {
	return invoke[UserReply](ctx, c.cc, AuthServiceName, "SignIn", in, opts)
}

func (c *authServiceClient) SignOut(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, AuthServiceName, "SignOut", in, opts)
}

func (c *authServiceClient) WatchAuth(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AuthEvent], error) {
	return openServerStream[emptypb.Empty, AuthEvent](ctx, c.cc, &AuthService_ServiceDesc, 0, in, opts)
}

// MessageService

type MessageServiceServer interface {
	ListParticipants(context.Context, *ParticipantsRequest) (*ParticipantsReply, error)
	ListThread(context.Context, *ThreadRequest) (*ThreadReply, error)
	InsertMessage(context.Context, *InsertMessageRequest) (*MessageReply, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[ChangeEvent]) error
}

var MessageService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MessageServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MessageServiceName, "ListParticipants", MessageServiceServer.ListParticipants),
		unary(MessageServiceName, "ListThread", MessageServiceServer.ListThread),
		unary(MessageServiceName, "InsertMessage", MessageServiceServer.InsertMessage),
	},
	Streams: []grpc.StreamDesc{
		serverStream("Subscribe", MessageServiceServer.Subscribe),
	},
	Metadata: "locaid/v1/message.proto",
}

func RegisterMessageServiceServer(s grpc.ServiceRegistrar, srv MessageServiceServer) {
	s.RegisterService(&MessageService_ServiceDesc, srv)
}

type MessageServiceClient interface {
	ListParticipants(ctx context.Context, in *ParticipantsRequest, opts ...grpc.CallOption) (*ParticipantsReply, error)
	ListThread(ctx context.Context, in *ThreadRequest, opts ...grpc.CallOption) (*ThreadReply, error)
	InsertMessage(ctx context.Context, in *InsertMessageRequest, opts ...grpc.CallOption) (*MessageReply, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ChangeEvent], error)
}

type messageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageServiceClient(cc grpc.ClientConnInterface) MessageServiceClient {
	return &messageServiceClient{cc}
}

func (c *messageServiceClient) ListParticipants(ctx context.Context, in *ParticipantsRequest, opts ...grpc.CallOption) (*ParticipantsReply, error) {
	return invoke[ParticipantsReply](ctx, c.cc, MessageServiceName, "ListParticipants", in, opts)
}

func (c *messageServiceClient) ListThread(ctx context.Context, in *ThreadRequest, opts ...grpc.CallOption) (*ThreadReply, error) {
	return invoke[ThreadReply](ctx, c.cc, MessageServiceName, "ListThread", in, opts)
}

func (c *messageServiceClient) InsertMessage(ctx context.Context, in *InsertMessageRequest, opts ...grpc.CallOption) (*MessageReply, error) {
	return invoke[MessageReply](ctx, c.cc, MessageServiceName, "InsertMessage", in, opts)
}

func (c *messageServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ChangeEvent], error) {
	return openServerStream[SubscribeRequest, ChangeEvent](ctx, c.cc, &MessageService_ServiceDesc, 0, in, opts)
}

// ProfileService

type ProfileServiceServer interface {
	ResolveProfiles(context.Context, *ResolveProfilesRequest) (*ProfilesReply, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileReply, error)
	UpsertProfile(context.Context, *UpsertProfileRequest) (*ProfileReply, error)
}

var ProfileService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProfileServiceName, "ResolveProfiles", ProfileServiceServer.ResolveProfiles),
		unary(ProfileServiceName, "GetProfile", ProfileServiceServer.GetProfile),
		unary(ProfileServiceName, "UpsertProfile", ProfileServiceServer.UpsertProfile),
	},
	Metadata: "locaid/v1/profile.proto",
}

func RegisterProfileServiceServer(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(&ProfileService_ServiceDesc, srv)
}

type ProfileServiceClient interface {
	ResolveProfiles(ctx context.Context, in *ResolveProfilesRequest, opts ...grpc.CallOption) (*ProfilesReply, error)
	GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileReply, error)
	UpsertProfile(ctx context.Context, in *UpsertProfileRequest, opts ...grpc.CallOption) (*ProfileReply, error)
}

type profileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProfileServiceClient(cc grpc.ClientConnInterface) ProfileServiceClient {
	return &profileServiceClient{cc}
}

func (c *profileServiceClient) ResolveProfiles(ctx context.Context, in *ResolveProfilesRequest, opts ...grpc.CallOption) (*ProfilesReply, error) {
	return invoke[ProfilesReply](ctx, c.cc, ProfileServiceName, "ResolveProfiles", in, opts)
}

func (c *profileServiceClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileReply, error) {
	return invoke[ProfileReply](ctx, c.cc, ProfileServiceName, "GetProfile", in, opts)
}

func (c *profileServiceClient) UpsertProfile(ctx context.Context, in *UpsertProfileRequest, opts ...grpc.CallOption) (*ProfileReply, error) {
	return invoke[ProfileReply](ctx, c.cc, ProfileServiceName, "UpsertProfile", in, opts)
}
