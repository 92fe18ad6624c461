package api

import (
	"context"

	"github.com/MacklinHill1/neighborhood-help-app/internal/identity"
	v1 "github.com/MacklinHill1/neighborhood-help-app/internal/locaidv1"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// AuthService implements the AuthService gRPC service.
type AuthService struct {
	provider *identity.Provider
}

// NewAuthService creates an auth service backed by the identity provider.
func NewAuthService(p *identity.Provider) *AuthService {
	return &AuthService{provider: p}
}

func (s *AuthService) GetUser(_ context.Context, _ *emptypb.Empty) (*v1.UserReply, error) {
	return &v1.UserReply{User: s.provider.Current()}, nil
}

func (s *AuthService) SignIn(ctx context.Context, req *v1.SignInRequest) (*v1.UserReply, error) {
	u, err := s.provider.SignIn(ctx, req.UserID, req.Email)
	if err != nil {
		return nil, toStatus("sign in", err)
	}
	return &v1.UserReply{User: u}, nil
}

func (s *AuthService) SignOut(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.provider.SignOut(ctx); err != nil {
		return nil, toStatus("sign out", err)
	}
	return &emptypb.Empty{}, nil
}

// WatchAuth sends the current session first, then every sign-in and
// sign-out until the client goes away.
func (s *AuthService) WatchAuth(_ *emptypb.Empty, stream grpc.ServerStreamingServer[v1.AuthEvent]) error {
	sub := s.provider.Watch(16)
	defer sub.Close()

	if err := stream.Send(&v1.AuthEvent{Event: v1.AuthInitialSession, User: s.provider.Current()}); err != nil {
		return err
	}

	for {
		select {
		case evt, ok := <-sub.C:
			if !ok {
				return nil
			}
			ae, ok := evt.Payload.(identity.AuthEvent)
			if !ok {
				continue
			}
			if err := stream.Send(&v1.AuthEvent{Event: string(ae.Type), User: ae.User}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}
