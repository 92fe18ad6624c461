// Package client is the gRPC client of the daemon. It implements
// conversation.Backend so views can run against a remote backend.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	v1 "github.com/MacklinHill1/neighborhood-help-app/internal/locaidv1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Client wraps the gRPC connection to the daemon.
type Client struct {
	conn    *grpc.ClientConn
	Auth    v1.AuthServiceClient
	Message v1.MessageServiceClient
	Profile v1.ProfileServiceClient
	Health  healthpb.HealthClient
}

var _ conversation.Backend = (*Client)(nil)

// New dials the daemon's Unix domain socket and returns typed service clients.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}

	return &Client{
		conn:    conn,
		Auth:    v1.NewAuthServiceClient(conn),
		Message: v1.NewMessageServiceClient(conn),
		Profile: v1.NewProfileServiceClient(conn),
		Health:  healthpb.NewHealthClient(conn),
	}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping reports whether the daemon is serving.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("daemon status %s", resp.GetStatus())
	}
	return nil
}

// CurrentUser returns the signed-in user, or nil.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	reply, err := c.Auth.GetUser(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return reply.User, nil
}

func (c *Client) SignIn(ctx context.Context, userID, email string) (*domain.User, error) {
	reply, err := c.Auth.SignIn(ctx, &v1.SignInRequest{UserID: userID, Email: email})
	if err != nil {
		return nil, err
	}
	return reply.User, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.Auth.SignOut(ctx, &emptypb.Empty{})
	return err
}

// WatchAuth calls fn for every auth event, starting with the initial
// session, until ctx is done or the stream breaks.
func (c *Client) WatchAuth(ctx context.Context, fn func(event string, u *domain.User)) error {
	stream, err := c.Auth.WatchAuth(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	for {
		evt, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(evt.Event, evt.User)
	}
}

func (c *Client) ListParticipants(ctx context.Context, userID string) ([]domain.Participants, error) {
	reply, err := c.Message.ListParticipants(ctx, &v1.ParticipantsRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return reply.Rows, nil
}

func (c *Client) ListThread(ctx context.Context, userID, counterpartID string) ([]domain.Message, error) {
	reply, err := c.Message.ListThread(ctx, &v1.ThreadRequest{UserID: userID, CounterpartID: counterpartID})
	if err != nil {
		return nil, err
	}
	return reply.Messages, nil
}

func (c *Client) InsertMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error) {
	reply, err := c.Message.InsertMessage(ctx, &v1.InsertMessageRequest{
		SenderID:   nm.SenderID,
		ReceiverID: nm.ReceiverID,
		Content:    nm.Content,
	})
	if err != nil {
		return nil, err
	}
	return reply.Message, nil
}

func (c *Client) ResolveProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	reply, err := c.Profile.ResolveProfiles(ctx, &v1.ResolveProfilesRequest{IDs: ids})
	if err != nil {
		return nil, err
	}
	return reply.Profiles, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	reply, err := c.Profile.GetProfile(ctx, &v1.GetProfileRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return reply.Profile, nil
}

func (c *Client) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	reply, err := c.Profile.UpsertProfile(ctx, &v1.UpsertProfileRequest{Profile: p})
	if err != nil {
		return nil, err
	}
	return reply.Profile, nil
}

// Subscribe opens a feed channel and returns once the daemon confirmed it.
// The stream outlives ctx; it ends when the channel is closed.
func (c *Client) Subscribe(ctx context.Context, name string, f domain.Filter) (conversation.Channel, error) {
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	stream, err := c.Message.Subscribe(streamCtx, &v1.SubscribeRequest{
		Channel: name,
		Schema:  f.Schema,
		Table:   f.Table,
		Event:   string(f.Event),
	})
	if err != nil {
		cancel()
		return nil, err
	}
	first, err := stream.Recv()
	if err != nil {
		cancel()
		return nil, err
	}
	if first.Type != string(domain.ChangeSubscribed) {
		cancel()
		return nil, fmt.Errorf("subscribe %s: unexpected first event %q", name, first.Type)
	}

	ch := &channel{cancel: cancel, changes: make(chan domain.Change, 64)}
	go ch.recv(streamCtx, stream)
	return ch, nil
}

type channel struct {
	cancel  context.CancelFunc
	changes chan domain.Change
	once    sync.Once
}

func (ch *channel) Changes() <-chan domain.Change { return ch.changes }

func (ch *channel) Close() error {
	ch.once.Do(ch.cancel)
	return nil
}

func (ch *channel) recv(ctx context.Context, stream grpc.ServerStreamingClient[v1.ChangeEvent]) {
	defer close(ch.changes)
	for {
		evt, err := stream.Recv()
		if err != nil {
			return
		}
		select {
		case ch.changes <- evt.Change():
		case <-ctx.Done():
			return
		}
	}
}
