package api

import (
	"context"

	"github.com/MacklinHill1/neighborhood-help-app/internal/backend"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	v1 "github.com/MacklinHill1/neighborhood-help-app/internal/locaidv1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// MessageService implements the MessageService gRPC service.
type MessageService struct {
	svc    *backend.Service
	logger *zap.Logger
}

// NewMessageService creates a message service backed by the backend.
func NewMessageService(svc *backend.Service, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{svc: svc, logger: logger}
}

func (s *MessageService) ListParticipants(ctx context.Context, req *v1.ParticipantsRequest) (*v1.ParticipantsReply, error) {
	rows, err := s.svc.ListParticipants(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("list participants", err)
	}
	return &v1.ParticipantsReply{Rows: rows}, nil
}

func (s *MessageService) ListThread(ctx context.Context, req *v1.ThreadRequest) (*v1.ThreadReply, error) {
	msgs, err := s.svc.ListThread(ctx, req.UserID, req.CounterpartID)
	if err != nil {
		return nil, toStatus("list thread", err)
	}
	return &v1.ThreadReply{Messages: msgs}, nil
}

func (s *MessageService) InsertMessage(ctx context.Context, req *v1.InsertMessageRequest) (*v1.MessageReply, error) {
	m, err := s.svc.InsertMessage(ctx, domain.NewMessage{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	})
	if err != nil {
		return nil, toStatus("insert message", err)
	}
	return &v1.MessageReply{Message: m}, nil
}

// Subscribe confirms the channel with a SUBSCRIBED event, then streams
// matching changes until the client goes away.
func (s *MessageService) Subscribe(req *v1.SubscribeRequest, stream grpc.ServerStreamingServer[v1.ChangeEvent]) error {
	if req.Channel == "" {
		return grpcstatus.Error(codes.InvalidArgument, "subscribe: channel is required")
	}
	ch := s.svc.Subscribe(req.Channel, req.Filter(), 64)
	defer ch.Close()

	if err := stream.Send(&v1.ChangeEvent{Type: string(domain.ChangeSubscribed)}); err != nil {
		return err
	}
	s.logger.Debug("channel subscribed", zap.String("channel", req.Channel))

	for {
		select {
		case c, ok := <-ch.Changes():
			if !ok {
				return nil
			}
			if err := stream.Send(v1.ChangeToEvent(c)); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}
