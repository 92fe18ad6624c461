package api

import (
	"context"

	"github.com/MacklinHill1/neighborhood-help-app/internal/backend"
	v1 "github.com/MacklinHill1/neighborhood-help-app/internal/locaidv1"
)

// ProfileService implements the ProfileService gRPC service.
type ProfileService struct {
	svc *backend.Service
}

// NewProfileService creates a profile service backed by the backend.
func NewProfileService(svc *backend.Service) *ProfileService {
	return &ProfileService{svc: svc}
}

func (s *ProfileService) ResolveProfiles(ctx context.Context, req *v1.ResolveProfilesRequest) (*v1.ProfilesReply, error) {
	profiles, err := s.svc.ResolveProfiles(ctx, req.IDs)
	if err != nil {
		return nil, toStatus("resolve profiles", err)
	}
	return &v1.ProfilesReply{Profiles: profiles}, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, req *v1.GetProfileRequest) (*v1.ProfileReply, error) {
	p, err := s.svc.GetProfile(ctx, req.ID)
	if err != nil {
		return nil, toStatus("get profile", err)
	}
	return &v1.ProfileReply{Profile: p}, nil
}

func (s *ProfileService) UpsertProfile(ctx context.Context, req *v1.UpsertProfileRequest) (*v1.ProfileReply, error) {
	p, err := s.svc.UpsertProfile(ctx, req.Profile)
	if err != nil {
		return nil, toStatus("upsert profile", err)
	}
	return &v1.ProfileReply{Profile: p}, nil
}
