package profileservice

import (
	"context"
	"errors"

	"github.com/GlebRadaev/paylink/internal/domain"
	"go.uber.org/zap"
)

type ProfileRepo interface {
	CreateProfile(ctx context.Context, userID int, startingBalance float64) (*domain.Profile, error)
	GetProfile(ctx context.Context, userID int) (*domain.Profile, error)
	UpdateName(ctx context.Context, userID int, firstName, lastName string) (*domain.Profile, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Profile, error)
}

type FriendRepo interface {
	FriendIDs(ctx context.Context, userID int) ([]int, error)
}

type Service struct {
	profileRepo     ProfileRepo
	friendRepo      FriendRepo
	startingBalance float64
}

func New(profileRepo ProfileRepo, friendRepo FriendRepo, startingBalance float64) *Service {
	return &Service{
		profileRepo:     profileRepo,
		friendRepo:      friendRepo,
		startingBalance: startingBalance,
	}
}

var (
	ErrProfileNotFound = errors.New("profile not found")
)

const searchLimit = 25

// CreateProfile bootstraps the profile with the configured starting balance.
// Called once per user, at registration.
func (s *Service) CreateProfile(ctx context.Context, userID int) (*domain.Profile, error) {
	profile, err := s.profileRepo.CreateProfile(ctx, userID, s.startingBalance)
	if err != nil {
		zap.L().Error("failed to create profile", zap.Error(err))
		return nil, err
	}
	return profile, nil
}

// Get returns the profile and its friend count.
func (s *Service) Get(ctx context.Context, userID int) (*domain.Profile, int, error) {
	profile, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get profile", zap.Error(err))
		return nil, 0, err
	}
	if profile == nil {
		return nil, 0, ErrProfileNotFound
	}
	friendIDs, err := s.friendRepo.FriendIDs(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return profile, len(friendIDs), nil
}

// UpdateName is last-write-wins; it carries no invariant.
func (s *Service) UpdateName(ctx context.Context, userID int, firstName, lastName string) (*domain.Profile, error) {
	profile, err := s.profileRepo.UpdateName(ctx, userID, firstName, lastName)
	if err != nil {
		zap.L().Error("failed to update profile name", zap.Error(err))
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.Profile, error) {
	if limit <= 0 || limit > searchLimit {
		limit = searchLimit
	}
	profiles, err := s.profileRepo.Search(ctx, query, limit)
	if err != nil {
		zap.L().Error("failed to search profiles", zap.Error(err))
		return nil, err
	}
	return profiles, nil
}
