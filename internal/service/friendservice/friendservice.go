package friendservice

import (
	"context"
	"errors"

	"github.com/GlebRadaev/paylink/internal/domain"
	"go.uber.org/zap"
)

type Repo interface {
	Get(ctx context.Context, lowID, highID int) (*domain.RelationshipEdge, error)
	Request(ctx context.Context, lowID, highID int, insert, promoteFrom domain.RelationshipState) (*domain.RelationshipEdge, error)
	Delete(ctx context.Context, lowID, highID int) error
	FriendIDs(ctx context.Context, userID int) ([]int, error)
	ListFriends(ctx context.Context, userID int) ([]domain.Profile, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{
		repo: repo,
	}
}

var (
	ErrSelfRelationship = errors.New("cannot befriend yourself")
)

// Viewer-relative relationship labels.
const (
	RelationshipMe            = "me"
	RelationshipFriend        = "friend"
	RelationshipYouRequested  = "youRequested"
	RelationshipTheyRequested = "theyRequested"
	RelationshipNone          = "none"
)

// Canonicalize orders a user pair so the lower id comes first. Every edge
// operation routes through it, which is what keeps the friends table at one
// row per unordered pair.
func Canonicalize(a, b int) (low, high int, swapped bool) {
	if a > b {
		return b, a, true
	}
	return a, b, false
}

// sides returns the canonical requested-state for each side of the pair as
// seen from userID: first the state meaning "userID requested", then the
// complement.
func sides(userID, low int) (mine, theirs domain.RelationshipState) {
	if userID == low {
		return domain.LowRequested, domain.HighRequested
	}
	return domain.HighRequested, domain.LowRequested
}

func (s *Service) Get(ctx context.Context, a, b int) (*domain.RelationshipEdge, error) {
	low, high, _ := Canonicalize(a, b)
	return s.repo.Get(ctx, low, high)
}

// Request creates a one-sided friend request, or promotes the edge to friend
// when the other side has already requested. Re-requesting the same side and
// requesting an existing friendship are no-ops returning the current edge.
func (s *Service) Request(ctx context.Context, requesterID, requestedID int) (*domain.RelationshipEdge, error) {
	if requesterID == requestedID {
		return nil, ErrSelfRelationship
	}
	low, high, _ := Canonicalize(requesterID, requestedID)
	mine, theirs := sides(requesterID, low)

	edge, err := s.repo.Request(ctx, low, high, mine, theirs)
	if err != nil {
		zap.L().Error("can't request friendship", zap.Error(err))
		return nil, err
	}
	return edge, nil
}

// Remove deletes whatever edge exists between the two users: unfriend,
// request cancellation and denial all return the pair to "no relationship".
func (s *Service) Remove(ctx context.Context, a, b int) error {
	if a == b {
		return ErrSelfRelationship
	}
	low, high, _ := Canonicalize(a, b)
	if err := s.repo.Delete(ctx, low, high); err != nil {
		zap.L().Error("can't remove relationship", zap.Error(err))
		return err
	}
	return nil
}

// Relationship translates the canonical edge state into the viewer-relative
// label used by profile payloads.
func (s *Service) Relationship(ctx context.Context, viewerID, otherID int) (string, error) {
	if viewerID == otherID {
		return RelationshipMe, nil
	}
	low, high, _ := Canonicalize(viewerID, otherID)
	edge, err := s.repo.Get(ctx, low, high)
	if err != nil {
		return "", err
	}
	if edge == nil {
		return RelationshipNone, nil
	}
	if edge.State == domain.Friend {
		return RelationshipFriend, nil
	}
	mine, _ := sides(viewerID, low)
	if edge.State == mine {
		return RelationshipYouRequested, nil
	}
	return RelationshipTheyRequested, nil
}

func (s *Service) IsFriend(ctx context.Context, a, b int) (bool, error) {
	if a == b {
		return false, nil
	}
	low, high, _ := Canonicalize(a, b)
	edge, err := s.repo.Get(ctx, low, high)
	if err != nil {
		return false, err
	}
	return edge != nil && edge.State == domain.Friend, nil
}

func (s *Service) Friends(ctx context.Context, userID int) ([]domain.Profile, error) {
	friends, err := s.repo.ListFriends(ctx, userID)
	if err != nil {
		zap.L().Error("can't list friends", zap.Error(err))
		return nil, err
	}
	return friends, nil
}

func (s *Service) FriendIDs(ctx context.Context, userID int) ([]int, error) {
	ids, err := s.repo.FriendIDs(ctx, userID)
	if err != nil {
		zap.L().Error("can't get friend ids", zap.Error(err))
		return nil, err
	}
	return ids, nil
}
