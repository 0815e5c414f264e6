package feedservice

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/paylink/internal/domain"
	transactionrepo "github.com/GlebRadaev/paylink/internal/repo/transaction-repo"
	"go.uber.org/zap"
)

type TransactionRepo interface {
	FriendsFeed(ctx context.Context, viewerID int, friendIDs []int, w transactionrepo.Window) ([]domain.FeedItem, error)
	UserFeed(ctx context.Context, viewerID, partyID int, friendIDs []int, w transactionrepo.Window) ([]domain.FeedItem, error)
	BetweenFeed(ctx context.Context, viewerID, partyID int, w transactionrepo.Window) ([]domain.FeedItem, error)
	OutstandingFeed(ctx context.Context, viewerID int, w transactionrepo.Window) ([]domain.FeedItem, error)
}

type FriendRepo interface {
	FriendIDs(ctx context.Context, userID int) ([]int, error)
}

type Service struct {
	transactionRepo TransactionRepo
	friendRepo      FriendRepo
}

func New(transactionRepo TransactionRepo, friendRepo FriendRepo) *Service {
	return &Service{
		transactionRepo: transactionRepo,
		friendRepo:      friendRepo,
	}
}

const (
	FeedFriends     = "friends"
	FeedUser        = "user"
	FeedBetweenUs   = "betweenUs"
	FeedOutstanding = "outstanding"

	defaultLimit = 25
	maxLimit     = 100
)

var (
	ErrPartyRequired = errors.New("partyID is required for this feed")
)

type Request struct {
	Kind     string
	ViewerID int
	PartyID  int
	Before   *time.Time
	After    *time.Time
	Limit    int
	Cursor   int64
}

type Page struct {
	Items []domain.FeedItem
	// LastID is the id of the final row, echoed back as the cursor for the
	// next page.
	LastID int64
}

// Query answers "page of transactions visible to the viewer, newest first"
// for the requested feed shape. Pagination is keyset on id: a page holds
// strictly older rows than the cursor, so re-querying with the same cursor is
// stable while no new rows appear.
func (s *Service) Query(ctx context.Context, req Request) (*Page, error) {
	kind := req.Kind
	switch kind {
	case FeedFriends, FeedUser, FeedBetweenUs, FeedOutstanding:
	default:
		kind = FeedFriends
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	window := transactionrepo.Window{
		Limit:  limit,
		Cursor: req.Cursor,
		Before: req.Before,
		After:  req.After,
	}

	var items []domain.FeedItem
	var err error
	switch kind {
	case FeedFriends:
		var friendIDs []int
		friendIDs, err = s.friendRepo.FriendIDs(ctx, req.ViewerID)
		if err != nil {
			break
		}
		items, err = s.transactionRepo.FriendsFeed(ctx, req.ViewerID, friendIDs, window)
	case FeedUser:
		if req.PartyID == 0 {
			return nil, ErrPartyRequired
		}
		var friendIDs []int
		friendIDs, err = s.friendRepo.FriendIDs(ctx, req.ViewerID)
		if err != nil {
			break
		}
		items, err = s.transactionRepo.UserFeed(ctx, req.ViewerID, req.PartyID, friendIDs, window)
	case FeedBetweenUs:
		if req.PartyID == 0 {
			return nil, ErrPartyRequired
		}
		items, err = s.transactionRepo.BetweenFeed(ctx, req.ViewerID, req.PartyID, window)
	case FeedOutstanding:
		items, err = s.transactionRepo.OutstandingFeed(ctx, req.ViewerID, window)
	}
	if err != nil {
		zap.L().Error("can't query feed", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	page := &Page{Items: items}
	if len(items) > 0 {
		page.LastID = items[len(items)-1].ID
	}
	return page, nil
}
