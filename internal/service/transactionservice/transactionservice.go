package transactionservice

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GlebRadaev/paylink/internal/domain"
	"github.com/GlebRadaev/paylink/internal/pg"
	"go.uber.org/zap"
)

type TransactionRepo interface {
	Create(ctx context.Context, t *domain.Transaction) error
	FindByID(ctx context.Context, id int64) (*domain.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, actorID int, key string) (*domain.Transaction, error)
	Complete(ctx context.Context, id int64, status domain.TransactionStatus) (bool, error)
}

type ProfileRepo interface {
	GetProfile(ctx context.Context, userID int) (*domain.Profile, error)
	Debit(ctx context.Context, userID int, amount float64) (bool, error)
	Credit(ctx context.Context, userID int, amount float64) error
}

type FriendRepo interface {
	Get(ctx context.Context, lowID, highID int) (*domain.RelationshipEdge, error)
}

type Service struct {
	transactionRepo TransactionRepo
	profileRepo     ProfileRepo
	friendRepo      FriendRepo
	txManager       pg.TXManager
}

func New(transactionRepo TransactionRepo, profileRepo ProfileRepo, friendRepo FriendRepo, txManager pg.TXManager) *Service {
	return &Service{
		transactionRepo: transactionRepo,
		profileRepo:     profileRepo,
		friendRepo:      friendRepo,
		txManager:       txManager,
	}
}

const noteLimit = 280

var (
	ErrSelfTransaction     = errors.New("cannot transact with yourself")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidAction       = errors.New("invalid action")
	ErrTargetNotFound      = errors.New("target profile not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotPending          = errors.New("transaction is not pending")
	ErrNotAllowed          = errors.New("caller is not allowed to perform this action")
	ErrNotVisible          = errors.New("transaction is not visible to viewer")
)

type CreateParams struct {
	TargetID       int
	Amount         float64
	Action         string
	Note           string
	Audience       string
	IdempotencyKey string
}

// Create records a payment or a payment request. A pay settles immediately:
// the conditional actor debit and the insert commit in one database
// transaction, or neither does. A request is inserted pending with no balance
// effect.
func (s *Service) Create(ctx context.Context, actorID int, params CreateParams) (*domain.FeedItem, error) {
	if actorID == params.TargetID {
		return nil, ErrSelfTransaction
	}
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	action := domain.TransactionAction(params.Action)
	if params.Action == "" {
		action = domain.ActionPay
	}
	if action != domain.ActionPay && action != domain.ActionRequest {
		return nil, ErrInvalidAction
	}

	target, err := s.profileRepo.GetProfile(ctx, params.TargetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrTargetNotFound
	}

	// The cap counts characters, not bytes: a multi-byte rune is never split.
	note := params.Note
	if utf8.RuneCountInString(note) > noteLimit {
		note = string([]rune(note)[:noteLimit])
	}

	audience := domain.Audience(params.Audience)
	if audience != domain.AudiencePublic && audience != domain.AudienceFriends && audience != domain.AudiencePrivate {
		if params.Audience != "" {
			zap.L().Warn("unrecognized audience normalized to public", zap.String("audience", params.Audience))
		}
		audience = domain.AudiencePublic
	}

	if params.IdempotencyKey != "" {
		existing, err := s.transactionRepo.FindByIdempotencyKey(ctx, actorID, params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			zap.L().Info("transaction replayed by idempotency key", zap.Int64("id", existing.ID))
			return s.withParties(ctx, existing)
		}
	}

	transaction := &domain.Transaction{
		ActorID:        actorID,
		TargetID:       params.TargetID,
		Amount:         params.Amount,
		Action:         action,
		Status:         domain.StatusPending,
		Note:           note,
		Audience:       audience,
		IdempotencyKey: params.IdempotencyKey,
	}

	if action == domain.ActionPay {
		transaction.Status = domain.StatusSettled
		err = s.txManager.Begin(ctx, func(ctx context.Context) error {
			ok, err := s.profileRepo.Debit(ctx, actorID, params.Amount)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientFunds
			}
			return s.transactionRepo.Create(ctx, transaction)
		})
	} else {
		err = s.transactionRepo.Create(ctx, transaction)
	}
	if err != nil {
		// A lost race on the idempotency key means the retry already won.
		if params.IdempotencyKey != "" && isUniqueViolation(err) {
			existing, findErr := s.transactionRepo.FindByIdempotencyKey(ctx, actorID, params.IdempotencyKey)
			if findErr == nil && existing != nil {
				return s.withParties(ctx, existing)
			}
		}
		zap.L().Error("can't create transaction", zap.Error(err))
		return nil, err
	}

	return s.withParties(ctx, transaction)
}

// Transition applies approve, deny or cancel to a pending transaction. The
// status flip is a conditional claim on status = pending, so once a
// transaction reaches a terminal state no retry or concurrent caller can move
// it again or re-apply its balance effect.
func (s *Service) Transition(ctx context.Context, id int64, action string, callerID int) (*domain.FeedItem, error) {
	transaction, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, ErrTransactionNotFound
	}
	if transaction.Status != domain.StatusPending {
		return nil, ErrNotPending
	}

	switch action {
	case "approve":
		if callerID != transaction.TargetID {
			return nil, ErrNotAllowed
		}
		err = s.txManager.Begin(ctx, func(ctx context.Context) error {
			claimed, err := s.transactionRepo.Complete(ctx, id, domain.StatusSettled)
			if err != nil {
				return err
			}
			if !claimed {
				return ErrNotPending
			}
			// The approver pays: debit the target, credit the requesting
			// actor, atomically with the status flip.
			ok, err := s.profileRepo.Debit(ctx, transaction.TargetID, transaction.Amount)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientFunds
			}
			return s.profileRepo.Credit(ctx, transaction.ActorID, transaction.Amount)
		})
	case "deny":
		if callerID != transaction.TargetID {
			return nil, ErrNotAllowed
		}
		err = s.complete(ctx, id, domain.StatusDenied)
	case "cancel":
		if callerID != transaction.ActorID {
			return nil, ErrNotAllowed
		}
		err = s.complete(ctx, id, domain.StatusCancelled)
	default:
		return nil, ErrInvalidAction
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrTransactionNotFound
	}
	return s.withParties(ctx, updated)
}

func (s *Service) complete(ctx context.Context, id int64, status domain.TransactionStatus) error {
	claimed, err := s.transactionRepo.Complete(ctx, id, status)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrNotPending
	}
	return nil
}

// Get returns the transaction when the audience admits the viewer: public is
// open to anyone, friends requires friendship with the actor (or being a
// party), private is parties only. Amount redaction for non-parties happens
// at the DTO boundary.
func (s *Service) Get(ctx context.Context, id int64, viewerID int) (*domain.FeedItem, error) {
	transaction, err := s.transactionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, ErrTransactionNotFound
	}

	visible := false
	switch transaction.Audience {
	case domain.AudiencePublic:
		visible = true
	case domain.AudienceFriends:
		if transaction.IsParty(viewerID) {
			visible = true
		} else {
			low, high := min(viewerID, transaction.ActorID), max(viewerID, transaction.ActorID)
			edge, err := s.friendRepo.Get(ctx, low, high)
			if err != nil {
				return nil, err
			}
			visible = edge != nil && edge.State == domain.Friend
		}
	case domain.AudiencePrivate:
		visible = transaction.IsParty(viewerID)
	}
	if !visible {
		return nil, ErrNotVisible
	}

	return s.withParties(ctx, transaction)
}

func (s *Service) withParties(ctx context.Context, t *domain.Transaction) (*domain.FeedItem, error) {
	actor, err := s.profileRepo.GetProfile(ctx, t.ActorID)
	if err != nil {
		return nil, err
	}
	target, err := s.profileRepo.GetProfile(ctx, t.TargetID)
	if err != nil {
		return nil, err
	}
	if actor == nil || target == nil {
		return nil, ErrTargetNotFound
	}
	return &domain.FeedItem{
		Transaction: *t,
		Actor:       domain.Party{ID: actor.UserID, Username: actor.Username, FirstName: actor.FirstName, LastName: actor.LastName},
		Target:      domain.Party{ID: target.UserID, Username: target.Username, FirstName: target.FirstName, LastName: target.LastName},
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
