package transactionservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/paylink/internal/domain"
	"github.com/GlebRadaev/paylink/internal/pg"
)

func NewMock(t *testing.T) (*Service, *MockTransactionRepo, *MockProfileRepo, *MockFriendRepo, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	transactionRepo := NewMockTransactionRepo(ctrl)
	profileRepo := NewMockProfileRepo(ctrl)
	friendRepo := NewMockFriendRepo(ctrl)
	txManager := pg.NewMockTXManager(ctrl)

	service := New(transactionRepo, profileRepo, friendRepo, txManager)
	defer ctrl.Finish()
	return service, transactionRepo, profileRepo, friendRepo, txManager
}

func passthroughTx(txManager *pg.MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		})
}

func expectParties(profileRepo *MockProfileRepo, actorID, targetID int) {
	profileRepo.EXPECT().GetProfile(gomock.Any(), actorID).Return(&domain.Profile{UserID: actorID, Username: "alice"}, nil)
	profileRepo.EXPECT().GetProfile(gomock.Any(), targetID).Return(&domain.Profile{UserID: targetID, Username: "bob"}, nil)
}

func TestCreate_Pay(t *testing.T) {
	service, transactionRepo, profileRepo, _, txManager := NewMock(t)

	t.Run("Pay settles immediately and debits the actor", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2, Balance: 500}, nil)
		passthroughTx(txManager)
		profileRepo.EXPECT().Debit(gomock.Any(), 1, 150.0).Return(true, nil)
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tr *domain.Transaction) error {
				assert.Equal(t, domain.StatusSettled, tr.Status)
				assert.Equal(t, domain.ActionPay, tr.Action)
				tr.ID = 10
				return nil
			})
		expectParties(profileRepo, 1, 2)

		item, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 150, Action: "pay", Audience: "public"})
		assert.NoError(t, err)
		assert.Equal(t, int64(10), item.ID)
		assert.Equal(t, domain.StatusSettled, item.Status)
	})

	t.Run("Insufficient funds rolls the pay back", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		passthroughTx(txManager)
		profileRepo.EXPECT().Debit(gomock.Any(), 1, 9000.0).Return(false, nil)

		item, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 9000, Action: "pay"})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Nil(t, item)
	})

	t.Run("Empty action defaults to pay", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		passthroughTx(txManager)
		profileRepo.EXPECT().Debit(gomock.Any(), 1, 25.0).Return(true, nil)
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tr *domain.Transaction) error {
				assert.Equal(t, domain.ActionPay, tr.Action)
				return nil
			})
		expectParties(profileRepo, 1, 2)

		_, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 25})
		assert.NoError(t, err)
	})
}

func TestCreate_Request(t *testing.T) {
	service, transactionRepo, profileRepo, _, _ := NewMock(t)

	t.Run("Request is inserted pending with no balance effect", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tr *domain.Transaction) error {
				assert.Equal(t, domain.StatusPending, tr.Status)
				assert.Equal(t, domain.ActionRequest, tr.Action)
				tr.ID = 11
				return nil
			})
		expectParties(profileRepo, 1, 2)

		item, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 50, Action: "request", Audience: "private"})
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusPending, item.Status)
	})
}

func TestCreate_Validation(t *testing.T) {
	service, _, profileRepo, _, _ := NewMock(t)

	tests := []struct {
		name          string
		actorID       int
		params        CreateParams
		prepareMock   func()
		expectedError error
	}{
		{
			name:          "Self transaction",
			actorID:       1,
			params:        CreateParams{TargetID: 1, Amount: 10},
			prepareMock:   func() {},
			expectedError: ErrSelfTransaction,
		},
		{
			name:          "Zero amount",
			actorID:       1,
			params:        CreateParams{TargetID: 2, Amount: 0},
			prepareMock:   func() {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Negative amount",
			actorID:       1,
			params:        CreateParams{TargetID: 2, Amount: -5},
			prepareMock:   func() {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Unknown action",
			actorID:       1,
			params:        CreateParams{TargetID: 2, Amount: 10, Action: "steal"},
			prepareMock:   func() {},
			expectedError: ErrInvalidAction,
		},
		{
			name:    "Target does not exist",
			actorID: 1,
			params:  CreateParams{TargetID: 99, Amount: 10, Action: "pay"},
			prepareMock: func() {
				profileRepo.EXPECT().GetProfile(gomock.Any(), 99).Return(nil, nil)
			},
			expectedError: ErrTargetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			item, err := service.Create(context.Background(), tt.actorID, tt.params)
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, item)
		})
	}
}

func TestCreate_Normalization(t *testing.T) {
	service, transactionRepo, profileRepo, _, _ := NewMock(t)

	t.Run("Unrecognized audience becomes public", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tr *domain.Transaction) error {
				assert.Equal(t, domain.AudiencePublic, tr.Audience)
				return nil
			})
		expectParties(profileRepo, 1, 2)

		_, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 10, Action: "request", Audience: "everyone"})
		assert.NoError(t, err)
	})

	t.Run("Overlong note is truncated", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tr *domain.Transaction) error {
				assert.Len(t, tr.Note, noteLimit)
				return nil
			})
		expectParties(profileRepo, 1, 2)

		_, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 10, Action: "request", Note: strings.Repeat("x", 400)})
		assert.NoError(t, err)
	})

	t.Run("Truncation lands on a rune boundary", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tr *domain.Transaction) error {
				assert.True(t, utf8.ValidString(tr.Note))
				assert.Equal(t, noteLimit, utf8.RuneCountInString(tr.Note))
				assert.True(t, strings.HasSuffix(tr.Note, "é"))
				return nil
			})
		expectParties(profileRepo, 1, 2)

		note := strings.Repeat("x", noteLimit-1) + "éé"
		_, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 10, Action: "request", Note: note})
		assert.NoError(t, err)
	})

	t.Run("Multi-byte note within the cap is kept whole", func(t *testing.T) {
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		note := strings.Repeat("x", noteLimit-1) + "é"
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, tr *domain.Transaction) error {
				assert.Equal(t, note, tr.Note)
				assert.True(t, utf8.ValidString(tr.Note))
				return nil
			})
		expectParties(profileRepo, 1, 2)

		_, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 10, Action: "request", Note: note})
		assert.NoError(t, err)
	})
}

func TestCreate_Idempotency(t *testing.T) {
	service, transactionRepo, profileRepo, _, txManager := NewMock(t)

	t.Run("Replay returns the original transaction without side effects", func(t *testing.T) {
		existing := &domain.Transaction{ID: 7, ActorID: 1, TargetID: 2, Amount: 150, Action: domain.ActionPay, Status: domain.StatusSettled, IdempotencyKey: "k1"}
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		transactionRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), 1, "k1").Return(existing, nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 150, Action: "pay", IdempotencyKey: "k1"})
		assert.NoError(t, err)
		assert.Equal(t, int64(7), item.ID)
	})

	t.Run("Lost insert race refetches the winner", func(t *testing.T) {
		existing := &domain.Transaction{ID: 8, ActorID: 1, TargetID: 2, Amount: 150, Action: domain.ActionPay, Status: domain.StatusSettled, IdempotencyKey: "k2"}
		profileRepo.EXPECT().GetProfile(gomock.Any(), 2).Return(&domain.Profile{UserID: 2}, nil)
		transactionRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), 1, "k2").Return(nil, nil)
		passthroughTx(txManager)
		profileRepo.EXPECT().Debit(gomock.Any(), 1, 150.0).Return(true, nil)
		transactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&pgconn.PgError{Code: "23505"})
		transactionRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), 1, "k2").Return(existing, nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Create(context.Background(), 1, CreateParams{TargetID: 2, Amount: 150, Action: "pay", IdempotencyKey: "k2"})
		assert.NoError(t, err)
		assert.Equal(t, int64(8), item.ID)
	})
}

func TestTransition(t *testing.T) {
	service, transactionRepo, profileRepo, _, txManager := NewMock(t)

	pending := func() *domain.Transaction {
		return &domain.Transaction{ID: 10, ActorID: 1, TargetID: 2, Amount: 100, Action: domain.ActionRequest, Status: domain.StatusPending}
	}

	t.Run("Approve debits the target and credits the actor", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)
		passthroughTx(txManager)
		transactionRepo.EXPECT().Complete(gomock.Any(), int64(10), domain.StatusSettled).Return(true, nil)
		profileRepo.EXPECT().Debit(gomock.Any(), 2, 100.0).Return(true, nil)
		profileRepo.EXPECT().Credit(gomock.Any(), 1, 100.0).Return(nil)
		settled := pending()
		settled.Status = domain.StatusSettled
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(settled, nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Transition(context.Background(), 10, "approve", 2)
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusSettled, item.Status)
	})

	t.Run("Approve with insufficient target funds fails", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)
		passthroughTx(txManager)
		transactionRepo.EXPECT().Complete(gomock.Any(), int64(10), domain.StatusSettled).Return(true, nil)
		profileRepo.EXPECT().Debit(gomock.Any(), 2, 100.0).Return(false, nil)

		item, err := service.Transition(context.Background(), 10, "approve", 2)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Nil(t, item)
	})

	t.Run("Approve by the actor is not allowed", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)

		item, err := service.Transition(context.Background(), 10, "approve", 1)
		assert.ErrorIs(t, err, ErrNotAllowed)
		assert.Nil(t, item)
	})

	t.Run("Lost claim race reports not pending", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)
		passthroughTx(txManager)
		transactionRepo.EXPECT().Complete(gomock.Any(), int64(10), domain.StatusSettled).Return(false, nil)

		item, err := service.Transition(context.Background(), 10, "approve", 2)
		assert.ErrorIs(t, err, ErrNotPending)
		assert.Nil(t, item)
	})

	t.Run("Deny by the target", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)
		transactionRepo.EXPECT().Complete(gomock.Any(), int64(10), domain.StatusDenied).Return(true, nil)
		denied := pending()
		denied.Status = domain.StatusDenied
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(denied, nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Transition(context.Background(), 10, "deny", 2)
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusDenied, item.Status)
	})

	t.Run("Cancel by the actor", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)
		transactionRepo.EXPECT().Complete(gomock.Any(), int64(10), domain.StatusCancelled).Return(true, nil)
		cancelled := pending()
		cancelled.Status = domain.StatusCancelled
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(cancelled, nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Transition(context.Background(), 10, "cancel", 1)
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, item.Status)
	})

	t.Run("Cancel by the target is not allowed", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)

		item, err := service.Transition(context.Background(), 10, "cancel", 2)
		assert.ErrorIs(t, err, ErrNotAllowed)
		assert.Nil(t, item)
	})

	t.Run("Terminal transaction cannot move again", func(t *testing.T) {
		settled := pending()
		settled.Status = domain.StatusSettled
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(settled, nil)

		item, err := service.Transition(context.Background(), 10, "deny", 2)
		assert.ErrorIs(t, err, ErrNotPending)
		assert.Nil(t, item)
	})

	t.Run("Unknown transaction", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(99)).Return(nil, nil)

		item, err := service.Transition(context.Background(), 99, "approve", 2)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assert.Nil(t, item)
	})

	t.Run("Unknown action", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(pending(), nil)

		item, err := service.Transition(context.Background(), 10, "escalate", 2)
		assert.ErrorIs(t, err, ErrInvalidAction)
		assert.Nil(t, item)
	})
}

func TestGet_Visibility(t *testing.T) {
	service, transactionRepo, profileRepo, friendRepo, _ := NewMock(t)

	transaction := func(audience domain.Audience) *domain.Transaction {
		return &domain.Transaction{ID: 10, ActorID: 1, TargetID: 2, Amount: 100, Audience: audience, Status: domain.StatusSettled}
	}

	t.Run("Public is visible to anyone", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(transaction(domain.AudiencePublic), nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Get(context.Background(), 10, 99)
		assert.NoError(t, err)
		assert.Equal(t, int64(10), item.ID)
	})

	t.Run("Friends audience admits a friend of the actor", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(transaction(domain.AudienceFriends), nil)
		friendRepo.EXPECT().Get(gomock.Any(), 1, 5).Return(&domain.RelationshipEdge{LowID: 1, HighID: 5, State: domain.Friend}, nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Get(context.Background(), 10, 5)
		assert.NoError(t, err)
		assert.NotNil(t, item)
	})

	t.Run("Friends audience rejects a stranger", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(transaction(domain.AudienceFriends), nil)
		friendRepo.EXPECT().Get(gomock.Any(), 1, 5).Return(nil, nil)

		item, err := service.Get(context.Background(), 10, 5)
		assert.ErrorIs(t, err, ErrNotVisible)
		assert.Nil(t, item)
	})

	t.Run("Private is parties only", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(transaction(domain.AudiencePrivate), nil)

		item, err := service.Get(context.Background(), 10, 5)
		assert.ErrorIs(t, err, ErrNotVisible)
		assert.Nil(t, item)
	})

	t.Run("Private is visible to the target", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(10)).Return(transaction(domain.AudiencePrivate), nil)
		expectParties(profileRepo, 1, 2)

		item, err := service.Get(context.Background(), 10, 2)
		assert.NoError(t, err)
		assert.NotNil(t, item)
	})

	t.Run("Unknown transaction", func(t *testing.T) {
		transactionRepo.EXPECT().FindByID(gomock.Any(), int64(99)).Return(nil, nil)

		item, err := service.Get(context.Background(), 99, 1)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assert.Nil(t, item)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("database error")))
}
