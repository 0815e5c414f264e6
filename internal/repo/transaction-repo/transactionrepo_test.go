package transactionrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/paylink/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()
	return repo, mockDB
}

var feedRowColumns = []string{
	"id", "actor_id", "target_id", "amount", "action", "status", "note", "audience",
	"date_created", "date_completed",
	"actor_username", "actor_first_name", "actor_last_name",
	"target_username", "target_first_name", "target_last_name",
}

func feedRow(rows *pgxmock.Rows, id int64, actorID, targetID int, completed *time.Time) *pgxmock.Rows {
	return rows.AddRow(
		id, actorID, targetID, 100.0, "pay", "settled", "lunch", "public",
		time.Now(), completed,
		"alice", "Alice", "Smith",
		"bob", "Bob", "Jones",
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	t.Run("Settled pay stamps completion with creation", func(t *testing.T) {
		transaction := &domain.Transaction{
			ActorID:  1,
			TargetID: 2,
			Amount:   150,
			Action:   domain.ActionPay,
			Status:   domain.StatusSettled,
			Note:     "lunch",
			Audience: domain.AudiencePublic,
		}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions (actor_id, target_id, amount, action, status, note, audience, idempotency_key, date_created, date_completed)`)).
			WithArgs(1, 2, 150.0, domain.ActionPay, domain.StatusSettled, "lunch", domain.AudiencePublic, "").
			WillReturnRows(pgxmock.NewRows([]string{"id", "date_created", "date_completed"}).
				AddRow(int64(10), now, &now))

		err := repo.Create(context.Background(), transaction)
		assert.NoError(t, err)
		assert.Equal(t, int64(10), transaction.ID)
		assert.NotNil(t, transaction.DateCompleted)
		assert.Equal(t, transaction.DateCreated, *transaction.DateCompleted)
	})

	t.Run("Pending request has no completion timestamp", func(t *testing.T) {
		transaction := &domain.Transaction{
			ActorID:  1,
			TargetID: 2,
			Amount:   50,
			Action:   domain.ActionRequest,
			Status:   domain.StatusPending,
			Audience: domain.AudienceFriends,
		}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions (actor_id, target_id, amount, action, status, note, audience, idempotency_key, date_created, date_completed)`)).
			WithArgs(1, 2, 50.0, domain.ActionRequest, domain.StatusPending, "", domain.AudienceFriends, "").
			WillReturnRows(pgxmock.NewRows([]string{"id", "date_created", "date_completed"}).
				AddRow(int64(11), now, nil))

		err := repo.Create(context.Background(), transaction)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), transaction.ID)
		assert.Nil(t, transaction.DateCompleted)
	})

	t.Run("Database error", func(t *testing.T) {
		transaction := &domain.Transaction{ActorID: 1, TargetID: 2, Amount: 50, Action: domain.ActionPay, Status: domain.StatusSettled, Audience: domain.AudiencePublic}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
			WithArgs(1, 2, 50.0, domain.ActionPay, domain.StatusSettled, "", domain.AudiencePublic, "").
			WillReturnError(errors.New("database error"))

		err := repo.Create(context.Background(), transaction)
		assert.Error(t, err)
	})
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	t.Run("Existing transaction", func(t *testing.T) {
		key := "2f1e7a60"
		rows := pgxmock.NewRows([]string{"id", "actor_id", "target_id", "amount", "action", "status", "note", "audience", "idempotency_key", "date_created", "date_completed"}).
			AddRow(int64(10), 1, 2, 150.0, "pay", "settled", "lunch", "public", &key, now, &now)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
			WithArgs(int64(10)).
			WillReturnRows(rows)

		transaction, err := repo.FindByID(context.Background(), 10)
		assert.NoError(t, err)
		assert.Equal(t, int64(10), transaction.ID)
		assert.Equal(t, "2f1e7a60", transaction.IdempotencyKey)
		assert.Equal(t, domain.StatusSettled, transaction.Status)
	})

	t.Run("Missing transaction returns nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)

		transaction, err := repo.FindByID(context.Background(), 99)
		assert.NoError(t, err)
		assert.Nil(t, transaction)
	})
}

func TestRepository_FindByIdempotencyKey(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	t.Run("Existing key returns transaction", func(t *testing.T) {
		key := "abc"
		rows := pgxmock.NewRows([]string{"id", "actor_id", "target_id", "amount", "action", "status", "note", "audience", "idempotency_key", "date_created", "date_completed"}).
			AddRow(int64(4), 1, 2, 25.0, "request", "pending", "", "private", &key, now, nil)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE actor_id = $1 AND idempotency_key = $2`)).
			WithArgs(1, "abc").
			WillReturnRows(rows)

		transaction, err := repo.FindByIdempotencyKey(context.Background(), 1, "abc")
		assert.NoError(t, err)
		assert.Equal(t, int64(4), transaction.ID)
	})

	t.Run("Unknown key returns nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE actor_id = $1 AND idempotency_key = $2`)).
			WithArgs(1, "missing").
			WillReturnError(pgx.ErrNoRows)

		transaction, err := repo.FindByIdempotencyKey(context.Background(), 1, "missing")
		assert.NoError(t, err)
		assert.Nil(t, transaction)
	})
}

func TestRepository_Complete(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		status    domain.TransactionStatus
		mockSetup func()
		claimed   bool
		expectErr bool
	}{
		{
			name:   "Claims pending transaction",
			status: domain.StatusSettled,
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status = 'pending'`)).
					WithArgs(int64(10), domain.StatusSettled).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			claimed: true,
		},
		{
			name:   "Already terminal affects no rows",
			status: domain.StatusDenied,
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status = 'pending'`)).
					WithArgs(int64(10), domain.StatusDenied).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			claimed: false,
		},
		{
			name:   "Database error",
			status: domain.StatusCancelled,
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status = 'pending'`)).
					WithArgs(int64(10), domain.StatusCancelled).
					WillReturnError(errors.New("database error"))
			},
			claimed:   false,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			claimed, err := repo.Complete(context.Background(), 10, tt.status)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.claimed, claimed)
		})
	}
}

func TestRepository_FriendsFeed(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	t.Run("Returns page of feed items", func(t *testing.T) {
		rows := pgxmock.NewRows(feedRowColumns)
		feedRow(rows, 10, 1, 2, &now)
		feedRow(rows, 8, 2, 3, &now)
		mock.ExpectQuery(regexp.QuoteMeta(`t.actor_id = ANY($2) AND t.audience IN ('public', 'friends')`)).
			WithArgs(1, []int{2, 3}, int64(0), (*time.Time)(nil), (*time.Time)(nil), 25).
			WillReturnRows(rows)

		items, err := repo.FriendsFeed(context.Background(), 1, []int{2, 3}, Window{Limit: 25})
		assert.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, int64(10), items[0].ID)
		assert.Equal(t, 1, items[0].Actor.ID)
		assert.Equal(t, "alice", items[0].Actor.Username)
		assert.Equal(t, 2, items[0].Target.ID)
	})

	t.Run("Cursor and window are forwarded", func(t *testing.T) {
		before := now.Add(time.Hour)
		after := now.Add(-time.Hour)
		// The keyset guard and the descending order must both be in the
		// statement, or the cursor binding alone proves nothing.
		mock.ExpectQuery(`(?s)` +
			regexp.QuoteMeta(`t.actor_id = ANY($2) AND t.audience IN ('public', 'friends')`) + `.*` +
			regexp.QuoteMeta(`($3::bigint = 0 OR t.id < $3)`) + `.*` +
			regexp.QuoteMeta(`ORDER BY t.id DESC`)).
			WithArgs(1, []int{2}, int64(8), &before, &after, 10).
			WillReturnRows(pgxmock.NewRows(feedRowColumns))

		items, err := repo.FriendsFeed(context.Background(), 1, []int{2}, Window{Limit: 10, Cursor: 8, Before: &before, After: &after})
		assert.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`t.actor_id = ANY($2) AND t.audience IN ('public', 'friends')`)).
			WithArgs(1, []int{2}, int64(0), (*time.Time)(nil), (*time.Time)(nil), 25).
			WillReturnError(errors.New("database error"))

		items, err := repo.FriendsFeed(context.Background(), 1, []int{2}, Window{Limit: 25})
		assert.Error(t, err)
		assert.Nil(t, items)
	})
}

func TestRepository_UserFeed(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(feedRowColumns)
	feedRow(rows, 7, 2, 4, &now)
	mock.ExpectQuery(regexp.QuoteMeta(`(t.audience = 'friends' AND t.actor_id = ANY($3))`)).
		WithArgs(1, 2, []int{2}, int64(0), (*time.Time)(nil), (*time.Time)(nil), 25).
		WillReturnRows(rows)

	items, err := repo.UserFeed(context.Background(), 1, 2, []int{2}, Window{Limit: 25})
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ID)
}

func TestRepository_BetweenFeed(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(feedRowColumns)
	feedRow(rows, 5, 1, 2, &now)
	mock.ExpectQuery(regexp.QuoteMeta(`((t.actor_id = $1 AND t.target_id = $2) OR (t.actor_id = $2 AND t.target_id = $1))`)).
		WithArgs(1, 2, int64(0), (*time.Time)(nil), (*time.Time)(nil), 25).
		WillReturnRows(rows)

	items, err := repo.BetweenFeed(context.Background(), 1, 2, Window{Limit: 25})
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRepository_OutstandingFeed(t *testing.T) {
	repo, mock := NewMock(t)

	rows := pgxmock.NewRows(feedRowColumns).AddRow(
		int64(3), 2, 1, 40.0, "request", "pending", "", "private",
		time.Now(), nil,
		"bob", "Bob", "Jones",
		"alice", "Alice", "Smith",
	)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.status = 'pending'`)).
		WithArgs(1, int64(0), (*time.Time)(nil), (*time.Time)(nil), 25).
		WillReturnRows(rows)

	items, err := repo.OutstandingFeed(context.Background(), 1, Window{Limit: 25})
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, domain.StatusPending, items[0].Status)
	assert.Nil(t, items[0].DateCompleted)
}

func TestRepository_FindForNotification(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	t.Run("Returns undelivered completed transactions", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "actor_id", "target_id", "amount", "action", "status", "note", "audience", "idempotency_key", "date_created", "date_completed"}).
			AddRow(int64(1), 1, 2, 100.0, "pay", "settled", "", "public", nil, now, &now).
			AddRow(int64(2), 2, 1, 40.0, "request", "denied", "", "private", nil, now, &now)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE date_completed IS NOT NULL AND notified_at IS NULL`)).
			WithArgs(1000).
			WillReturnRows(rows)

		transactions, err := repo.FindForNotification(context.Background(), 1000)
		assert.NoError(t, err)
		assert.Len(t, transactions, 2)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE date_completed IS NOT NULL AND notified_at IS NULL`)).
			WithArgs(1000).
			WillReturnError(errors.New("database error"))

		transactions, err := repo.FindForNotification(context.Background(), 1000)
		assert.Error(t, err)
		assert.Nil(t, transactions)
	})
}

func TestRepository_MarkNotified(t *testing.T) {
	repo, mock := NewMock(t)

	t.Run("Marks transaction", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`SET notified_at = now()`)).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.MarkNotified(context.Background(), 1))
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`SET notified_at = now()`)).
			WithArgs(int64(1)).
			WillReturnError(errors.New("database error"))

		assert.Error(t, repo.MarkNotified(context.Background(), 1))
	})
}
