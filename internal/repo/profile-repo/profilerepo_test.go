package profilerepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

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

func TestRepository_CreateProfile(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		userID    int
		balance   float64
		mockSetup func()
		expectErr bool
		result    *domain.Profile
	}{
		{
			name:    "Successfully creates profile",
			userID:  1,
			balance: 500,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO profiles (user_id, first_name, last_name, balance)`)).
					WithArgs(1, 500.0).
					WillReturnRows(pgxmock.NewRows([]string{"user_id", "first_name", "last_name", "balance"}).
						AddRow(1, "", "", 500.0))
			},
			expectErr: false,
			result:    &domain.Profile{UserID: 1, Balance: 500},
		},
		{
			name:    "Database error",
			userID:  1,
			balance: 500,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO profiles (user_id, first_name, last_name, balance)`)).
					WithArgs(1, 500.0).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.CreateProfile(context.Background(), tt.userID, tt.balance)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestRepository_GetProfile(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		userID    int
		mockSetup func()
		expectErr bool
		result    *domain.Profile
	}{
		{
			name:   "Existing profile",
			userID: 1,
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"user_id", "username", "first_name", "last_name", "balance"}).
					AddRow(1, "alice", "Alice", "Smith", 350.0)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.user_id, u.username, p.first_name, p.last_name, p.balance`)).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectErr: false,
			result:    &domain.Profile{UserID: 1, Username: "alice", FirstName: "Alice", LastName: "Smith", Balance: 350},
		},
		{
			name:   "Missing profile returns nil",
			userID: 99,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.user_id, u.username, p.first_name, p.last_name, p.balance`)).
					WithArgs(99).
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: false,
			result:    nil,
		},
		{
			name:   "Database error",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.user_id, u.username, p.first_name, p.last_name, p.balance`)).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetProfile(context.Background(), tt.userID)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestRepository_UpdateName(t *testing.T) {
	repo, mock := NewMock(t)

	t.Run("Successfully updates name", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE profiles`)).
			WithArgs("Alice", "Smith", 1).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "first_name", "last_name", "balance"}).
				AddRow(1, "Alice", "Smith", 350.0))

		result, err := repo.UpdateName(context.Background(), 1, "Alice", "Smith")
		assert.NoError(t, err)
		assert.Equal(t, &domain.Profile{UserID: 1, FirstName: "Alice", LastName: "Smith", Balance: 350}, result)
	})

	t.Run("Missing profile returns nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE profiles`)).
			WithArgs("Alice", "Smith", 99).
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.UpdateName(context.Background(), 99, "Alice", "Smith")
		assert.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestRepository_Search(t *testing.T) {
	repo, mock := NewMock(t)

	t.Run("Finds matching profiles", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"user_id", "username", "first_name", "last_name"}).
			AddRow(1, "alice", "Alice", "Smith").
			AddRow(3, "alicia", "Alicia", "Brown")
		mock.ExpectQuery(regexp.QuoteMeta(`ILIKE '%' || $1 || '%'`)).
			WithArgs("ali", 25).
			WillReturnRows(rows)

		result, err := repo.Search(context.Background(), "ali", 25)
		assert.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Equal(t, "alice", result[0].Username)
		assert.Equal(t, "alicia", result[1].Username)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`ILIKE '%' || $1 || '%'`)).
			WithArgs("ali", 25).
			WillReturnError(errors.New("database error"))

		result, err := repo.Search(context.Background(), "ali", 25)
		assert.Error(t, err)
		assert.Nil(t, result)
	})
}

func TestRepository_Debit(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		amount    float64
		mockSetup func()
		expectOK  bool
		expectErr bool
	}{
		{
			name:   "Sufficient funds",
			amount: 150,
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance - $1`)).
					WithArgs(150.0, 1).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			expectOK: true,
		},
		{
			name:   "Insufficient funds affects no rows",
			amount: 9000,
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance - $1`)).
					WithArgs(9000.0, 1).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			expectOK: false,
		},
		{
			name:   "Database error",
			amount: 150,
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance - $1`)).
					WithArgs(150.0, 1).
					WillReturnError(errors.New("database error"))
			},
			expectOK:  false,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			ok, err := repo.Debit(context.Background(), 1, tt.amount)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectOK, ok)
		})
	}
}

func TestRepository_Credit(t *testing.T) {
	repo, mock := NewMock(t)

	t.Run("Successfully credits balance", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
			WithArgs(100.0, 2).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Credit(context.Background(), 2, 100)
		assert.NoError(t, err)
	})

	t.Run("Missing profile", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
			WithArgs(100.0, 99).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Credit(context.Background(), 99, 100)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})
}
