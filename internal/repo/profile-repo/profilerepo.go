package profilerepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/GlebRadaev/paylink/internal/domain"
	"github.com/GlebRadaev/paylink/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CreateProfile(ctx context.Context, userID int, startingBalance float64) (*domain.Profile, error) {
	query := `
        INSERT INTO profiles (user_id, first_name, last_name, balance)
        VALUES ($1, '', '', $2)
        RETURNING user_id, first_name, last_name, balance
    `
	row := r.db.QueryRow(ctx, query, userID, startingBalance)
	var profile domain.Profile
	err := row.Scan(&profile.UserID, &profile.FirstName, &profile.LastName, &profile.Balance)
	if err != nil {
		zap.L().Error("failed to create profile", zap.Error(err))
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) GetProfile(ctx context.Context, userID int) (*domain.Profile, error) {
	query := `
        SELECT p.user_id, u.username, p.first_name, p.last_name, p.balance
        FROM profiles p
        JOIN users u ON u.id = p.user_id
        WHERE p.user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var profile domain.Profile
	err := row.Scan(&profile.UserID, &profile.Username, &profile.FirstName, &profile.LastName, &profile.Balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get profile", zap.Error(err))
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) UpdateName(ctx context.Context, userID int, firstName, lastName string) (*domain.Profile, error) {
	query := `
		UPDATE profiles
		SET first_name = $1, last_name = $2
		WHERE user_id = $3
		RETURNING user_id, first_name, last_name, balance
	`
	row := r.db.QueryRow(ctx, query, firstName, lastName, userID)
	var profile domain.Profile
	err := row.Scan(&profile.UserID, &profile.FirstName, &profile.LastName, &profile.Balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to update profile name", zap.Error(err))
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) Search(ctx context.Context, query string, limit int) ([]domain.Profile, error) {
	sql := `
        SELECT p.user_id, u.username, p.first_name, p.last_name
        FROM profiles p
        JOIN users u ON u.id = p.user_id
        WHERE u.username ILIKE '%' || $1 || '%'
           OR p.first_name ILIKE '%' || $1 || '%'
           OR p.last_name ILIKE '%' || $1 || '%'
        ORDER BY u.username
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, sql, query, limit)
	if err != nil {
		zap.L().Error("failed to search profiles", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var profile domain.Profile
		err := rows.Scan(&profile.UserID, &profile.Username, &profile.FirstName, &profile.LastName)
		if err != nil {
			zap.L().Error("failed to scan profile row", zap.Error(err))
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// Debit applies a conditional balance decrement. The WHERE clause keeps the
// balance non-negative; the affected-row count reports whether the funds were
// actually there, so concurrent debits can never drain past zero.
func (r *Repository) Debit(ctx context.Context, userID int, amount float64) (bool, error) {
	query := `
		UPDATE profiles
		SET balance = balance - $1
		WHERE user_id = $2 AND balance >= $1
	`
	tag, err := r.db.Exec(ctx, query, amount, userID)
	if err != nil {
		zap.L().Error("failed to debit balance", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) Credit(ctx context.Context, userID int, amount float64) error {
	query := `
		UPDATE profiles
		SET balance = balance + $1
		WHERE user_id = $2
	`
	tag, err := r.db.Exec(ctx, query, amount, userID)
	if err != nil {
		zap.L().Error("failed to credit balance", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
