package friendrepo

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

func (r *Repository) Get(ctx context.Context, lowID, highID int) (*domain.RelationshipEdge, error) {
	query := `
        SELECT low_id, high_id, relationship
        FROM friends
        WHERE low_id = $1 AND high_id = $2
    `
	row := r.db.QueryRow(ctx, query, lowID, highID)
	var edge domain.RelationshipEdge
	err := row.Scan(&edge.LowID, &edge.HighID, &edge.State)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("can't get relationship edge", zap.Error(err))
		return nil, err
	}
	return &edge, nil
}

// Request inserts the requester-side edge or promotes an existing
// complementary request to friend, in a single upsert keyed on the canonical
// pair. Two simultaneous requesters can never produce two rows: the second
// writer conflicts on the pair and takes the promote path. When the conflict
// row is neither absent nor complementary (same side re-requesting, or
// already friends) the statement touches nothing and the current edge is
// returned as-is.
func (r *Repository) Request(ctx context.Context, lowID, highID int, insert, promoteFrom domain.RelationshipState) (*domain.RelationshipEdge, error) {
	query := `
        INSERT INTO friends (low_id, high_id, relationship)
        VALUES ($1, $2, $3)
        ON CONFLICT (low_id, high_id) DO UPDATE
        SET relationship = 'friend'
        WHERE friends.relationship = $4
        RETURNING low_id, high_id, relationship
    `
	row := r.db.QueryRow(ctx, query, lowID, highID, insert, promoteFrom)
	var edge domain.RelationshipEdge
	err := row.Scan(&edge.LowID, &edge.HighID, &edge.State)
	if err != nil {
		if err == pgx.ErrNoRows {
			return r.Get(ctx, lowID, highID)
		}
		zap.L().Error("can't upsert relationship edge", zap.Error(err))
		return nil, err
	}
	return &edge, nil
}

func (r *Repository) Delete(ctx context.Context, lowID, highID int) error {
	query := `
        DELETE FROM friends
        WHERE low_id = $1 AND high_id = $2
    `
	_, err := r.db.Exec(ctx, query, lowID, highID)
	if err != nil {
		zap.L().Error("can't delete relationship edge", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FriendIDs(ctx context.Context, userID int) ([]int, error) {
	query := `
        SELECT CASE WHEN low_id = $1 THEN high_id ELSE low_id END
        FROM friends
        WHERE (low_id = $1 OR high_id = $1) AND relationship = 'friend'
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't get friend ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("can't scan friend id", zap.Error(err))
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Repository) ListFriends(ctx context.Context, userID int) ([]domain.Profile, error) {
	query := `
        SELECT p.user_id, u.username, p.first_name, p.last_name
        FROM friends f
        JOIN profiles p ON p.user_id = CASE WHEN f.low_id = $1 THEN f.high_id ELSE f.low_id END
        JOIN users u ON u.id = p.user_id
        WHERE (f.low_id = $1 OR f.high_id = $1) AND f.relationship = 'friend'
        ORDER BY u.username
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't list friends", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var friends []domain.Profile
	for rows.Next() {
		var profile domain.Profile
		err := rows.Scan(&profile.UserID, &profile.Username, &profile.FirstName, &profile.LastName)
		if err != nil {
			zap.L().Error("can't scan friend row", zap.Error(err))
			return nil, err
		}
		friends = append(friends, profile)
	}
	return friends, nil
}
