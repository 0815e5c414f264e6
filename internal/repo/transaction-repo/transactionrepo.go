package transactionrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/GlebRadaev/paylink/internal/domain"
	"github.com/GlebRadaev/paylink/internal/pg"
	"go.uber.org/zap"
)

// Window bounds a feed page: keyset cursor on id plus an optional completion
// time window, independent of each other.
type Window struct {
	Limit  int
	Cursor int64
	Before *time.Time
	After  *time.Time
}

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

const feedColumns = `
        t.id, t.actor_id, t.target_id, t.amount, t.action, t.status, t.note, t.audience,
        t.date_created, t.date_completed,
        au.username, ap.first_name, ap.last_name,
        tu.username, tp.first_name, tp.last_name
`

const feedJoins = `
        FROM transactions t
        JOIN users au ON au.id = t.actor_id
        JOIN profiles ap ON ap.user_id = t.actor_id
        JOIN users tu ON tu.id = t.target_id
        JOIN profiles tp ON tp.user_id = t.target_id
`

// Create inserts the transaction row. A pay is settled at insert: the
// completion timestamp is stamped from the same now() as date_created, so
// both are equal within the statement.
func (r *Repository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
        INSERT INTO transactions (actor_id, target_id, amount, action, status, note, audience, idempotency_key, date_created, date_completed)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), now(), CASE WHEN $5 = 'settled' THEN now() ELSE NULL END)
        RETURNING id, date_created, date_completed
    `
	err := r.db.QueryRow(ctx, query,
		t.ActorID, t.TargetID, t.Amount, t.Action, t.Status, t.Note, t.Audience, t.IdempotencyKey,
	).Scan(&t.ID, &t.DateCreated, &t.DateCompleted)
	if err != nil {
		zap.L().Error("can't save transaction", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `
        SELECT id, actor_id, target_id, amount, action, status, note, audience, idempotency_key, date_created, date_completed
        FROM transactions
        WHERE id = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, actorID int, key string) (*domain.Transaction, error) {
	query := `
        SELECT id, actor_id, target_id, amount, action, status, note, audience, idempotency_key, date_created, date_completed
        FROM transactions
        WHERE actor_id = $1 AND idempotency_key = $2
    `
	return r.scanOne(r.db.QueryRow(ctx, query, actorID, key))
}

func (r *Repository) scanOne(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var key *string
	err := row.Scan(&t.ID, &t.ActorID, &t.TargetID, &t.Amount, &t.Action, &t.Status, &t.Note, &t.Audience, &key, &t.DateCreated, &t.DateCompleted)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("can't find transaction", zap.Error(err))
		return nil, err
	}
	if key != nil {
		t.IdempotencyKey = *key
	}
	return &t, nil
}

// Complete claims the pending transaction and stamps its terminal status.
// The status guard in the WHERE clause makes the transition monotone: once
// claimed, a concurrent or retried call affects zero rows and gets false.
func (r *Repository) Complete(ctx context.Context, id int64, status domain.TransactionStatus) (bool, error) {
	query := `
        UPDATE transactions
        SET status = $2, date_completed = now()
        WHERE id = $1 AND status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		zap.L().Error("can't complete transaction", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FriendsFeed returns settled transactions where the viewer is a party, or a
// friend's transaction whose audience admits friends.
func (r *Repository) FriendsFeed(ctx context.Context, viewerID int, friendIDs []int, w Window) ([]domain.FeedItem, error) {
	query := `SELECT` + feedColumns + feedJoins + `
        WHERE t.status = 'settled'
          AND (t.actor_id = $1 OR t.target_id = $1
               OR (t.actor_id = ANY($2) AND t.audience IN ('public', 'friends')))
          AND ($3::bigint = 0 OR t.id < $3)
          AND ($4::timestamptz IS NULL OR t.date_completed < $4)
          AND ($5::timestamptz IS NULL OR t.date_completed > $5)
        ORDER BY t.id DESC
        LIMIT $6
    `
	rows, err := r.db.Query(ctx, query, viewerID, friendIDs, w.Cursor, w.Before, w.After, w.Limit)
	if err != nil {
		zap.L().Error("can't get friends feed", zap.Error(err))
		return nil, err
	}
	return r.scanFeed(rows)
}

// UserFeed returns settled transactions of one party, filtered by what the
// viewer may see: public always, own ones always, friends-audience only when
// the transaction's actor is among the viewer's friends.
func (r *Repository) UserFeed(ctx context.Context, viewerID, partyID int, friendIDs []int, w Window) ([]domain.FeedItem, error) {
	query := `SELECT` + feedColumns + feedJoins + `
        WHERE t.status = 'settled'
          AND (t.actor_id = $2 OR t.target_id = $2)
          AND (t.audience = 'public' OR t.actor_id = $1 OR t.target_id = $1
               OR (t.audience = 'friends' AND t.actor_id = ANY($3)))
          AND ($4::bigint = 0 OR t.id < $4)
          AND ($5::timestamptz IS NULL OR t.date_completed < $5)
          AND ($6::timestamptz IS NULL OR t.date_completed > $6)
        ORDER BY t.id DESC
        LIMIT $7
    `
	rows, err := r.db.Query(ctx, query, viewerID, partyID, friendIDs, w.Cursor, w.Before, w.After, w.Limit)
	if err != nil {
		zap.L().Error("can't get user feed", zap.Error(err))
		return nil, err
	}
	return r.scanFeed(rows)
}

// BetweenFeed returns settled transactions strictly between the two users,
// either direction, regardless of audience: both are always parties.
func (r *Repository) BetweenFeed(ctx context.Context, viewerID, partyID int, w Window) ([]domain.FeedItem, error) {
	query := `SELECT` + feedColumns + feedJoins + `
        WHERE t.status = 'settled'
          AND ((t.actor_id = $1 AND t.target_id = $2) OR (t.actor_id = $2 AND t.target_id = $1))
          AND ($3::bigint = 0 OR t.id < $3)
          AND ($4::timestamptz IS NULL OR t.date_completed < $4)
          AND ($5::timestamptz IS NULL OR t.date_completed > $5)
        ORDER BY t.id DESC
        LIMIT $6
    `
	rows, err := r.db.Query(ctx, query, viewerID, partyID, w.Cursor, w.Before, w.After, w.Limit)
	if err != nil {
		zap.L().Error("can't get between feed", zap.Error(err))
		return nil, err
	}
	return r.scanFeed(rows)
}

// OutstandingFeed returns pending transactions the viewer is a party to. The
// time window applies to date_created: pending rows have no completion
// timestamp yet.
func (r *Repository) OutstandingFeed(ctx context.Context, viewerID int, w Window) ([]domain.FeedItem, error) {
	query := `SELECT` + feedColumns + feedJoins + `
        WHERE t.status = 'pending'
          AND (t.actor_id = $1 OR t.target_id = $1)
          AND ($2::bigint = 0 OR t.id < $2)
          AND ($3::timestamptz IS NULL OR t.date_created < $3)
          AND ($4::timestamptz IS NULL OR t.date_created > $4)
        ORDER BY t.id DESC
        LIMIT $5
    `
	rows, err := r.db.Query(ctx, query, viewerID, w.Cursor, w.Before, w.After, w.Limit)
	if err != nil {
		zap.L().Error("can't get outstanding feed", zap.Error(err))
		return nil, err
	}
	return r.scanFeed(rows)
}

func (r *Repository) scanFeed(rows pgx.Rows) ([]domain.FeedItem, error) {
	defer rows.Close()

	var items []domain.FeedItem
	for rows.Next() {
		var item domain.FeedItem
		err := rows.Scan(
			&item.ID, &item.ActorID, &item.TargetID, &item.Amount, &item.Action, &item.Status, &item.Note, &item.Audience,
			&item.DateCreated, &item.DateCompleted,
			&item.Actor.Username, &item.Actor.FirstName, &item.Actor.LastName,
			&item.Target.Username, &item.Target.FirstName, &item.Target.LastName,
		)
		if err != nil {
			zap.L().Error("can't scan feed row", zap.Error(err))
			return nil, err
		}
		item.Actor.ID = item.ActorID
		item.Target.ID = item.TargetID
		items = append(items, item)
	}
	return items, nil
}

// FindForNotification returns completed transactions not yet delivered to the
// webhook.
func (r *Repository) FindForNotification(ctx context.Context, limit uint32) ([]domain.Transaction, error) {
	query := `
        SELECT id, actor_id, target_id, amount, action, status, note, audience, idempotency_key, date_created, date_completed
        FROM transactions
        WHERE date_completed IS NOT NULL AND notified_at IS NULL
        ORDER BY id ASC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, int(limit))
	if err != nil {
		zap.L().Error("can't get transactions for notification", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var key *string
		err := rows.Scan(&t.ID, &t.ActorID, &t.TargetID, &t.Amount, &t.Action, &t.Status, &t.Note, &t.Audience, &key, &t.DateCreated, &t.DateCompleted)
		if err != nil {
			zap.L().Error("can't scan transaction row for notification", zap.Error(err))
			return nil, err
		}
		if key != nil {
			t.IdempotencyKey = *key
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

func (r *Repository) MarkNotified(ctx context.Context, id int64) error {
	query := `
        UPDATE transactions
        SET notified_at = now()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		zap.L().Error("can't mark transaction notified", zap.Error(err))
		return err
	}
	return nil
}
