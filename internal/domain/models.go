package domain

import "time"

type User struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type Profile struct {
	UserID    int     `db:"user_id"`
	Username  string  `db:"username"`
	FirstName string  `db:"first_name"`
	LastName  string  `db:"last_name"`
	Balance   float64 `db:"balance"`
}

// RelationshipState is stored relative to the canonical (low_id, high_id)
// ordering of the pair, not relative to who initiated.
type RelationshipState string

const (
	LowRequested  RelationshipState = "lowRequested"
	HighRequested RelationshipState = "highRequested"
	Friend        RelationshipState = "friend"
)

// RelationshipEdge is the single row per unordered user pair; LowID < HighID
// always holds. Absence of a row means no relationship.
type RelationshipEdge struct {
	LowID  int               `db:"low_id"`
	HighID int               `db:"high_id"`
	State  RelationshipState `db:"relationship"`
}

type TransactionAction string

const (
	ActionPay     TransactionAction = "pay"
	ActionRequest TransactionAction = "request"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusSettled   TransactionStatus = "settled"
	StatusDenied    TransactionStatus = "denied"
	StatusCancelled TransactionStatus = "cancelled"
)

type Audience string

const (
	AudiencePublic  Audience = "public"
	AudienceFriends Audience = "friends"
	AudiencePrivate Audience = "private"
)

type Transaction struct {
	ID             int64             `db:"id"`
	ActorID        int               `db:"actor_id"`
	TargetID       int               `db:"target_id"`
	Amount         float64           `db:"amount"`
	Action         TransactionAction `db:"action"`
	Status         TransactionStatus `db:"status"`
	Note           string            `db:"note"`
	Audience       Audience          `db:"audience"`
	IdempotencyKey string            `db:"idempotency_key"`
	DateCreated    time.Time         `db:"date_created"`
	DateCompleted  *time.Time        `db:"date_completed"`
}

// Party carries the profile fields embedded into transaction payloads.
type Party struct {
	ID        int    `db:"id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

// FeedItem is a transaction joined with both parties' profiles, as returned
// by the feed queries.
type FeedItem struct {
	Transaction
	Actor  Party
	Target Party
}

// IsParty reports whether userID is the actor or the target of t.
func (t *Transaction) IsParty(userID int) bool {
	return t.ActorID == userID || t.TargetID == userID
}
