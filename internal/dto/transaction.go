package dto

import (
	"time"

	"github.com/GlebRadaev/paylink/internal/domain"
)

type CreateTransactionRequestDTO struct {
	TargetID       int     `json:"targetID" example:"2"`
	Amount         float64 `json:"amount" example:"150"`
	Action         string  `json:"action" example:"pay"`
	Note           string  `json:"note" example:"lunch"`
	Audience       string  `json:"audience" example:"public"`
	IdempotencyKey string  `json:"idempotencyKey,omitempty" example:"2f1e7a60"`
}

type TransitionRequestDTO struct {
	Action string `json:"action" example:"approve"`
}

type TransactionDTO struct {
	ID            int64      `json:"id" example:"10"`
	Amount        *float64   `json:"amount,omitempty" example:"150"`
	Action        string     `json:"action" example:"pay"`
	Status        string     `json:"status" example:"settled"`
	Note          string     `json:"note" example:"lunch"`
	DateCreated   time.Time  `json:"dateCreated" example:"2020-12-09T16:09:57+03:00"`
	DateCompleted *time.Time `json:"dateCompleted"`
	Audience      string     `json:"audience" example:"public"`
	Actor         PartyDTO   `json:"actor"`
	Target        PartyDTO   `json:"target"`
}

type PaginationDTO struct {
	LastTransactionID int64 `json:"lastTransactionID,omitempty" example:"4"`
}

type FeedResponseDTO struct {
	Pagination PaginationDTO    `json:"pagination"`
	Data       []TransactionDTO `json:"data"`
}

// NewTransactionDTO maps a feed item for the given viewer. The amount is
// part of the payload only when the viewer is the actor or the target;
// visibility of the transaction's metadata never implies visibility of the
// amount.
func NewTransactionDTO(item domain.FeedItem, viewerID int) TransactionDTO {
	d := TransactionDTO{
		ID:            item.ID,
		Action:        string(item.Action),
		Status:        string(item.Status),
		Note:          item.Note,
		DateCreated:   item.DateCreated,
		DateCompleted: item.DateCompleted,
		Audience:      string(item.Audience),
		Actor:         NewPartyDTO(item.Actor),
		Target:        NewPartyDTO(item.Target),
	}
	if item.IsParty(viewerID) {
		amount := item.Amount
		d.Amount = &amount
	}
	return d
}
