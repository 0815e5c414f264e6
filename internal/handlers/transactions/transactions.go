package transactions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/paylink/internal/domain"
	"github.com/GlebRadaev/paylink/internal/dto"
	"github.com/GlebRadaev/paylink/internal/service/feedservice"
	"github.com/GlebRadaev/paylink/internal/service/transactionservice"
	"github.com/GlebRadaev/paylink/pkg/auth"
	"github.com/GlebRadaev/paylink/pkg/utils"
)

type TransactionService interface {
	Create(ctx context.Context, actorID int, params transactionservice.CreateParams) (*domain.FeedItem, error)
	Transition(ctx context.Context, id int64, action string, callerID int) (*domain.FeedItem, error)
	Get(ctx context.Context, id int64, viewerID int) (*domain.FeedItem, error)
}

type FeedService interface {
	Query(ctx context.Context, req feedservice.Request) (*feedservice.Page, error)
}

type TransactionHandler struct {
	transactionService TransactionService
	feedService        FeedService
}

func New(transactionService TransactionService, feedService FeedService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		feedService:        feedService,
	}
}

// CreateTransaction godoc
//
//	@Summary		Initiate a transaction
//	@Description	Pay the target immediately or request money from them. A pay debits the actor's balance atomically with settlement.
//	@Tags			Transactions
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateTransactionRequestDTO	true	"Transaction payload"
//	@Success		200		{object}	dto.TransactionDTO
//	@Failure		400		{object}	utils.Response	"Validation error"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		402		{object}	utils.Response	"Insufficient funds"
//	@Failure		404		{object}	utils.Response	"Target profile not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/transactions [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	actorID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.CreateTransactionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.transactionService.Create(r.Context(), actorID, transactionservice.CreateParams{
		TargetID:       req.TargetID,
		Amount:         req.Amount,
		Action:         req.Action,
		Note:           req.Note,
		Audience:       req.Audience,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, transactionservice.ErrSelfTransaction),
			errors.Is(err, transactionservice.ErrInvalidAmount),
			errors.Is(err, transactionservice.ErrInvalidAction):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, transactionservice.ErrTargetNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, transactionservice.ErrInsufficientFunds):
			utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionDTO(*item, actorID))
}

// GetFeed godoc
//
//	@Summary		List recent transactions
//	@Description	Page of transactions visible to the viewer, newest first. feed is one of friends, user, betweenUs; unknown values fall back to friends. Amounts appear only for transactions the viewer is a party to.
//	@Tags			Transactions
//	@Security		BearerAuth
//	@Produce		json
//	@Param			feed				query		string	false	"Feed kind"
//	@Param			partyID				query		int		false	"Counterparty for user/betweenUs feeds"
//	@Param			limit				query		int		false	"Page size (default 25, max 100)"
//	@Param			before				query		int		false	"Unix seconds upper bound on completion time"
//	@Param			after				query		int		false	"Unix seconds lower bound on completion time"
//	@Param			lastTransactionID	query		int		false	"Keyset cursor; only strictly older rows are returned"
//	@Success		200					{object}	dto.FeedResponseDTO
//	@Failure		400					{object}	utils.Response	"No partyID specified"
//	@Failure		401					{object}	utils.Response	"User not authorized"
//	@Failure		500					{object}	utils.Response	"Internal server error"
//	@Router			/api/transactions [get]
func (h *TransactionHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Context().Value(auth.UserIDKey).(int)
	h.queryFeed(w, r, r.URL.Query().Get("feed"), viewerID)
}

// GetOutstanding godoc
//
//	@Summary		List outstanding transactions
//	@Description	Pending transactions the viewer is a party to, awaiting approval, denial or cancellation.
//	@Tags			Transactions
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit				query		int	false	"Page size (default 25, max 100)"
//	@Param			before				query		int	false	"Unix seconds upper bound on creation time"
//	@Param			after				query		int	false	"Unix seconds lower bound on creation time"
//	@Param			lastTransactionID	query		int	false	"Keyset cursor"
//	@Success		200					{object}	dto.FeedResponseDTO
//	@Failure		401					{object}	utils.Response	"User not authorized"
//	@Failure		500					{object}	utils.Response	"Internal server error"
//	@Router			/api/transactions/outstanding [get]
func (h *TransactionHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Context().Value(auth.UserIDKey).(int)
	h.queryFeed(w, r, feedservice.FeedOutstanding, viewerID)
}

func (h *TransactionHandler) queryFeed(w http.ResponseWriter, r *http.Request, kind string, viewerID int) {
	q := r.URL.Query()
	partyID, _ := strconv.Atoi(q.Get("partyID"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	cursor, _ := strconv.ParseInt(q.Get("lastTransactionID"), 10, 64)

	page, err := h.feedService.Query(r.Context(), feedservice.Request{
		Kind:     kind,
		ViewerID: viewerID,
		PartyID:  partyID,
		Before:   parseUnix(q.Get("before")),
		After:    parseUnix(q.Get("after")),
		Limit:    limit,
		Cursor:   cursor,
	})
	if err != nil {
		if errors.Is(err, feedservice.ErrPartyRequired) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := dto.FeedResponseDTO{
		Pagination: dto.PaginationDTO{LastTransactionID: page.LastID},
		Data:       make([]dto.TransactionDTO, 0, len(page.Items)),
	}
	for _, item := range page.Items {
		response.Data = append(response.Data, dto.NewTransactionDTO(item, viewerID))
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetTransaction godoc
//
//	@Summary		Get info on a transaction
//	@Description	Returns the transaction when its audience admits the viewer. The amount is redacted unless the viewer is a party.
//	@Tags			Transactions
//	@Security		BearerAuth
//	@Produce		json
//	@Param			transactionID	path		int	true	"Transaction id"
//	@Success		200				{object}	dto.TransactionDTO
//	@Failure		400				{object}	utils.Response	"Invalid transaction id"
//	@Failure		401				{object}	utils.Response	"Unauthorized"
//	@Failure		404				{object}	utils.Response	"Transaction not found"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/transactions/{transactionID} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Context().Value(auth.UserIDKey).(int)

	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	item, err := h.transactionService.Get(r.Context(), id, viewerID)
	if err != nil {
		switch {
		case errors.Is(err, transactionservice.ErrTransactionNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, transactionservice.ErrNotVisible):
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionDTO(*item, viewerID))
}

// TransitionTransaction godoc
//
//	@Summary		Complete a transaction request
//	@Description	Approve, deny or cancel a pending request. Approval debits the target and credits the actor atomically with settlement.
//	@Tags			Transactions
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			transactionID	path		int							true	"Transaction id"
//	@Param			request			body		dto.TransitionRequestDTO	true	"Requested action"
//	@Success		200				{object}	dto.TransactionDTO
//	@Failure		400				{object}	utils.Response	"Invalid/missing action or transaction is not pending"
//	@Failure		401				{object}	utils.Response	"Unauthorized"
//	@Failure		402				{object}	utils.Response	"Insufficient funds"
//	@Failure		404				{object}	utils.Response	"Transaction not found"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/transactions/{transactionID} [put]
func (h *TransactionHandler) TransitionTransaction(w http.ResponseWriter, r *http.Request) {
	callerID := r.Context().Value(auth.UserIDKey).(int)

	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req dto.TransitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.transactionService.Transition(r.Context(), id, req.Action, callerID)
	if err != nil {
		switch {
		case errors.Is(err, transactionservice.ErrTransactionNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, transactionservice.ErrNotPending),
			errors.Is(err, transactionservice.ErrInvalidAction):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, transactionservice.ErrNotAllowed):
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, transactionservice.ErrInsufficientFunds):
			utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionDTO(*item, callerID))
}

func parseUnix(s string) *time.Time {
	if s == "" {
		return nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}
