package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GlebRadaev/paylink/internal/config"
	"github.com/GlebRadaev/paylink/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/paylink/pkg/clients"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
)

var deliveringTransactions sync.Map

type TransactionRepo interface {
	FindForNotification(ctx context.Context, limit uint32) ([]domain.Transaction, error)
	MarkNotified(ctx context.Context, id int64) error
}

// Event is the webhook payload sent for every completed transaction.
type Event struct {
	TransactionID int64      `json:"transactionID"`
	ActorID       int        `json:"actorID"`
	TargetID      int        `json:"targetID"`
	Amount        float64    `json:"amount"`
	Action        string     `json:"action"`
	Status        string     `json:"status"`
	DateCompleted *time.Time `json:"dateCompleted"`
}

// Service delivers completion webhooks for settled, denied and cancelled
// transactions. Delivery is at-least-once: a transaction is marked notified
// only after the endpoint acknowledged it.
type Service struct {
	url             string
	transactionRepo TransactionRepo
	client          clients.HTTPClientI
	limit           uint32
	workerPool      WorkerPoolI
	updateInterval  time.Duration
}

func New(cfg *config.Config, transactionRepo TransactionRepo, client clients.HTTPClientI) *Service {
	return &Service{
		url:             cfg.WebhookAddress,
		transactionRepo: transactionRepo,
		client:          client,
		limit:           1000,
		workerPool:      NewWorkerPool(10),
		updateInterval:  time.Second * 5,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Notifier service started")
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping service")
			return
		case <-ticker.C:
			s.processTransactions(ctx)
		}
	}
}

func (s *Service) processTransactions(ctx context.Context) {
	transactions, err := s.transactionRepo.FindForNotification(ctx, atomic.LoadUint32(&s.limit))
	if err != nil {
		zap.L().Error("Failed to fetch transactions for notification", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, transaction := range transactions {
		transaction := transaction

		if _, loaded := deliveringTransactions.LoadOrStore(transaction.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer deliveringTransactions.Delete(transaction.ID)
				return s.deliver(ctx, transaction)
			})
			if err != nil {
				deliveringTransactions.Delete(transaction.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error delivering notifications", zap.Error(err))
	}
}

func (s *Service) deliver(ctx context.Context, transaction domain.Transaction) error {
	body, err := json.Marshal(Event{
		TransactionID: transaction.ID,
		ActorID:       transaction.ActorID,
		TargetID:      transaction.TargetID,
		Amount:        transaction.Amount,
		Action:        string(transaction.Action),
		Status:        string(transaction.Status),
		DateCompleted: transaction.DateCompleted,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event for transaction %d: %w", transaction.ID, err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			statusCode, _, err := s.client.Post(s.url, headers, body)
			if err != nil || statusCode >= http.StatusInternalServerError {
				if attempt < maxRetries {
					time.Sleep(retryInterval * time.Duration(attempt))
					continue
				}
				if err != nil {
					return fmt.Errorf("failed to deliver transaction %d after %d retries: %w", transaction.ID, maxRetries, err)
				}
				return fmt.Errorf("failed to deliver transaction %d after %d retries: status %d", transaction.ID, maxRetries, statusCode)
			}
			if statusCode >= http.StatusBadRequest {
				// Client errors are not retryable; drop the event so it does
				// not clog the queue forever.
				zap.L().Warn("Webhook rejected event", zap.Int64("transactionID", transaction.ID), zap.Int("status", statusCode))
			}
			if err := s.transactionRepo.MarkNotified(ctx, transaction.ID); err != nil {
				return fmt.Errorf("failed to mark transaction %d notified: %w", transaction.ID, err)
			}
			return nil
		}
	}
	return nil
}
