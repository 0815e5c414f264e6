package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/paylink/docs"
	authhandlers "github.com/GlebRadaev/paylink/internal/handlers/auth"
	profilehandlers "github.com/GlebRadaev/paylink/internal/handlers/profile"
	transactionhandlers "github.com/GlebRadaev/paylink/internal/handlers/transactions"
	"github.com/GlebRadaev/paylink/internal/service"
	"github.com/GlebRadaev/paylink/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type ProfileHandler interface {
	GetMe(w http.ResponseWriter, r *http.Request)
	UpdateMe(w http.ResponseWriter, r *http.Request)
	GetProfile(w http.ResponseWriter, r *http.Request)
	SetRelationship(w http.ResponseWriter, r *http.Request)
	GetFriends(w http.ResponseWriter, r *http.Request)
	Search(w http.ResponseWriter, r *http.Request)
}

type TransactionHandler interface {
	CreateTransaction(w http.ResponseWriter, r *http.Request)
	GetFeed(w http.ResponseWriter, r *http.Request)
	GetOutstanding(w http.ResponseWriter, r *http.Request)
	GetTransaction(w http.ResponseWriter, r *http.Request)
	TransitionTransaction(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler        AuthHandler
	ProfileHandler     ProfileHandler
	TransactionHandler TransactionHandler
}

func New(s *service.Services) *Handlers {
	return &Handlers{
		AuthHandler:        authhandlers.New(s.AuthService),
		ProfileHandler:     profilehandlers.New(s.ProfileService, s.FriendService),
		TransactionHandler: transactionhandlers.New(s.TransactionService, s.FeedService),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", h.AuthHandler.Register)
		r.Post("/user/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware)
			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.ProfileHandler.GetMe)
				r.Put("/", h.ProfileHandler.UpdateMe)
			})
			r.Route("/profiles", func(r chi.Router) {
				r.Get("/", h.ProfileHandler.Search)
				r.Route("/{userID}", func(r chi.Router) {
					r.Get("/", h.ProfileHandler.GetProfile)
					r.Post("/", h.ProfileHandler.SetRelationship)
					r.Get("/friends", h.ProfileHandler.GetFriends)
				})
			})
			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", h.TransactionHandler.CreateTransaction)
				r.Get("/", h.TransactionHandler.GetFeed)
				r.Get("/outstanding", h.TransactionHandler.GetOutstanding)
				r.Route("/{transactionID}", func(r chi.Router) {
					r.Get("/", h.TransactionHandler.GetTransaction)
					r.Put("/", h.TransactionHandler.TransitionTransaction)
				})
			})
		})
	})

	return r
}
