package service

import (
	"github.com/GlebRadaev/paylink/internal/config"
	"github.com/GlebRadaev/paylink/internal/pg"
	"github.com/GlebRadaev/paylink/internal/repo"
	"github.com/GlebRadaev/paylink/internal/service/authservice"
	"github.com/GlebRadaev/paylink/internal/service/feedservice"
	"github.com/GlebRadaev/paylink/internal/service/friendservice"
	"github.com/GlebRadaev/paylink/internal/service/profileservice"
	"github.com/GlebRadaev/paylink/internal/service/transactionservice"

	pkgauth "github.com/GlebRadaev/paylink/pkg/auth"
)

type Services struct {
	AuthService        *authservice.Service
	ProfileService     *profileservice.Service
	FriendService      *friendservice.Service
	TransactionService *transactionservice.Service
	FeedService        *feedservice.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, cfg *config.Config) *Services {
	profileService := profileservice.New(repo.ProfileRepo, repo.FriendRepo, cfg.StartingBalance)
	friendService := friendservice.New(repo.FriendRepo)
	transactionService := transactionservice.New(repo.TransactionRepo, repo.ProfileRepo, repo.FriendRepo, txManager)
	feedService := feedservice.New(repo.TransactionRepo, repo.FriendRepo)
	authService := authservice.New(repo.UserRepo, profileService, &pkgauth.HashService{}, &pkgauth.JWTService{})

	return &Services{
		AuthService:        authService,
		ProfileService:     profileService,
		FriendService:      friendService,
		TransactionService: transactionService,
		FeedService:        feedService,
	}
}
