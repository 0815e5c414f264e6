package repo

import (
	"github.com/GlebRadaev/paylink/internal/pg"
	friendrepo "github.com/GlebRadaev/paylink/internal/repo/friend-repo"
	profilerepo "github.com/GlebRadaev/paylink/internal/repo/profile-repo"
	transactionrepo "github.com/GlebRadaev/paylink/internal/repo/transaction-repo"
	userrepo "github.com/GlebRadaev/paylink/internal/repo/user-repo"
)

type Repositories struct {
	UserRepo        *userrepo.Repository
	ProfileRepo     *profilerepo.Repository
	FriendRepo      *friendrepo.Repository
	TransactionRepo *transactionrepo.Repository
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		UserRepo:        userrepo.New(conn),
		ProfileRepo:     profilerepo.New(conn),
		FriendRepo:      friendrepo.New(conn),
		TransactionRepo: transactionrepo.New(conn),
	}
}
