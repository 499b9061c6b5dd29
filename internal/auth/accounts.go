package auth

import (
	"errors"

	"github.com/partnerbot/backend/config"
	"github.com/partnerbot/backend/pkg/utils"
)

// Operator roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Account is one configured operator.
type Account struct {
	Username     string
	PasswordHash string
	Role         string
}

// Accounts holds the operators allowed to use the admin API.
type Accounts struct {
	byName map[string]Account
}

// NewAccounts builds the account set from configuration. Accounts without a valid bcrypt hash
// are disabled.
func NewAccounts(cfg config.AdminConfig) *Accounts {
	a := &Accounts{byName: make(map[string]Account)}
	a.add(Account{Username: cfg.Username, PasswordHash: cfg.PasswordHash, Role: RoleAdmin})
	a.add(Account{Username: cfg.ViewerUsername, PasswordHash: cfg.ViewerPasswordHash, Role: RoleViewer})
	return a
}

func (a *Accounts) add(acc Account) {
	if acc.Username == "" || !utils.ValidHash(acc.PasswordHash) {
		return
	}
	a.byName[acc.Username] = acc
}

// Len reports how many accounts are enabled.
func (a *Accounts) Len() int { return len(a.byName) }

// Authenticate checks a username and password.
func (a *Accounts) Authenticate(username, password string) (Account, error) {
	acc, ok := a.byName[username]
	if !ok || !utils.CheckPassword(password, acc.PasswordHash) {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}
