package account

import (
	"github.com/ficoreafrica/ledger/id"
	"github.com/ficoreafrica/ledger/types"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account holds the prepaid credit balance of one user. Balance is in
// whole credit units and never drops below zero.
type Account struct {
	types.Entity
	ID          id.AccountID `json:"id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	Role        Role         `json:"role"`
	Balance     int64        `json:"balance"`
}

func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }
