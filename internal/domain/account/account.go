package account

import (
	"time"

	"github.com/google/uuid"
)

// Account carries the slice of identity state the auction core needs:
// whether a user may bid, list, or receive a win. Authentication, KYC and
// wallet balances live in external collaborators.
type Account struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	Role         Role         `json:"role"`
	Status       Status       `json:"status"`
	Verification Verification `json:"verification"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role int

const (
	RoleBuyer Role = iota
	RoleSeller
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleBuyer:
		return "buyer"
	case RoleSeller:
		return "seller"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts the persisted representation back to Role
func ParseRole(s string) Role {
	switch s {
	case "seller":
		return RoleSeller
	case "admin":
		return RoleAdmin
	default:
		return RoleBuyer
	}
}

type Status int

const (
	StatusActive Status = iota
	StatusSuspended
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSuspended:
		return "suspended"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParseStatus converts the persisted representation back to Status
func ParseStatus(s string) Status {
	switch s {
	case "suspended":
		return StatusSuspended
	case "closed":
		return StatusClosed
	default:
		return StatusActive
	}
}

type Verification int

const (
	VerificationNone Verification = iota
	VerificationPending
	VerificationApproved
)

func (v Verification) String() string {
	switch v {
	case VerificationPending:
		return "pending"
	case VerificationApproved:
		return "approved"
	default:
		return "none"
	}
}

// ParseVerification converts the persisted representation back to
// Verification
func ParseVerification(s string) Verification {
	switch s {
	case "pending":
		return VerificationPending
	case "approved":
		return VerificationApproved
	default:
		return VerificationNone
	}
}

// CanTransact reports whether the account may complete bids or purchases
func (a *Account) CanTransact() bool {
	return a.Status == StatusActive
}
