package domain

import (
	"errors"
	"fmt"
	"time"
)

// Role is fixed when the user is created
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account able to log in
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"nombre" db:"nombre"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"rol" db:"rol"`
	CreatedAt    time.Time `json:"creado_en" db:"creado_en"`
}

// Principal returns the identity stored in an authenticated session
func (u *User) Principal() *Principal {
	return &Principal{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// Principal is the authenticated identity attached to a request
type Principal struct {
	UserID int64  `json:"id"`
	Name   string `json:"nombre"`
	Role   Role   `json:"rol"`
}

// IsAdmin reports whether the principal holds the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Action is an operation subject to authorization
type Action int

const (
	ActionBrowse Action = iota
	ActionUseCart
	ActionViewHistory
	ActionPurchase
	ActionManageCatalog
	ActionViewDashboard
)

func (a Action) String() string {
	switch a {
	case ActionBrowse:
		return "browse"
	case ActionUseCart:
		return "use_cart"
	case ActionViewHistory:
		return "view_history"
	case ActionPurchase:
		return "purchase"
	case ActionManageCatalog:
		return "manage_catalog"
	case ActionViewDashboard:
		return "view_dashboard"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

var (
	ErrNotAuthenticated    = errors.New("authentication required")
	ErrForbidden           = errors.New("insufficient permissions")
	ErrAdminCannotPurchase = fmt.Errorf("%w: administrators cannot purchase products", ErrForbidden)
)

// Authorize is the single authorization predicate for every gated operation.
// A nil principal means an anonymous request.
func Authorize(p *Principal, action Action) error {
	if action == ActionBrowse {
		return nil
	}
	if p == nil {
		return ErrNotAuthenticated
	}

	switch action {
	case ActionUseCart, ActionViewHistory, ActionViewDashboard:
		return nil
	case ActionPurchase:
		if p.IsAdmin() {
			return ErrAdminCannotPurchase
		}
		return nil
	case ActionManageCatalog:
		if !p.IsAdmin() {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}
