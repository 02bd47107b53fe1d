package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// AccountRole represents the role of an account
type AccountRole string

const (
	RoleAdmin AccountRole = "admin"
	RoleUser  AccountRole = "user"
)

// AccountStatus represents the lifecycle status of an account
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
)

// Account represents a dashboard account. The subject ID is stable and
// provider-independent; once assigned it never changes. Accounts are never
// hard-deleted, they transition to inactive instead.
type Account struct {
	SubjectID    string        `json:"subject_id"`
	Email        string        `json:"email"`
	DisplayName  string        `json:"display_name"`
	PasswordHash string        `json:"-"` // Exclude from JSON
	Role         AccountRole   `json:"role"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	LastLoginAt  *time.Time    `json:"last_login_at,omitempty"`
	LastLoginIP  string        `json:"last_login_ip,omitempty"`
	LastLoginUA  string        `json:"last_login_ua,omitempty"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
}

// NewAccount creates a new account with validation
func NewAccount(subjectID, email, displayName string) (*Account, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email format: %w", err)
	}

	now := time.Now()
	return &Account{
		SubjectID:   subjectID,
		Email:       email,
		DisplayName: displayName,
		Role:        RoleUser,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// RecordLogin stamps the last login time and request origin
func (a *Account) RecordLogin(loginTime time.Time, ip, userAgent string) {
	a.LastLoginAt = &loginTime
	a.LastLoginIP = ip
	a.LastLoginUA = userAgent
	a.UpdatedAt = time.Now()
}

// ChangeRole changes the account role with validation
func (a *Account) ChangeRole(role AccountRole) error {
	switch role {
	case RoleAdmin, RoleUser:
		a.Role = role
		a.UpdatedAt = time.Now()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidRole, role)
}

// ChangeStatus changes the account status with validation
func (a *Account) ChangeStatus(status AccountStatus) error {
	switch status {
	case StatusActive, StatusInactive:
		a.Status = status
		a.UpdatedAt = time.Now()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
}

// Deactivate soft-deletes the account
func (a *Account) Deactivate() {
	now := time.Now()
	a.DeletedAt = &now
	a.Status = StatusInactive
	a.UpdatedAt = now
}

// IsActive returns true if the account may be admitted
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// IsAdmin returns true if the account has the admin role
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
