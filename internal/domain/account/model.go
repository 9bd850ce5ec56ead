package account

import (
	"fmt"
	"regexp"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
)

// Departments staff can belong to.
var validDepartments = map[string]bool{
	"emergency":  true,
	"cardiology": true,
	"pediatrics": true,
	"surgery":    true,
	"general":    true,
}

var validRoles = map[string]bool{
	auth.RoleDoctor: true,
	auth.RoleNurse:  true,
	auth.RoleAdmin:  true,
}

var phonePattern = regexp.MustCompile(`^\+?[0-9\-\s()]{7,20}$`)

// User maps to the users table. Credentials live in the identity provider;
// this row is the staff directory entry.
type User struct {
	ID                     int        `json:"id"`
	CognitoSub             string     `json:"-"`
	Email                  string     `json:"email"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	Role                   string     `json:"role"`
	Department             string     `json:"department,omitempty"`
	Phone                  string     `json:"phone,omitempty"`
	PasswordChangeRequired bool       `json:"password_change_required"`
	LastLogin              *time.Time `json:"last_login,omitempty"`
	IsActive               bool       `json:"is_active"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// RegisterRequest is the admin-only payload for onboarding staff.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (r RegisterRequest) Validate() error {
	if r.Email == "" || r.Password == "" || r.FirstName == "" || r.LastName == "" {
		return fmt.Errorf("%w: email, password, first_name and last_name are required", ErrInvalid)
	}
	if !validRoles[r.Role] {
		return fmt.Errorf("%w: role must be doctor, nurse or admin", ErrInvalid)
	}
	if r.Department != "" && !validDepartments[r.Department] {
		return fmt.Errorf("%w: unknown department %q", ErrInvalid, r.Department)
	}
	return nil
}

// LoginRequest carries sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewPasswordRequest answers a forced password change at first sign-in.
type NewPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
	Session     string `json:"session"`
}

// RefreshRequest exchanges a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	AccessToken     string `json:"access_token"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfileRequest carries the self-service profile fields.
type UpdateProfileRequest struct {
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
}

func (r UpdateProfileRequest) Validate() error {
	if r.Phone != nil && *r.Phone != "" && !phonePattern.MatchString(*r.Phone) {
		return fmt.Errorf("%w: invalid phone number", ErrInvalid)
	}
	if r.Department != nil && !validDepartments[*r.Department] {
		return fmt.Errorf("%w: unknown department %q", ErrInvalid, *r.Department)
	}
	return nil
}

func fromRow(r sqlbridge.Row) *User {
	return &User{
		ID:                     r.Int("id"),
		CognitoSub:             r.String("cognito_sub"),
		Email:                  r.String("email"),
		FirstName:              r.String("first_name"),
		LastName:               r.String("last_name"),
		Role:                   r.String("role"),
		Department:             r.String("department"),
		Phone:                  r.String("phone"),
		PasswordChangeRequired: r.Bool("password_change_required"),
		LastLogin:              r.NullableTime("last_login"),
		IsActive:               r.Bool("is_active"),
		CreatedAt:              r.Time("created_at"),
		UpdatedAt:              r.Time("updated_at"),
	}
}
