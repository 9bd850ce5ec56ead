package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
	"github.com/IbkArotiba/AaroCare/internal/platform/identity"
)

// ErrAuthFailed covers bad credentials and provider rejections on sign-in.
var ErrAuthFailed = errors.New("invalid email or password")

type Service struct {
	repo     Repository
	provider identity.Provider
	recorder audit.Recorder
}

func NewService(repo Repository, provider identity.Provider, recorder audit.Recorder) *Service {
	return &Service{repo: repo, provider: provider, recorder: recorder}
}

// LoginResult is either a token set with the user profile, or a pending
// challenge the client must answer before tokens are issued.
type LoginResult struct {
	Tokens    *identity.Tokens `json:"tokens,omitempty"`
	User      *User            `json:"user,omitempty"`
	Challenge string           `json:"challenge,omitempty"`
	Session   string           `json:"session,omitempty"`
}

// Login verifies credentials with the identity provider, stamps last_login
// and records the sign-in.
func (s *Service) Login(ctx context.Context, req LoginRequest, meta audit.RequestMeta) (*LoginResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalid)
	}

	tokens, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		var challenge *identity.ChallengeError
		if errors.As(err, &challenge) {
			return &LoginResult{Challenge: challenge.Name, Session: challenge.Session}, nil
		}
		return nil, ErrAuthFailed
	}

	now := time.Now().UTC()
	user, err := s.repo.UpdateByEmail(ctx, req.Email,
		[]string{"last_login", "updated_at"}, []any{now, now})
	if err != nil {
		// The provider authenticated but the directory row is missing; serve
		// the tokens anyway, the profile endpoints will 404.
		user = nil
	}

	userID := auth.SubjectID(req.Email)
	if user != nil {
		userID = user.ID
	}
	s.recorder.Record(ctx, audit.Entry{
		UserID:     userID,
		Action:     audit.ActionLogin,
		EntityType: "user",
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})

	return &LoginResult{Tokens: tokens, User: user}, nil
}

// CompleteNewPassword answers the forced password change at first sign-in
// and clears the password_change_required flag.
func (s *Service) CompleteNewPassword(ctx context.Context, req NewPasswordRequest) (*LoginResult, error) {
	if req.Email == "" || req.NewPassword == "" || req.Session == "" {
		return nil, fmt.Errorf("%w: email, new_password and session are required", ErrInvalid)
	}

	tokens, err := s.provider.CompleteNewPassword(ctx, req.Email, req.NewPassword, req.Session)
	if err != nil {
		return nil, ErrAuthFailed
	}

	user, err := s.repo.UpdateByEmail(ctx, req.Email,
		[]string{"password_change_required", "updated_at"},
		[]any{false, time.Now().UTC()})
	if err != nil {
		user = nil
	}
	return &LoginResult{Tokens: tokens, User: user}, nil
}

// Refresh exchanges a refresh token for fresh credentials.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*identity.Tokens, error) {
	if req.RefreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", ErrInvalid)
	}
	tokens, err := s.provider.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return tokens, nil
}

// Register onboards a staff member: identity-provider account plus directory
// row. Admin only; the route enforces the role.
func (s *Service) Register(ctx context.Context, actor auth.Actor, req RegisterRequest, meta audit.RequestMeta) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.provider.CreateUser(ctx, identity.NewUser{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &User{
		CognitoSub: sub,
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Role:       req.Role,
		Department: req.Department,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("storing user: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		Action:     audit.ActionRegisterUser,
		EntityType: "user",
		EntityID:   &created.ID,
		NewValues:  created,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return created, nil
}

// Me returns the caller's directory profile.
func (s *Service) Me(ctx context.Context, actor auth.Actor) (*User, error) {
	return s.repo.GetByEmail(ctx, actor.Email)
}

// UpdateProfile applies the self-service profile fields.
func (s *Service) UpdateProfile(ctx context.Context, actor auth.Actor, req UpdateProfileRequest, meta audit.RequestMeta) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var cols []string
	var vals []any
	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			vals = append(vals, *v)
		}
	}
	add("phone", req.Phone)
	add("department", req.Department)
	add("first_name", req.FirstName)
	add("last_name", req.LastName)
	if len(cols) == 0 {
		return s.repo.GetByEmail(ctx, actor.Email)
	}
	cols = append(cols, "updated_at")
	vals = append(vals, time.Now().UTC())

	updated, err := s.repo.UpdateByEmail(ctx, actor.Email, cols, vals)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword re-keys the caller's credentials with the provider and
// clears any pending forced-change flag.
func (s *Service) ChangePassword(ctx context.Context, actor auth.Actor, req ChangePasswordRequest, meta audit.RequestMeta) error {
	if req.AccessToken == "" || req.CurrentPassword == "" || req.NewPassword == "" {
		return fmt.Errorf("%w: access_token, current_password and new_password are required", ErrInvalid)
	}

	if err := s.provider.ChangePassword(ctx, req.AccessToken, req.CurrentPassword, req.NewPassword); err != nil {
		return ErrAuthFailed
	}

	if _, err := s.repo.UpdateByEmail(ctx, actor.Email,
		[]string{"password_change_required", "updated_at"},
		[]any{false, time.Now().UTC()}); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	s.recorder.Record(ctx, audit.Entry{
		UserID:     actor.ID,
		Action:     audit.ActionChangePassword,
		EntityType: "user",
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// ListUsers returns the staff directory.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}
