package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mixhub/apiserver/internal/auth"
	"github.com/mixhub/apiserver/internal/events"
	"github.com/mixhub/apiserver/internal/mail"
	"github.com/mixhub/apiserver/types"
)

// CredentialStore defines persistence operations for users. Implementations
// must make single-record credential updates atomic.
type CredentialStore interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string, changedAt time.Time) error
	SetResetToken(ctx context.Context, id int, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	AddSavedDrink(ctx context.Context, userID, drinkID int) error
	RemoveSavedDrink(ctx context.Context, userID, drinkID int) error
}

// UserService encapsulates account and credential use-cases. Hashing,
// password-changed bumps and reset-token bookkeeping are explicit steps on
// the mutation paths here, not lifecycle hooks on the data object.
type UserService struct {
	repo      CredentialStore
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	mailer    mail.Mailer
	publisher *events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewUserService(
	repo CredentialStore,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	mailer mail.Mailer,
	publisher *events.Publisher,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Signup creates an account and issues its first bearer token. Role always
// starts as "user"; elevation is an admin-only operation.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (types.User, string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, "", err
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         types.RoleUser,
		PasswordHash: hash,
	})
	if err != nil {
		return types.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return types.User{}, "", err
	}

	s.publish(ctx, events.TypeSignedUp, user)
	return user, token, nil
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return types.User{}, "", err
	}
	if !ok {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// ForgotPassword issues a reset token and mails it to the user. If delivery
// fails the stored token is cleared so no unreachable live token remains.
func (s *UserService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	rawToken, tokenHash, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(auth.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/%s", resetURLBase, rawToken)
	body := fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password and password confirmation to: %s\nIf you didn't forget your password, please ignore this message.",
		resetURL,
	)
	if err := s.mailer.Send(ctx, user.Email, "Your password reset token", body); err != nil {
		s.logger.Error("reset mail delivery failed", "user_id", user.ID, "error", err)
		if clearErr := s.repo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("reset token rollback failed", "user_id", user.ID, "error", clearErr)
		}
		return ErrEmailDelivery
	}
	return nil
}

// ResetPassword consumes a reset token. The lookup matches the token hash
// and a still-future expiry in one query; the password update clears the
// reset fields and bumps password_changed_at in one statement, so a token
// can be consumed at most once.
func (s *UserService) ResetPassword(ctx context.Context, rawToken, newPassword string) (types.User, string, error) {
	tokenHash := auth.HashResetToken(rawToken)

	user, err := s.repo.GetByResetTokenHash(ctx, tokenHash, s.now())
	if err != nil {
		if isNotFound(err) {
			return types.User{}, "", ErrResetTokenInvalid
		}
		return types.User{}, "", err
	}

	token, err := s.setPassword(ctx, user.ID, newPassword)
	if err != nil {
		return types.User{}, "", err
	}

	user, err = s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	s.publish(ctx, events.TypePasswordReset, user)
	return user, token, nil
}

// UpdatePassword changes the password of an authenticated user after
// re-checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID int, currentPassword, newPassword string) (types.User, string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, "", err
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return types.User{}, "", err
	}
	if !ok {
		return types.User{}, "", ErrPasswordIncorrect
	}

	token, err := s.setPassword(ctx, user.ID, newPassword)
	if err != nil {
		return types.User{}, "", err
	}

	user, err = s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	s.publish(ctx, events.TypePasswordChanged, user)
	return user, token, nil
}

// setPassword hashes and stores the new password, then issues a fresh token.
// password_changed_at is backdated one second so the token issued here stays
// fresh while every earlier token goes stale.
func (s *UserService) setPassword(ctx context.Context, userID int, newPassword string) (string, error) {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}

	changedAt := s.now().Add(-time.Second)
	if err := s.repo.UpdatePassword(ctx, userID, hash, changedAt); err != nil {
		return "", err
	}

	return s.tokens.Issue(userID)
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	return s.repo.List(ctx, offset, limit)
}

// UpdateProfile changes the user-editable fields only. Role and password are
// out of reach on this path.
func (s *UserService) UpdateProfile(ctx context.Context, id int, username, email string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	return s.repo.Update(ctx, user)
}

// AdminCreate creates a user with an explicit role.
func (s *UserService) AdminCreate(ctx context.Context, username, email, password, role string) (types.User, error) {
	if role == "" {
		role = types.RoleUser
	}
	if role != types.RoleUser && role != types.RoleAdmin {
		return types.User{}, ErrInvalidRole
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, err
	}
	return s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
}

// AdminUpdate changes username, email and role of any user.
func (s *UserService) AdminUpdate(ctx context.Context, id int, username, email, role string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	if role != "" {
		if role != types.RoleUser && role != types.RoleAdmin {
			return types.User{}, ErrInvalidRole
		}
		user.Role = role
	}
	return s.repo.Update(ctx, user)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) SaveDrink(ctx context.Context, userID, drinkID int) (types.User, error) {
	if err := s.repo.AddSavedDrink(ctx, userID, drinkID); err != nil {
		return types.User{}, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *UserService) UnsaveDrink(ctx context.Context, userID, drinkID int) (types.User, error) {
	if err := s.repo.RemoveSavedDrink(ctx, userID, drinkID); err != nil {
		return types.User{}, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *UserService) publish(ctx context.Context, eventType string, user types.User) {
	if s.publisher == nil {
		return
	}
	id, err := s.publisher.Publish(ctx, events.AccountEvent{
		Type:   eventType,
		UserID: user.ID,
		Email:  user.Email,
		At:     s.now(),
	})
	if err != nil {
		s.logger.Error("account event publish failed", "type", eventType, "user_id", user.ID, "error", err)
		return
	}
	s.logger.Debug("account event published", "type", eventType, "user_id", user.ID, "message_id", id)
}
