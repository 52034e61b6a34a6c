package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"chronicle/internal/mail"
	"chronicle/internal/middleware"
	"chronicle/internal/models"
	"chronicle/internal/repository"
	"chronicle/internal/token"
	"chronicle/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService owns the account lifecycle: signup, email activation and
// credential checks. Session tokens are the transport layer's concern.
type AuthService struct {
	userRepo      repository.UserRepository
	tokens        *token.Service
	sender        mail.Sender
	publicBaseURL string
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *token.Service,
	sender mail.Sender,
	publicBaseURL string,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokens:        tokens,
		sender:        sender,
		publicBaseURL: publicBaseURL,
	}
}

// Signup creates an inactive account with its empty profile and sends the
// activation email. The account stays invisible to login until activated.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
	}
	if err := s.userRepo.CreateWithProfile(ctx, user, &models.Profile{}); err != nil {
		return nil, err
	}

	if err := s.sendActivationEmail(ctx, user); err != nil {
		// The account exists; the user can request a fresh link. Signup
		// itself does not roll back on mailer trouble.
		middleware.Logger.ErrorContext(ctx, "Failed to send activation email",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

// ResendActivation issues a fresh link for a not-yet-active account. It
// reports success for unknown emails so the endpoint cannot be used to
// probe which addresses are registered.
func (s *AuthService) ResendActivation(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.IsActive {
		return nil
	}
	return s.sendActivationEmail(ctx, user)
}

func (s *AuthService) sendActivationEmail(ctx context.Context, user *models.User) error {
	activationToken := s.tokens.Issue(user)
	uid := base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(user.ID), 10)))
	link := fmt.Sprintf("%s/api/auth/activate/%s/%s", s.publicBaseURL, uid, activationToken)

	msg, err := mail.ActivationMessage(user.Email, user.Username, link)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		middleware.ActivationEmails.WithLabelValues("failed").Inc()
		return err
	}
	middleware.ActivationEmails.WithLabelValues("sent").Inc()
	return nil
}

// Activate validates an activation link and flips the account active.
// Every failure mode collapses into the same generic error so the
// response does not leak whether a uid or token was the problem.
func (s *AuthService) Activate(ctx context.Context, uid, activationToken string) (*models.User, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return nil, models.NewActivationInvalidError()
	}
	id, err := strconv.ParseUint(string(decoded), 10, 64)
	if err != nil {
		return nil, models.NewActivationInvalidError()
	}

	user, err := s.userRepo.GetByID(ctx, uint(id))
	if err != nil {
		return nil, models.NewActivationInvalidError()
	}
	if user.IsActive {
		return nil, models.NewActivationInvalidError()
	}
	if !s.tokens.Verify(user, activationToken) {
		return nil, models.NewActivationInvalidError()
	}

	if err := s.userRepo.Activate(ctx, user, time.Now()); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials against an active account and stamps the
// login time. Inactive accounts fail identically to wrong passwords.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	now := time.Now()
	if err := s.userRepo.StampLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return user, nil
}
