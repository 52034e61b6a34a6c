package server

import (
	"errors"
	"fmt"
	"time"

	"chronicle/internal/models"
	"chronicle/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	jwtIssuer   = "chronicle-api"
	jwtAudience = "chronicle-client"
	jwtLifetime = 7 * 24 * time.Hour
)

// SignupRequest represents the request body for user registration
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResendActivationRequest asks for a fresh activation email
type ResendActivationRequest struct {
	Email string `json:"email"`
}

// Signup registers a new, inactive account and emails an activation link.
// The response never reveals whether the email was already taken.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":  "Account created. Check your email for the activation link.",
		"username": user.Username,
	})
}

// Activate flips an account active when the uid/token pair checks out, and
// logs the user straight in. Every failure mode returns the same error.
func (s *Server) Activate(c *fiber.Ctx) error {
	user, err := s.authService.Activate(c.UserContext(),
		c.Params("uid"), c.Params("token"))
	if err != nil {
		return mapServiceError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message": "Account activated",
		"token":   token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// ResendActivation sends a new activation email. The response is identical
// whether the address is unknown, already active, or pending.
func (s *Server) ResendActivation(c *fiber.Ctx) error {
	var req ResendActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.authService.ResendActivation(c.UserContext(), req.Email); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "If the account exists and is pending activation, an email has been sent.",
	})
}

// Login authenticates a user and returns a JWT token
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		// Login failures map to 401, not 403
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "UNAUTHORIZED" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
		return mapServiceError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Refresh issues a new token for an authenticated user and revokes the old
// one. The previous jti is blacklisted until its natural expiry.
func (s *Server) Refresh(c *fiber.Ctx) error {
	claims, ok := c.Locals("jwtClaims").(jwt.MapClaims)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	userID := currentUserID(c)
	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil || user == nil || !user.IsActive {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Account is not active"))
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	s.blacklistClaims(c, claims)

	return c.JSON(fiber.Map{
		"message": "Token refreshed",
		"token":   token,
	})
}

// Logout revokes the current token by blacklisting its jti.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals("jwtClaims").(jwt.MapClaims); ok {
		s.blacklistClaims(c, claims)
	}
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

// blacklistClaims stores the token's jti in Redis until the token would have
// expired on its own. Best effort, losing the entry only shortens revocation.
func (s *Server) blacklistClaims(c *fiber.Ctx, claims jwt.MapClaims) {
	if s.redis == nil {
		return
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}

	ttl := jwtLifetime
	if exp, ok := claims["exp"].(float64); ok {
		if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
			ttl = remaining
		}
	}

	if err := s.redis.Set(c.UserContext(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
		s.logRedisError("blacklist_token", err)
	}
}

func (s *Server) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      fmt.Sprintf("%d", user.ID),
		"username": user.Username,
		"iss":      jwtIssuer,
		"aud":      jwtAudience,
		"exp":      now.Add(jwtLifetime).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
