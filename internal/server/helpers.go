package server

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"chronicle/internal/middleware"
	"chronicle/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxPaginationLimit = 100

// errResponseWritten signals that a helper already wrote an error response to
// the client and the handler should just return nil.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID reads a numeric path parameter. On failure it writes a 400 response
// and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("Invalid %s", humanizeParam(param))))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// userOnline reports realtime presence for a user. Always false when the
// feed hub is not running.
func (s *Server) userOnline(userID uint) bool {
	if s.hub == nil {
		return false
	}
	return s.hub.IsOnline(userID)
}

func humanizeParam(param string) string {
	return strings.ToLower(strings.Join(splitCamel(param), " "))
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// currentUserID returns the authenticated user ID stored by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// redirectTarget echoes the Referer path so browser form posts can bounce
// back to the page they came from. Falls back to the site root.
func redirectTarget(c *fiber.Ctx) string {
	referer := c.Get("Referer")
	if referer == "" {
		return "/"
	}
	// Strip scheme and host; only ever redirect within the site.
	if idx := strings.Index(referer, "://"); idx >= 0 {
		rest := referer[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			return rest[slash:]
		}
		return "/"
	}
	if !strings.HasPrefix(referer, "/") {
		return "/"
	}
	return referer
}

// logRedisError records a non-fatal Redis failure in metrics and the log.
func (s *Server) logRedisError(op string, err error) {
	middleware.RedisErrors.WithLabelValues(op).Inc()
	log.Printf("redis %s failed: %v", op, err)
}

// mapServiceError translates service-layer AppErrors to HTTP responses.
func mapServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "VALIDATION_ERROR":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		case "NOT_FOUND":
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		case "UNAUTHORIZED":
			return models.RespondWithError(c, fiber.StatusForbidden, appErr)
		case "ACTIVATION_INVALID":
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		}
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewInternalError(err))
}
