package server

import (
	"io"

	"chronicle/internal/imagehost"
	"chronicle/internal/models"
	"chronicle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest represents the request body for updating a profile
type UpdateProfileRequest struct {
	Description *string `json:"description"`
}

// GetProfile returns a user's public profile with follower counts and their
// published posts.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	viewerID, _ := s.optionalUserID(c)

	view, err := s.profileService.GetProfile(c.UserContext(), username, viewerID)
	if err != nil {
		return mapServiceError(c, err)
	}

	page := parsePagination(c, 20)
	posts, err := s.postService.ListUserPosts(c.UserContext(),
		view.Profile.UserID, page.Limit, page.Offset, viewerID)
	if err != nil {
		return mapServiceError(c, err)
	}
	s.resolvePostImages(posts...)

	return c.JSON(fiber.Map{
		"username":      username,
		"profile":       view.Profile,
		"counts":        view.Counts,
		"is_subscribed": view.IsSubscribed,
		"online":        s.userOnline(view.Profile.UserID),
		"posts":         posts,
	})
}

// GetMyProfile returns the authenticated user's own profile.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetOwnProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile edits the authenticated user's profile description.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:      currentUserID(c),
		Description: req.Description,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfileImage replaces the profile image from a multipart upload.
// The new image is stored first; the old one is deleted only after the
// profile row points at the new ref.
func (s *Server) UpdateMyProfileImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}

	ref, err := s.images.Store(imagehost.StoreInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   currentUserID(c),
		ImageRef: ref,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(profile)
}

// Subscribe follows another user by username.
func (s *Server) Subscribe(c *fiber.Ctx) error {
	if err := s.subscriptionService.Subscribe(c.UserContext(),
		currentUserID(c), c.Params("username")); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Subscribed",
		"redirect_to": redirectTarget(c),
	})
}

// Unsubscribe stops following a user. Unsubscribing twice is not an error.
func (s *Server) Unsubscribe(c *fiber.Ctx) error {
	if err := s.subscriptionService.Unsubscribe(c.UserContext(),
		currentUserID(c), c.Params("username")); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Unsubscribed",
		"redirect_to": redirectTarget(c),
	})
}

// GetMySubscriptions lists the users the authenticated user follows.
func (s *Server) GetMySubscriptions(c *fiber.Ctx) error {
	users, err := s.subscriptionService.ListSubscriptions(c.UserContext(), currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"users": users,
	})
}

// GetMySubscribers lists the users following the authenticated user.
func (s *Server) GetMySubscribers(c *fiber.Ctx) error {
	users, err := s.subscriptionService.ListSubscribers(c.UserContext(), currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"users": users,
	})
}
