package server

import (
	"chronicle/internal/models"
	"chronicle/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest represents the request body for creating a post
type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageRef string `json:"image_ref"`
	Publish  bool   `json:"publish"`
}

// UpdatePostRequest represents the request body for updating a post
type UpdatePostRequest struct {
	Content  string `json:"content"`
	ImageRef string `json:"image_ref"`
}

// resolvePostImages fills ImageURL on each post that carries an image ref.
func (s *Server) resolvePostImages(posts ...*models.Post) {
	for _, post := range posts {
		if post != nil && post.ImageRef != "" {
			post.ImageURL = s.images.ResolveURL(post.ImageRef)
		}
	}
}

// GetPosts returns the public feed of published posts, newest first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)
	page := parsePagination(c, 20)

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: viewerID,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	s.resolvePostImages(posts...)
	return c.JSON(fiber.Map{
		"posts":  posts,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetMyDrafts lists the authenticated user's unpublished posts.
func (s *Server) GetMyDrafts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	drafts, err := s.postService.ListDrafts(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}

	s.resolvePostImages(drafts...)
	return c.JSON(fiber.Map{
		"posts":  drafts,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetUserPosts lists a user's published posts.
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	username := c.Params("username")
	author, err := s.userRepo.GetByUsername(c.UserContext(), username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if author == nil || !author.IsActive {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", username))
	}

	viewerID, _ := s.optionalUserID(c)
	page := parsePagination(c, 20)

	posts, err := s.postService.ListUserPosts(c.UserContext(), author.ID, page.Limit, page.Offset, viewerID)
	if err != nil {
		return mapServiceError(c, err)
	}

	s.resolvePostImages(posts...)
	return c.JSON(fiber.Map{
		"posts":  posts,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

// GetPost returns a single post. Drafts are only visible to their author.
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	viewerID, _ := s.optionalUserID(c)
	post, err := s.postService.GetPost(c.UserContext(), postID, viewerID)
	if err != nil {
		return mapServiceError(c, err)
	}

	s.resolvePostImages(post)
	return c.JSON(post)
}

// CreatePost creates a new post, as a draft unless publish is set.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Content:  req.Content,
		ImageRef: req.ImageRef,
		Publish:  req.Publish,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	if !post.IsDraft() {
		s.announcePostPublished(c.UserContext(), post)
	}

	s.resolvePostImages(post)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost edits a post's content or image. Author only.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		AuthorID: currentUserID(c),
		PostID:   postID,
		Content:  req.Content,
		ImageRef: req.ImageRef,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	s.resolvePostImages(post)
	return c.JSON(post)
}

// PublishPost makes a draft public. Publishing is one-way.
func (s *Server) PublishPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.PublishPost(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return mapServiceError(c, err)
	}

	s.announcePostPublished(c.UserContext(), post)

	s.resolvePostImages(post)
	return c.JSON(post)
}

// DeletePost removes a post and its stored image. Author only.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		AuthorID: currentUserID(c),
		PostID:   postID,
	}); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Post deleted",
	})
}

// ToggleLike likes a published post, or removes an existing like.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return mapServiceError(c, err)
	}

	s.announceReaction(c.UserContext(), post)

	return c.JSON(fiber.Map{
		"liked":       post.Liked,
		"likes_count": post.LikesCount,
		"redirect_to": redirectTarget(c),
	})
}
