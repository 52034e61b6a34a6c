package server

import (
	"io"

	"chronicle/internal/imagehost"
	"chronicle/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadImage stores an image from a multipart upload and returns its ref.
// The ref is passed back in post or profile updates; nothing is attached here.
func (s *Server) UploadImage(c *fiber.Ctx) error {
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

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ref": ref,
		"url": s.images.ResolveURL(ref),
	})
}

// ServeImage streams a stored image variant. Variants: master (default),
// webp, thumb.
func (s *Server) ServeImage(c *fiber.Ctx) error {
	path, err := s.images.ServePath(c.Params("ref"), c.Query("variant"))
	if err != nil {
		return mapServiceError(c, err)
	}

	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.SendFile(path)
}
