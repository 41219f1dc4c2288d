package handlers

import (
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UploadHandler struct {
	UploadDir string
	BaseURL   string
}

func NewUploadHandler(uploadDir, baseURL string) *UploadHandler {
	return &UploadHandler{UploadDir: uploadDir, BaseURL: baseURL}
}

// UploadPhoto stores one multipart image under a uuid filename and
// returns its public path. Used for job photos and profile pictures.
func (h *UploadHandler) UploadPhoto(c *fiber.Ctx) error {
	if _, err := getUserUUID(c); err != nil {
		return fiber.ErrUnauthorized
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "photo file is required",
		})
	}

	if file.Size > 10*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "photo exceeds 10MB limit",
		})
	}

	ext := filepath.Ext(file.Filename)
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "unsupported file type",
		})
	}

	dir := filepath.Join(h.UploadDir, "photos")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return respondErr(c, err)
	}

	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		log.Println("Error saving upload:", err)
		return respondErr(c, err)
	}

	publicPath := "/uploads/photos/" + filename
	url := publicPath
	if h.BaseURL != "" {
		url = h.BaseURL + publicPath
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"url": url},
	})
}
