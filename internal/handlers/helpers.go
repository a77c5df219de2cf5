package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodlist/internal/services"
)

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// notFound maps gorm.ErrRecordNotFound to a 404 with message and passes other errors through.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, message)
	}
	return err
}

func validationFailed(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "validation failed",
		"errors":  err,
	})
}

// saveUpload stores the multipart file under field in dir and returns its
// public path. A request without that file yields "".
func saveUpload(c *fiber.Ctx, media *services.MediaStorage, field, dir string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	return storeFile(c, media, file, dir)
}

func storeFile(c *fiber.Ctx, media *services.MediaStorage, file *multipart.FileHeader, dir string) (string, error) {
	full, public, err := media.NewUploadPath(dir, file.Filename)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedMedia) {
			return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return "", err
	}
	if err := c.SaveFile(file, full); err != nil {
		return "", err
	}
	return public, nil
}

func removeMedia(media *services.MediaStorage, logger *slog.Logger, path string) {
	if path == "" {
		return
	}
	if err := media.Remove(path); err != nil {
		logger.Warn("remove media failed", slog.String("path", path), slog.Any("error", err))
	}
}
