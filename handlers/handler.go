package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"thunderbloop/middleware"
	"thunderbloop/services"
	"thunderbloop/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProofUploader stores a submission attachment and returns its public URL.
type ProofUploader interface {
	UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

// Handler serves the HTTP API on top of the ledger services.
type Handler struct {
	Ledger *services.LedgerService
	Tasks  *services.TaskService
	Videos *services.VideoService

	// Uploader is nil when object storage is not configured.
	Uploader ProofUploader
}

var validate = validator.New()

// parseBody decodes the request body into out and runs its validate tags.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: malformed body", services.ErrInvalidInput)
	}
	return validateStruct(out)
}

func validateStruct(out interface{}) error {
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", services.ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	return nil
}

func currentUser(c *fiber.Ctx) services.Identity {
	id, _ := middleware.CurrentIdentity(c)
	return id
}

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as a generic failure.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrEmptyProof),
		errors.Is(err, services.ErrInvalidVideoURL),
		errors.Is(err, services.ErrInvalidDecision):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyReviewed),
		errors.Is(err, services.ErrProfileExists),
		errors.Is(err, services.ErrTaskInactive):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNoProfile):
		status = fiber.StatusForbidden
	}

	if status == fiber.StatusInternalServerError {
		utils.Log.Errorw("❌ request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
