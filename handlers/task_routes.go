package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"thunderbloop/models"
	"thunderbloop/services"
	"thunderbloop/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (h *Handler) ListActiveTasks(c *fiber.Ctx) error {
	return h.listTasks(c, false)
}

func (h *Handler) ListAllTasks(c *fiber.Ctx) error {
	return h.listTasks(c, true)
}

func (h *Handler) listTasks(c *fiber.Ctx, includeInactive bool) error {
	tasks, err := h.Tasks.ListTasks(c.UserContext(), includeInactive)
	if err != nil {
		return respondError(c, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(tasks)
}

type submitTaskRequest struct {
	Proof string `json:"proof" validate:"max=4000"`
}

// SubmitTask accepts JSON {"proof": ...} or a multipart form with a proof
// field and an optional proof_file attachment. The attachment is stored only
// once the submission is known to be acceptable.
func (h *Handler) SubmitTask(c *fiber.Ctx) error {
	user := currentUser(c)
	in := services.SubmitTaskInput{TaskID: c.Params("id")}

	var req submitTaskRequest
	var attachment *multipart.FileHeader
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return respondError(c, fmt.Errorf("%w: malformed form", services.ErrInvalidInput))
		}
		if v := form.Value["proof"]; len(v) > 0 {
			req.Proof = v[0]
		}
		if files := form.File["proof_file"]; len(files) > 0 {
			attachment = files[0]
		}
		if err := validateStruct(&req); err != nil {
			return respondError(c, err)
		}
	} else if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	in.Proof = req.Proof

	if attachment != nil {
		if strings.TrimSpace(in.Proof) == "" {
			return respondError(c, services.ErrEmptyProof)
		}
		if _, err := h.Tasks.CheckSubmittable(c.UserContext(), user, in.TaskID); err != nil {
			return respondError(c, err)
		}
		url, err := h.uploadProof(c, user, attachment)
		if err != nil {
			return respondError(c, err)
		}
		in.ProofURL = url
	}

	sub, err := h.Tasks.SubmitTask(c.UserContext(), user, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (h *Handler) uploadProof(c *fiber.Ctx, user services.Identity, fh *multipart.FileHeader) (string, error) {
	if h.Uploader == nil {
		return "", fmt.Errorf("%w: attachments are not enabled", services.ErrInvalidInput)
	}
	key := fmt.Sprintf("proofs/%s/%s%s", user.UserID, uuid.NewString(), strings.ToLower(filepath.Ext(fh.Filename)))
	url, err := h.Uploader.UploadFile(c.UserContext(), fh, key)
	if err != nil {
		return "", err
	}
	utils.Log.Infow("📎 proof uploaded", "user_id", user.UserID, "key", key)
	return url, nil
}

func (h *Handler) MySubmissions(c *fiber.Ctx) error {
	subs, err := h.Tasks.ListUserSubmissions(c.UserContext(), currentUser(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	if subs == nil {
		subs = []models.TaskSubmission{}
	}
	return c.JSON(subs)
}

// --- Admin ---

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Points      int64  `json:"points" validate:"required,gt=0"`
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	task, err := h.Tasks.CreateTask(c.UserContext(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) SetTaskActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	task, err := h.Tasks.SetTaskActive(c.UserContext(), c.Params("id"), *req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(task)
}

func (h *Handler) ListSubmissions(c *fiber.Ctx) error {
	subs, err := h.Tasks.ListSubmissions(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if subs == nil {
		subs = []models.TaskSubmission{}
	}
	return c.JSON(subs)
}

type reviewRequest struct {
	Decision models.SubmissionStatus `json:"decision" validate:"required,oneof=approved rejected"`
}

func (h *Handler) ReviewSubmission(c *fiber.Ctx) error {
	var req reviewRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	sub, err := h.Tasks.ReviewSubmission(c.UserContext(), currentUser(c), c.Params("id"), req.Decision)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sub)
}
