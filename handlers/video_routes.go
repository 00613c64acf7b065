package handlers

import (
	"fmt"

	"thunderbloop/models"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.Videos.ListVideos(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return c.JSON(videos)
}

// ResolveShare records the click and tells the client where to go.
func (h *Handler) ResolveShare(c *fiber.Ctx) error {
	share, err := h.Videos.ResolveShare(c.UserContext(), c.Params("shareId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"share_id": share.ShareID,
		"video_id": share.VideoID,
		"redirect": fmt.Sprintf("/video/%s?share=%s", share.VideoID, share.ShareID),
	})
}

func (h *Handler) CreateShare(c *fiber.Ctx) error {
	share, err := h.Videos.CreateShare(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(share)
}

type addVideoRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,url"`
}

func (h *Handler) AddVideo(c *fiber.Ctx) error {
	var req addVideoRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	video, err := h.Videos.AddVideo(c.UserContext(), currentUser(c), req.Title, req.URL)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(video)
}
