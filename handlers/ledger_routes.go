package handlers

import (
	"thunderbloop/models"
	"thunderbloop/services"

	"github.com/gofiber/fiber/v2"
)

const recentTransactions = 20

type signupRequest struct {
	Ref   string `json:"ref" form:"ref" validate:"max=128"`
	Email string `json:"email" form:"email" validate:"omitempty,email"`
}

// Signup creates the caller's profile. The referral token comes from ?ref=
// or the body.
func (h *Handler) Signup(c *fiber.Ctx) error {
	user := currentUser(c)

	var req signupRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
	}
	ref := c.Query("ref")
	if ref == "" {
		ref = req.Ref
	}
	email := user.Email
	if email == "" {
		email = req.Email
	}

	profile, err := h.Ledger.CreateAccount(c.UserContext(), services.SignupRequest{
		UserID:        user.UserID,
		Email:         email,
		ReferralToken: ref,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user := currentUser(c)
	profile, err := h.Ledger.GetProfile(c.UserContext(), user.UserID)
	if err != nil {
		return respondError(c, err)
	}
	history, err := h.Ledger.PointHistory(c.UserContext(), user.UserID, recentTransactions)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":                profile,
		"recent_transactions": history,
	})
}

func (h *Handler) MyRank(c *fiber.Ctx) error {
	entry, err := h.Ledger.RankOf(c.UserContext(), currentUser(c).UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

func (h *Handler) Leaderboard(c *fiber.Ctx) error {
	users, err := h.Ledger.Leaderboard(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	if users == nil {
		users = []models.UserProfile{}
	}
	return c.JSON(users)
}

// RedeemCode credits the owner of a referral or share code. Unknown codes
// answer 200 with status "invalid".
func (h *Handler) RedeemCode(c *fiber.Ctx) error {
	res, err := h.Ledger.RedeemCode(c.UserContext(), services.RedeemRequest{
		Code:      c.Params("code"),
		VisitorID: c.Get("X-Visitor-ID"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// --- Admin ---

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Ledger.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if users == nil {
		users = []models.UserProfile{}
	}
	return c.JSON(users)
}

type adjustPointsRequest struct {
	Delta  int64  `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"max=255"`
}

func (h *Handler) AdjustPoints(c *fiber.Ctx) error {
	var req adjustPointsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	profile, err := h.Ledger.AdjustPoints(c.UserContext(), currentUser(c), c.Params("id"), req.Delta, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
