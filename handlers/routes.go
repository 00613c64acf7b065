package handlers

import (
	"thunderbloop/middleware"
	"thunderbloop/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers every route. Paths under /s/ need a signed-in user,
// paths under /s/admin/ an admin.
func SetupRoutes(app *fiber.App, h *Handler, verifier services.TokenVerifier, admins *services.AdminPolicy) {
	// 🔓 Public
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/leaderboard", h.Leaderboard)
	app.Get("/tasks", h.ListActiveTasks)
	app.Get("/videos", h.ListVideos)
	app.Get("/r/:shareId", h.ResolveShare)
	app.Post("/ref/:code", h.RedeemCode)

	// 🔐 Signed-in users
	secured := app.Group("/s", middleware.UserContextMiddleware(verifier))
	secured.Post("/signup", h.Signup)
	secured.Get("/me", h.Me)
	secured.Get("/me/rank", h.MyRank)
	secured.Get("/me/submissions", h.MySubmissions)
	secured.Post("/tasks/:id/submissions", h.SubmitTask)
	secured.Post("/videos/:id/shares", h.CreateShare)

	// 🔒 Admins
	admin := secured.Group("/admin", middleware.RequireAdmin(admins))
	admin.Get("/users", h.ListUsers)
	admin.Post("/users/:id/points", h.AdjustPoints)
	admin.Get("/submissions", h.ListSubmissions)
	admin.Post("/submissions/:id/review", h.ReviewSubmission)
	admin.Get("/tasks", h.ListAllTasks)
	admin.Post("/tasks", h.CreateTask)
	admin.Patch("/tasks/:id/active", h.SetTaskActive)
	admin.Post("/videos", h.AddVideo)
}
