package routes

import (
	"github.com/gofiber/fiber/v2"

	"solarvest-backend/controllers"
	"solarvest-backend/middlewares"
	"solarvest-backend/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/register", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then the per-request transaction (commits/rolls back around the handler)
	protected.Use(middlewares.RequestTx())

	// Financial mutations are manager/admin only.
	admin := middlewares.RequireRole(models.RoleManager, models.RoleAdmin)

	// Plants
	protected.Get("/plants", controllers.GetPlants)
	protected.Get("/plant/:id", controllers.GetPlant)
	protected.Post("/plant", admin, controllers.CreatePlant)
	protected.Put("/plant/:id", admin, controllers.UpdatePlant)

	// Investments
	protected.Post("/investment", controllers.CreateInvestment)
	protected.Get("/investments", controllers.GetInvestments)
	protected.Get("/investment/:id", controllers.GetInvestment)
	protected.Put("/investment/:id", controllers.UpdateInvestment)
	protected.Put("/investment/:id/verify", admin, controllers.VerifyInvestment)
	protected.Put("/investment/:id/cancel", admin, controllers.CancelInvestment)
	protected.Put("/investment/:id/default", admin, controllers.DefaultInvestment)

	// Repayment schedule
	protected.Get("/investment/:id/schedule", controllers.GetSchedule)
	protected.Post("/investment/:id/schedule/regenerate", admin, controllers.RegenerateSchedule)
	protected.Get("/investment/:id/revisions", admin, controllers.GetScheduleRevisions)

	// Repayments
	protected.Put("/repayment/:id/pay", admin, controllers.MarkEntryPaid)
	protected.Get("/repayment/:id/fee", controllers.GetLateFee)
	protected.Get("/repayments/overdue", controllers.ListOverdue)
	protected.Get("/repayments/upcoming", controllers.ListUpcoming)

	// Invoices (derived 1:1 from repayment entries)
	protected.Post("/repayment/:id/invoice", admin, controllers.CreateInvoiceForEntry)
	protected.Get("/invoice/:id", controllers.GetInvoice)
	protected.Put("/invoice/:id/send", admin, controllers.SendInvoice)
	protected.Put("/invoice/:id/pay", admin, controllers.PayInvoice)
	protected.Put("/invoice/:id/cancel", admin, controllers.CancelInvoice)
	protected.Post("/invoices/refresh-overdue", admin, controllers.RefreshOverdueInvoices)

	// Reminders
	protected.Post("/repayment/:id/reminder", admin, controllers.CreateReminder)
	protected.Get("/investment/:id/reminders", controllers.GetReminders)
	protected.Put("/reminder/:id/open", controllers.OpenReminder)
}
