package controllers

import (
	"time"

	"solarvest-backend/database"
	"solarvest-backend/middlewares"
	"solarvest-backend/services"

	"github.com/gofiber/fiber/v2"
)

func reminderSvc(c *fiber.Ctx) (*services.ReminderService, error) {
	db, err := database.FromCtx(c)
	if err != nil {
		return nil, err
	}
	return services.NewReminderService(db, deferredNotifier{c}), nil
}

type createReminderDTO struct {
	Type string `json:"type" validate:"required,oneof=upcoming overdue final_notice"`
}

// CreateReminder logs (and best-effort sends) a payment notice for an entry.
func CreateReminder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid entry id")
	}
	var data createReminderDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	svc, err := reminderSvc(c)
	if err != nil {
		return err
	}
	rem, err := svc.Log(uint(id), data.Type, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(rem)
}

// GetReminders lists the reminder history for an investment.
func GetReminders(c *fiber.Ctx) error {
	inv, _, err := loadOwned(c)
	if err != nil {
		return err
	}
	svc, err := reminderSvc(c)
	if err != nil {
		return err
	}
	rems, err := svc.ListByInvestment(inv.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reminders": rems})
}

// OpenReminder marks a reminder as opened by its recipient.
func OpenReminder(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reminder id")
	}
	svc, err := reminderSvc(c)
	if err != nil {
		return err
	}
	if err := svc.MarkOpened(uint(id), ownerScope(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}
