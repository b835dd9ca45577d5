package controllers

import (
	"time"

	"solarvest-backend/database"
	"solarvest-backend/middlewares"
	"solarvest-backend/models"
	"solarvest-backend/services"
	"solarvest-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func paymentSvc(c *fiber.Ctx) (*services.PaymentService, error) {
	db, err := database.FromCtx(c)
	if err != nil {
		return nil, err
	}
	return services.NewPaymentService(db, feePolicy()), nil
}

type markPaidDTO struct {
	Amount    string `json:"amount" validate:"required"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// MarkEntryPaid records a payment against one repayment entry.
// Manager/admin only (enforced in routes).
func MarkEntryPaid(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid entry id")
	}

	var data markPaidDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(data.Amount)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid amount")
	}

	svc, err := paymentSvc(c)
	if err != nil {
		return err
	}
	entry, err := svc.MarkPaid(uint(id), services.MarkPaidInput{
		Amount:    amount,
		Method:    data.Method,
		Reference: data.Reference,
		Notes:     data.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

func scopeFromRequest(c *fiber.Ctx) services.ScopeFilter {
	var f services.ScopeFilter
	userID, role := requestIdentity(c)
	if role == models.RoleInvestor {
		f.UserID = userID
	}
	if id := utils.ParseIntDefault(c.Query("investment_id"), 0); id > 0 {
		f.InvestmentID = uint(id)
	}
	return f
}

// ListOverdue returns pending entries past due, each with its freshly
// computed late fee.
func ListOverdue(c *fiber.Ctx) error {
	svc, err := paymentSvc(c)
	if err != nil {
		return err
	}
	entries, err := svc.ListOverdue(scopeFromRequest(c), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"overdue": entries})
}

// ListUpcoming returns pending entries due within the requested horizon
// (?days=N, default 30).
func ListUpcoming(c *fiber.Ctx) error {
	svc, err := paymentSvc(c)
	if err != nil {
		return err
	}
	horizon := utils.ParseIntDefault(c.Query("days"), 30)
	entries, err := svc.ListUpcoming(scopeFromRequest(c), time.Now().UTC(), horizon)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"upcoming": entries})
}

// GetLateFee recomputes the current late fee for one entry.
func GetLateFee(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid entry id")
	}
	svc, err := paymentSvc(c)
	if err != nil {
		return err
	}
	fee, err := svc.LateFee(uint(id), ownerScope(c), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"late_fee": fee})
}
