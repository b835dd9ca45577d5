package controllers

import (
	"log"

	"solarvest-backend/database"
	"solarvest-backend/finance"
	"solarvest-backend/middlewares"
	"solarvest-backend/models"
	"solarvest-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Notifier is the mail transport used by the services. Swapped out in tests;
// the default just logs.
var Notifier services.Notifier = services.LogNotifier{}

// deferredNotifier queues sends until the request transaction commits, so an
// investor is never told about a verification that later rolled back.
type deferredNotifier struct{ c *fiber.Ctx }

func (d deferredNotifier) Send(recipient, subject, body string) error {
	middlewares.QueueAfterCommit(d.c, func() {
		if err := Notifier.Send(recipient, subject, body); err != nil {
			log.Printf("notification to %s failed (ignored): %v", recipient, err)
		}
	})
	return nil
}

func investmentSvc(c *fiber.Ctx) (*services.InvestmentService, error) {
	db, err := database.FromCtx(c)
	if err != nil {
		return nil, err
	}
	return services.NewInvestmentService(db, deferredNotifier{c}), nil
}

func requestIdentity(c *fiber.Ctx) (userID, role string) {
	userID, _ = c.Locals("userID").(string)
	role, _ = c.Locals("role").(string)
	return
}

// ownerScope returns the user id to restrict reads to; empty for roles that
// may see everything.
func ownerScope(c *fiber.Ctx) string {
	userID, role := requestIdentity(c)
	if role == models.RoleInvestor {
		return userID
	}
	return ""
}

type createInvestmentDTO struct {
	PlantID           uint   `json:"plant_id" validate:"required"`
	Amount            string `json:"amount" validate:"required"`
	DurationMonths    int    `json:"duration_months" validate:"required,min=1,max=360"`
	InterestRate      string `json:"interest_rate" validate:"required"`
	RepaymentInterval string `json:"repayment_interval" validate:"required,oneof=monthly quarterly annually"`
}

func CreateInvestment(c *fiber.Ctx) error {
	var data createInvestmentDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(data.Amount)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid amount")
	}
	rate, err := decimal.NewFromString(data.InterestRate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid interest rate")
	}

	userID, _ := requestIdentity(c)
	svc, err := investmentSvc(c)
	if err != nil {
		return err
	}

	inv, err := svc.Create(services.CreateInvestmentInput{
		UserID:            userID,
		PlantID:           data.PlantID,
		Amount:            amount,
		DurationMonths:    data.DurationMonths,
		InterestRate:      rate,
		RepaymentInterval: data.RepaymentInterval,
	})
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func GetInvestments(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	userID, role := requestIdentity(c)

	q := db.Model(&models.Investment{}).Order("id DESC")
	if role == models.RoleInvestor {
		q = q.Where("user_id = ?", userID)
	}
	var investments []models.Investment
	if err := q.Find(&investments).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"investments": investments})
}

// loadOwned fetches the investment and enforces that investors only see
// their own records.
func loadOwned(c *fiber.Ctx) (*models.Investment, *services.InvestmentService, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "invalid investment id")
	}
	svc, err := investmentSvc(c)
	if err != nil {
		return nil, nil, err
	}
	inv, err := svc.Get(uint(id))
	if err != nil {
		return nil, nil, err
	}
	userID, role := requestIdentity(c)
	if role == models.RoleInvestor && inv.UserID != userID {
		return nil, nil, services.ErrAuthorization
	}
	return inv, svc, nil
}

func GetInvestment(c *fiber.Ctx) error {
	inv, _, err := loadOwned(c)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

type updateInvestmentDTO struct {
	Amount            *string `json:"amount"`
	DurationMonths    *int    `json:"duration_months"`
	InterestRate      *string `json:"interest_rate"`
	RepaymentInterval *string `json:"repayment_interval"`
}

// UpdateInvestment changes terms on a not-yet-verified investment; totals
// are recomputed by the service.
func UpdateInvestment(c *fiber.Ctx) error {
	inv, svc, err := loadOwned(c)
	if err != nil {
		return err
	}

	var data updateInvestmentDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	var patch services.TermsPatch
	if data.Amount != nil {
		amount, err := decimal.NewFromString(*data.Amount)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid amount")
		}
		patch.Amount = &amount
	}
	if data.InterestRate != nil {
		rate, err := decimal.NewFromString(*data.InterestRate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid interest rate")
		}
		patch.InterestRate = &rate
	}
	patch.DurationMonths = data.DurationMonths
	patch.RepaymentInterval = data.RepaymentInterval

	updated, err := svc.UpdateTerms(inv.ID, patch)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// VerifyInvestment activates an investment and generates its repayment
// schedule. Manager/admin only (enforced in routes).
func VerifyInvestment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid investment id")
	}
	svc, err := investmentSvc(c)
	if err != nil {
		return err
	}
	actorID, _ := requestIdentity(c)

	inv, count, err := svc.Verify(uint(id), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"investment":    inv,
		"entries_count": count,
	})
}

func CancelInvestment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid investment id")
	}
	var data map[string]string
	_ = c.BodyParser(&data) // reason is optional

	svc, err := investmentSvc(c)
	if err != nil {
		return err
	}
	inv, err := svc.Cancel(uint(id), data["reason"])
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func DefaultInvestment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid investment id")
	}
	svc, err := investmentSvc(c)
	if err != nil {
		return err
	}
	inv, err := svc.MarkDefaulted(uint(id))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// RegenerateSchedule recomputes the pending schedule from current terms.
func RegenerateSchedule(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid investment id")
	}
	svc, err := investmentSvc(c)
	if err != nil {
		return err
	}
	count, err := svc.Regenerate(uint(id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entries_count": count})
}

func GetSchedule(c *fiber.Ctx) error {
	inv, svc, err := loadOwned(c)
	if err != nil {
		return err
	}
	entries, err := svc.Schedule(inv.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"schedule": entries})
}

func GetScheduleRevisions(c *fiber.Ctx) error {
	inv, svc, err := loadOwned(c)
	if err != nil {
		return err
	}
	revs, err := svc.Revisions(inv.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"revisions": revs})
}

// feePolicy reads the late-fee policy per request; env is loaded by then.
func feePolicy() finance.FeePolicy {
	return finance.PolicyFromEnv()
}
