package controllers

import (
	"os"
	"time"

	"solarvest-backend/database"
	"solarvest-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// invoiceTaxRate reads INVOICE_TAX_RATE (percent); default 0, single
// jurisdiction is out of scope.
func invoiceTaxRate() decimal.Decimal {
	if v := os.Getenv("INVOICE_TAX_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			return d
		}
	}
	return decimal.Zero
}

func invoiceSvc(c *fiber.Ctx) (*services.InvoiceService, error) {
	db, err := database.FromCtx(c)
	if err != nil {
		return nil, err
	}
	payments := services.NewPaymentService(db, feePolicy())
	return services.NewInvoiceService(db, invoiceTaxRate(), payments), nil
}

// CreateInvoiceForEntry derives a draft invoice from a repayment entry.
// Repeating the call for the same entry is rejected with a conflict.
func CreateInvoiceForEntry(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid entry id")
	}
	svc, err := invoiceSvc(c)
	if err != nil {
		return err
	}
	inv, err := svc.CreateForEntry(uint(id))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func GetInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	svc, err := invoiceSvc(c)
	if err != nil {
		return err
	}
	inv, err := svc.GetFor(uint(id), ownerScope(c))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func SendInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	svc, err := invoiceSvc(c)
	if err != nil {
		return err
	}
	inv, err := svc.Send(uint(id))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// PayInvoice settles an invoice; for entry-linked invoices the payment flows
// through the repayment ledger.
func PayInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	var data map[string]string
	_ = c.BodyParser(&data)

	svc, err := invoiceSvc(c)
	if err != nil {
		return err
	}
	inv, err := svc.MarkPaid(uint(id), data["method"], data["reference"])
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func CancelInvoice(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	svc, err := invoiceSvc(c)
	if err != nil {
		return err
	}
	inv, err := svc.Cancel(uint(id))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// RefreshOverdueInvoices sweeps sent invoices past due into overdue.
// Triggered externally (cron hitting this endpoint); no background loop.
func RefreshOverdueInvoices(c *fiber.Ctx) error {
	svc, err := invoiceSvc(c)
	if err != nil {
		return err
	}
	n, err := svc.RefreshOverdue(time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"updated": n})
}
