package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAfterCommitHooksRunOnlyOnCommit(t *testing.T) {
	useTestDB(t)

	ran := 0
	app := fiber.New()
	app.Use(RequestTx())
	app.Post("/ok", func(c *fiber.Ctx) error {
		QueueAfterCommit(c, func() { ran++ })
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/fail", func(c *fiber.Ctx) error {
		QueueAfterCommit(c, func() { ran++ })
		return fiber.NewError(fiber.StatusConflict, "rolled back")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/ok", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ran != 1 {
		t.Fatalf("hook ran %d times after commit, want 1", ran)
	}

	// A failed handler rolls back; its queued hook must never fire.
	if _, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/fail", nil)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if ran != 1 {
		t.Fatalf("hook ran %d times after rollback, want 1", ran)
	}
}

func TestQueueAfterCommitWithoutTxRunsImmediately(t *testing.T) {
	app := fiber.New()
	ran := false
	app.Post("/loose", func(c *fiber.Ctx) error {
		QueueAfterCommit(c, func() { ran = true })
		if !ran {
			t.Error("hook not run immediately outside a request TX")
		}
		return c.SendStatus(fiber.StatusOK)
	})
	if _, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/loose", nil)); err != nil {
		t.Fatalf("request: %v", err)
	}
}
