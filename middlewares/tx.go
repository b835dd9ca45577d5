package middlewares

import (
	"log"

	"solarvest-backend/database"

	"github.com/gofiber/fiber/v2"
)

const afterCommitKey = "afterCommit"

// QueueAfterCommit defers fn until the request transaction commits. Side
// effects that must not precede durable state — investor notifications,
// outbound webhooks — go through here. On rollback the queued hooks are
// dropped; outside a request TX fn runs immediately.
func QueueAfterCommit(c *fiber.Ctx, fn func()) {
	if hooks, ok := c.Locals(afterCommitKey).(*[]func()); ok {
		*hooks = append(*hooks, fn)
		return
	}
	fn()
}

// RequestTx opens a per-request DB transaction. Every mutation a handler
// performs — ledger writes, investment rollups, invoice cascades — commits or
// rolls back as one unit, so partial schedules and orphan entries can never
// become visible. Order: run AFTER IsAuthenticatedHeader() and AFTER
// Idempotency() (so idempotency records aren't tied to the handler TX).
func RequestTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		hooks := &[]func(){}
		c.Locals(afterCommitKey, hooks)

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				log.Printf("tx commit failed: %v", e)
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
				return
			}
			for _, fn := range *hooks {
				fn()
			}
		}()

		// Make the TX available to handlers via database.FromCtx(c).
		c.Locals("tx", tx)

		// Run the handler chain inside this TX.
		err = c.Next()
		return err
	}
}
