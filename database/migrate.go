package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate applies the raw-SQL pass AutoMigrate cannot express:
// - money columns pinned to NUMERIC(12,2)
// - composite and partial indexes
// - basic CHECK constraints on amounts and durations
// The statements are idempotent so the pass runs on every boot.
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE plants             ALTER COLUMN funding_goal    TYPE numeric(12,2)`,
			`ALTER TABLE plants             ALTER COLUMN funded_total    TYPE numeric(12,2)`,
			`ALTER TABLE investments        ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE investments        ALTER COLUMN interest_rate   TYPE numeric(5,2)`,
			`ALTER TABLE investments        ALTER COLUMN total_interest  TYPE numeric(12,2)`,
			`ALTER TABLE investments        ALTER COLUMN total_repayment TYPE numeric(12,2)`,
			`ALTER TABLE investments        ALTER COLUMN paid_amount     TYPE numeric(12,2)`,
			`ALTER TABLE repayment_entries  ALTER COLUMN amount          TYPE numeric(12,2)`,
			`ALTER TABLE repayment_entries  ALTER COLUMN principal       TYPE numeric(12,2)`,
			`ALTER TABLE repayment_entries  ALTER COLUMN interest        TYPE numeric(12,2)`,
			`ALTER TABLE invoices           ALTER COLUMN subtotal        TYPE numeric(12,2)`,
			`ALTER TABLE invoices           ALTER COLUMN tax_amount      TYPE numeric(12,2)`,
			`ALTER TABLE invoices           ALTER COLUMN total_amount    TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_repayments_investment_due ON repayment_entries (investment_id, due_date)`,
			`CREATE INDEX IF NOT EXISTS idx_repayments_status_due ON repayment_entries (status, due_date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_repayments_investment_seq ON repayment_entries (investment_id, sequence)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_schedule_revisions_investment_no ON schedule_revisions (investment_id, revision_no)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
			// At most one live (non-cancelled) invoice per ledger entry.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_live_entry ON invoices (entry_id) WHERE entry_id IS NOT NULL AND status <> 'cancelled'`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'investments'::regclass
					  AND conname  = 'chk_investments_amount_min'
				) THEN
					ALTER TABLE investments
					ADD CONSTRAINT chk_investments_amount_min
					CHECK (amount >= 100);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'investments'::regclass
					  AND conname  = 'chk_investments_duration_range'
				) THEN
					ALTER TABLE investments
					ADD CONSTRAINT chk_investments_duration_range
					CHECK (duration_months BETWEEN 1 AND 360);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'investments'::regclass
					  AND conname  = 'chk_investments_rate_range'
				) THEN
					ALTER TABLE investments
					ADD CONSTRAINT chk_investments_rate_range
					CHECK (interest_rate >= 0 AND interest_rate <= 100);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'repayment_entries'::regclass
					  AND conname  = 'chk_repayments_amount_nonneg'
				) THEN
					ALTER TABLE repayment_entries
					ADD CONSTRAINT chk_repayments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
