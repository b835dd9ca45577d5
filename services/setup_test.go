package services

import (
	"path/filepath"
	"testing"
	"time"

	"solarvest-backend/finance"
	"solarvest-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Plant{},
		&models.Investment{},
		&models.RepaymentEntry{},
		&models.Invoice{},
		&models.Reminder{},
		&models.ScheduleRevision{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testPolicy() finance.FeePolicy {
	return finance.FeePolicy{
		Flat:      decimal.NewFromInt(5),
		DailyPct:  decimal.NewFromFloat(0.1),
		GraceDays: 0,
	}
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := models.User{FirstName: "Test", LastName: "User", Email: email, Role: role}
	u.SetPassword("secret-password")
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func seedPlant(t *testing.T, db *gorm.DB) *models.Plant {
	t.Helper()
	p := models.Plant{
		Name:        "Sonnenfeld Ost",
		Location:    "Brandenburg",
		CapacityKW:  750,
		FundingGoal: decimal.NewFromInt(500000),
		FundedTotal: decimal.Zero,
		Status:      models.PlantFunding,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed plant: %v", err)
	}
	return &p
}

// seedInvestment creates a pending investment with round reference terms:
// 12000 at 5% over 12 months, monthly installments.
func seedInvestment(t *testing.T, db *gorm.DB) (*models.Investment, *InvestmentService) {
	t.Helper()
	user := seedUser(t, db, "investor@example.com", models.RoleInvestor)
	plant := seedPlant(t, db)
	svc := NewInvestmentService(db, nil)
	inv, err := svc.Create(CreateInvestmentInput{
		UserID:            user.Id,
		PlantID:           plant.Id,
		Amount:            decimal.NewFromInt(12000),
		DurationMonths:    12,
		InterestRate:      decimal.NewFromInt(5),
		RepaymentInterval: models.IntervalMonthly,
	})
	if err != nil {
		t.Fatalf("seed investment: %v", err)
	}
	return inv, svc
}

// verifiedInvestment seeds and verifies, returning the generated entries.
func verifiedInvestment(t *testing.T, db *gorm.DB) (*models.Investment, *InvestmentService, []models.RepaymentEntry) {
	t.Helper()
	inv, svc := seedInvestment(t, db)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	verified, n, err := svc.Verify(inv.ID, admin.Id)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if n != 12 {
		t.Fatalf("expected 12 entries, got %d", n)
	}
	entries, err := svc.Schedule(verified.ID)
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	return verified, svc, entries
}

// backdate shifts an investment's start date into the past and regenerates,
// so due dates land around now for the overdue/upcoming views.
func backdate(t *testing.T, db *gorm.DB, svc *InvestmentService, inv *models.Investment, start time.Time) []models.RepaymentEntry {
	t.Helper()
	end := start.AddDate(0, inv.DurationMonths, 0)
	if err := db.Model(&models.Investment{}).Where("id = ?", inv.ID).
		Updates(map[string]any{"start_date": start, "end_date": end}).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	if _, err := svc.Regenerate(inv.ID); err != nil {
		t.Fatalf("regenerate after backdate: %v", err)
	}
	entries, err := svc.Schedule(inv.ID)
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	return entries
}
