package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plant statuses.
const (
	PlantPlanning       = "planning"
	PlantFunding        = "funding"
	PlantOperational    = "operational"
	PlantDecommissioned = "decommissioned"
)

// Plant is a solar installation open for crowd investment.
type Plant struct {
	Id          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null;unique"`
	Location    string          `json:"location" gorm:"not null"`
	CapacityKW  float64         `json:"capacity_kw" gorm:"not null"`
	FundingGoal decimal.Decimal `json:"funding_goal" gorm:"type:numeric(12,2);not null"`
	// FundedTotal is the rollup of verified investment principal.
	FundedTotal decimal.Decimal `json:"funded_total" gorm:"type:numeric(12,2);not null;default:0"`
	Status      string          `json:"status" gorm:"type:VARCHAR(20);not null;default:'planning'"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
