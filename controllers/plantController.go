package controllers

import (
	"solarvest-backend/database"
	"solarvest-backend/middlewares"
	"solarvest-backend/models"
	"solarvest-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type createPlantDTO struct {
	Name        string  `json:"name" validate:"required"`
	Location    string  `json:"location" validate:"required"`
	CapacityKW  float64 `json:"capacity_kw" validate:"required,gt=0"`
	FundingGoal string  `json:"funding_goal" validate:"required"`
	Description string  `json:"description"`
}

func CreatePlant(c *fiber.Ctx) error {
	var data createPlantDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)

	goal, err := decimal.NewFromString(data.FundingGoal)
	if err != nil || !goal.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid funding goal")
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	plant := models.Plant{
		Name:        data.Name,
		Location:    data.Location,
		CapacityKW:  data.CapacityKW,
		FundingGoal: goal,
		FundedTotal: decimal.Zero,
		Status:      models.PlantFunding,
		Description: data.Description,
	}
	if err := db.Create(&plant).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create plant")
	}
	return c.JSON(plant)
}

type updatePlantDTO struct {
	Location    *string  `json:"location"`
	CapacityKW  *float64 `json:"capacity_kw"`
	Status      *string  `json:"status"`
	Description *string  `json:"description"`
}

func UpdatePlant(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid plant id")
	}

	var data updatePlantDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&data)

	if data.Status != nil {
		switch *data.Status {
		case models.PlantPlanning, models.PlantFunding, models.PlantOperational, models.PlantDecommissioned:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unknown plant status")
		}
	}

	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&data, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	res := db.Model(&models.Plant{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update plant")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "plant not found")
	}

	var plant models.Plant
	db.First(&plant, id)
	return c.JSON(plant)
}

func GetPlants(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var plants []models.Plant
	db.Order("id ASC").Find(&plants)
	return c.JSON(fiber.Map{"plants": plants})
}

func GetPlant(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid plant id")
	}
	db, err := database.FromCtx(c)
	if err != nil {
		return err
	}
	var plant models.Plant
	if err := db.First(&plant, id).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "plant not found")
	}
	return c.JSON(plant)
}
