package models

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Roles allowed on the platform. Financial mutations (verify, mark paid,
// regenerate) require RoleManager or RoleAdmin.
const (
	RoleInvestor = "investor"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

type User struct {
	Id        string `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"not null"`
	LastName  string `json:"last_name" gorm:"not null"`
	Password  []byte `json:"-" gorm:"not null"`
	Email     string `json:"email" gorm:"unique;not null"`
	Role      string `json:"role" gorm:"type:VARCHAR(20);not null;default:'investor'"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	user.Id = uuid.NewString()
	return
}

func (user *User) SetPassword(password string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), 12)
	user.Password = hashedPassword
}

func (user *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(user.Password, []byte(password))
}

// CanManageFinancials reports whether the user may verify investments,
// apply payments or regenerate schedules.
func (user *User) CanManageFinancials() bool {
	return user.Role == RoleManager || user.Role == RoleAdmin
}
