package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the tenant boundary: every owned row carries a UserId and every
// query is scoped by it. IDs are UUIDs assigned on create.
type User struct {
	ID        string    `gorm:"type:varchar(36);primary_key" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

type NewUser struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, utils.StorageError("failed to check email", err)
	}
	if count > 0 {
		return nil, utils.ValidationError("duplicate email")
	}

	user := User{Name: input.Name, Email: input.Email}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, utils.StorageError("failed to create user", err)
	}
	return &user, nil
}

func GetUser(ctx context.Context, userId string) (*User, error) {

	user, err := utils.FetchSingleModel[User](ctx, userId)
	if err != nil {
		return nil, utils.NotFoundError("user not found")
	}
	return user, nil
}
