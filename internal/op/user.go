package op

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/cache"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUsernameTaken = errors.New("username already taken")

var userCache = cache.New[uint, model.User](64)

// UserInit seeds an admin account with a random password when no user exists.
func UserInit() error {
	var count int64
	if err := db.GetDB().Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	password := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	user, err := UserCreate(context.Background(), "admin", password, true)
	if err != nil {
		return err
	}
	log.Infof("initial user: %s, password: %s", user.Username, password)
	return nil
}

// UserCreate stores a new user together with default chat settings.
func UserCreate(ctx context.Context, username, password string, admin bool) (*model.User, error) {
	user := model.User{Username: strings.TrimSpace(username), Password: password, IsAdmin: admin}
	if user.Username == "" {
		return nil, fmt.Errorf("username is empty")
	}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}
	err := db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&model.User{}).Where("username = ?", user.Username).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		settings := model.DefaultChatSettings(user.ID)
		return tx.Create(&settings).Error
	})
	if err != nil {
		return nil, err
	}
	userCache.Set(user.ID, user)
	return &user, nil
}

func UserVerify(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	if err := db.GetDB().WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("incorrect username or password")
	}
	if err := user.ComparePassword(password); err != nil {
		return nil, fmt.Errorf("incorrect username or password")
	}
	userCache.Set(user.ID, user)
	return &user, nil
}

func UserGet(ctx context.Context, id uint) (*model.User, error) {
	if user, ok := userCache.Get(id); ok {
		return &user, nil
	}
	var user model.User
	if err := db.GetDB().WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	userCache.Set(user.ID, user)
	return &user, nil
}

func UserChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	user, err := UserGet(ctx, id)
	if err != nil {
		return err
	}
	if err := user.ComparePassword(oldPassword); err != nil {
		return fmt.Errorf("incorrect old password")
	}
	user.Password = newPassword
	if err := user.HashPassword(); err != nil {
		return err
	}
	if err := db.GetDB().WithContext(ctx).Model(user).Update("password", user.Password).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	userCache.Set(user.ID, *user)
	return nil
}

func userRefreshCache(ctx context.Context) error {
	var users []model.User
	if err := db.GetDB().WithContext(ctx).Find(&users).Error; err != nil {
		return err
	}
	userCache.Clear()
	for _, u := range users {
		userCache.Set(u.ID, u)
	}
	return nil
}
