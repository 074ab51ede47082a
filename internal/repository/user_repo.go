package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// UserRepository loads and manages staff accounts and their group memberships.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	GetGroup(ctx context.Context, name string) (models.Group, error)
	// ToggleGroup flips the user's membership in the named group and reports
	// whether the user is a member afterwards. The audit entry is completed
	// with the resulting membership and committed in the same transaction as
	// the flip.
	ToggleGroup(ctx context.Context, userID uint, groupName string, audit *models.AuditLog) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Groups").First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Groups").
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", login, login).
		First(&user).Error
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Preload("Groups").Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetGroup(ctx context.Context, name string) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (r *userRepository) ToggleGroup(ctx context.Context, userID uint, groupName string, audit *models.AuditLog) (bool, error) {
	var member bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Preload("Groups").First(&user, userID).Error; err != nil {
			return err
		}

		var group models.Group
		if err := tx.Where("name = ?", groupName).First(&group).Error; err != nil {
			return err
		}

		if user.InGroup(groupName) {
			if err := tx.Model(&user).Association("Groups").Delete(&group); err != nil {
				return err
			}
			member = false
		} else {
			if err := tx.Model(&user).Association("Groups").Append(&group); err != nil {
				return err
			}
			member = true
		}

		if audit.NewData == nil {
			audit.NewData = datatypes.JSONMap{}
		}
		audit.NewData["member"] = member
		return tx.Create(audit).Error
	})
	return member, err
}
