package repo

import (
	"context"

	"github.com/Skotchmaster/ecom_api/internal/models"
)

// CreateUserIfNotExists inserts u unless the email is taken.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	tx := r.getDB(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return ErrDuplicate
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.getDB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.getDB(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// EnsureAdmin creates the bootstrap admin or promotes an existing account.
// It never overwrites the stored password.
func (r *GormRepo) EnsureAdmin(ctx context.Context, email, passwordHash string) (*models.User, error) {
	user := models.User{Email: email, PasswordHash: passwordHash, Role: models.RoleAdmin}
	err := r.Transaction(ctx, func(ctx context.Context) error {
		db := r.getDB(ctx)
		if err := db.Where("email = ?", email).FirstOrCreate(&user).Error; err != nil {
			return err
		}
		if user.Role != models.RoleAdmin {
			user.Role = models.RoleAdmin
			return db.Model(&user).Update("role", models.RoleAdmin).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
