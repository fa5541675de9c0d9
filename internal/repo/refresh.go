package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/ecom_api/internal/models"
)

var ErrTokenRevoked = errors.New("token expired or revoked")

func (r *GormRepo) AddRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return r.getDB(ctx).Create(token).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.getDB(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction.
// A token that is already revoked or expired cannot be rotated twice.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, next *models.RefreshToken) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		db := r.getDB(ctx)

		q := db.Where("jti = ?", oldJTI)
		if r.Dialect() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var old models.RefreshToken
		if err := q.First(&old).Error; err != nil {
			return notFound(err)
		}
		if old.Revoked || old.ExpiresAt.Before(time.Now()) || old.UserID != next.UserID {
			return ErrTokenRevoked
		}

		res := db.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenRevoked
		}

		return db.Create(next).Error
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash string, userID uint) error {
	res := r.getDB(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND user_id = ?", tokenHash, userID).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
