// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/auth/domain/entity"
)

// UserModel は users テーブルのGORMモデルです。
// balance 列は tradingフィーチャーの約定処理からも更新されます。
type UserModel struct {
	ID        string          `gorm:"primaryKey;size:36"`
	Email     string          `gorm:"uniqueIndex;size:255;not null"`
	Password  string          `gorm:"size:255;not null"`
	Role      string          `gorm:"size:10;not null"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func toUserModel(u *entity.User) UserModel {
	return UserModel{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Role:      string(u.Role),
		Balance:   u.Balance,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m UserModel) toEntity() *entity.User {
	return &entity.User{
		ID:        m.ID,
		Email:     m.Email,
		Password:  m.Password,
		Role:      entity.Role(m.Role),
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// Models はauthフィーチャーが所有するテーブルのAutoMigrate対象を返します。
func Models() []any {
	return []any{&UserModel{}}
}
