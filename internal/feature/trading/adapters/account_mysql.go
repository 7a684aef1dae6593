package adapters

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stocksim_backend/internal/feature/trading/domain/entity"
	"stocksim_backend/internal/feature/trading/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// accountMySQL はAccountRepositoryのGORM実装です。
type accountMySQL struct {
	db *gorm.DB
}

var _ usecase.AccountRepository = (*accountMySQL)(nil)

// NewAccountRepository はaccountMySQLの新しいインスタンスを生成します。
func NewAccountRepository(db *gorm.DB) *accountMySQL {
	return &accountMySQL{db: db}
}

// FindForUpdate は users 行を SELECT ... FOR UPDATE で読み込みます。
// 同じ利用者の約定は複数インスタンス間でもこの行ロックで直列化されます。
func (r *accountMySQL) FindForUpdate(ctx context.Context, userID string) (*entity.Account, error) {
	return r.take(platformdb.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *accountMySQL) Find(ctx context.Context, userID string) (*entity.Account, error) {
	return r.take(platformdb.Conn(ctx, r.db), userID)
}

func (r *accountMySQL) UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	res := platformdb.Conn(ctx, r.db).Model(&accountModel{}).Where("id = ?", userID).Update("balance", balance)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *accountMySQL) take(q *gorm.DB, userID string) (*entity.Account, error) {
	var m accountModel
	if err := q.Select("id", "balance").Where("id = ?", userID).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, translateError(err)
	}
	return &entity.Account{UserID: m.ID, Balance: m.Balance}, nil
}
