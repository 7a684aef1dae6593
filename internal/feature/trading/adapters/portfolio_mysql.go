package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stocksim_backend/internal/feature/trading/domain/entity"
	"stocksim_backend/internal/feature/trading/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// portfolioMySQL はPortfolioRepositoryのGORM実装です。
type portfolioMySQL struct {
	db *gorm.DB
}

var _ usecase.PortfolioRepository = (*portfolioMySQL)(nil)

// NewPortfolioRepository はportfolioMySQLの新しいインスタンスを生成します。
func NewPortfolioRepository(db *gorm.DB) *portfolioMySQL {
	return &portfolioMySQL{db: db}
}

func (r *portfolioMySQL) FindByUserID(ctx context.Context, userID string) (*entity.Portfolio, error) {
	var m PortfolioModel
	if err := platformdb.Conn(ctx, r.db).Where("user_id = ?", userID).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrPortfolioNotFound
		}
		return nil, translateError(err)
	}
	p := m.toEntity()
	return &p, nil
}

// CreateForUser は利用者のポートフォリオを作成します。既に存在する場合は ErrConflict を返します。
func (r *portfolioMySQL) CreateForUser(ctx context.Context, userID string) (*entity.Portfolio, error) {
	m := PortfolioModel{ID: uuid.NewString(), UserID: userID}
	if err := platformdb.Conn(ctx, r.db).Create(&m).Error; err != nil {
		return nil, translateError(err)
	}
	p := m.toEntity()
	return &p, nil
}

// Provision はauthフィーチャーのサインアップ時にポートフォリオを作成します。
func (r *portfolioMySQL) Provision(ctx context.Context, userID string) error {
	_, err := r.CreateForUser(ctx, userID)
	return err
}
