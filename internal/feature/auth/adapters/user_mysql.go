package adapters

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"stocksim_backend/internal/feature/auth/domain/entity"
	"stocksim_backend/internal/feature/auth/usecase"
	platformdb "stocksim_backend/internal/platform/db"
)

// MySQLエラー1062: ユニークキーの重複エントリ
const mysqlDuplicateEntry = 1062

// userMySQL はUserRepositoryインターフェースのGORM実装です。
type userMySQL struct {
	db *gorm.DB
}

// userMySQLがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userMySQL)(nil)

// NewUserMySQL は指定されたgorm.DB接続でuserMySQLの新しいインスタンスを生成します。
func NewUserMySQL(db *gorm.DB) *userMySQL {
	return &userMySQL{db: db}
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userMySQL) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	m := toUserModel(u)
	if err := platformdb.Conn(ctx, r.db).Create(&m).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userMySQL) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.take(ctx, "email = ?", email)
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userMySQL) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *userMySQL) UpdateRole(ctx context.Context, id string, role entity.Role) error {
	res := platformdb.Conn(ctx, r.db).Model(&UserModel{}).Where("id = ?", id).Update("role", string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *userMySQL) take(ctx context.Context, query string, arg any) (*entity.User, error) {
	var m UserModel
	if err := platformdb.Conn(ctx, r.db).Where(query, arg).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.toEntity(), nil
}
