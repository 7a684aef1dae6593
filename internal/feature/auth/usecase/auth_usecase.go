// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"stocksim_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExists を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFound を返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFound を返します。
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// UpdateRole はユーザーのロールを変更します。
	UpdateRole(ctx context.Context, id string, role entity.Role) error
}

// PortfolioProvisioner はユーザー登録時にポートフォリオを作成します（tradingフィーチャーが実装）。
type PortfolioProvisioner interface {
	Provision(ctx context.Context, userID string) error
}

// TxManager はユーザー作成とポートフォリオ作成を1つのDBトランザクションにまとめます。
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type JWTGenerator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID, email, role string) (string, error)
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	tx              TxManager
	users           UserRepository
	portfolios      PortfolioProvisioner
	jwtGenerator    JWTGenerator
	startingBalance decimal.Decimal
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// startingBalance は新規ユーザーの初期残高です。
func NewAuthUsecase(tx TxManager, users UserRepository, portfolios PortfolioProvisioner, jwtGenerator JWTGenerator, startingBalance decimal.Decimal) *authUsecase {
	return &authUsecase{
		tx:              tx,
		users:           users,
		portfolios:      portfolios,
		jwtGenerator:    jwtGenerator,
		startingBalance: startingBalance,
	}
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, minPasswordLength)
	}
	return nil
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録します。
// ユーザーとそのポートフォリオは同じトランザクションで作成されます。
func (u *authUsecase) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	// パスワード強度を検証
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{
		ID:       uuid.NewString(),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: string(hashed),
		Role:     entity.RoleUser,
		Balance:  u.startingBalance,
	}

	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, user); err != nil {
			return err
		}
		if err := u.portfolios.Provision(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to create portfolio: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login はユーザーを認証し、成功時にJWTトークンを返します。
// メールアドレスとパスワードを検証し、署名済みJWTトークンを生成します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	// メールアドレスでユーザーを検索
	user, err := u.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))

	// ユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュ
	// bcrypt.CompareHashAndPasswordが常に呼ばれることを保証する
	passwordHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // ダミーハッシュ
	if err == nil {
		passwordHash = user.Password
	}

	// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

	// ユーザー未検出またはパスワード不一致の場合、汎用エラーを返す
	if err != nil || compareErr != nil {
		return "", ErrInvalidCredentials
	}

	token, tokenErr := u.jwtGenerator.GenerateToken(user.ID, user.Email, string(user.Role))
	if tokenErr != nil {
		return "", fmt.Errorf("failed to generate token: %w", tokenErr)
	}

	return token, nil
}

// Me は認証済みユーザーのプロフィールと残高を返します。
func (u *authUsecase) Me(ctx context.Context, userID string) (*entity.User, error) {
	return u.users.FindByID(ctx, userID)
}

// SetRole はメールアドレスで指定したユーザーのロールを変更します。
func (u *authUsecase) SetRole(ctx context.Context, email string, role entity.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	user, err := u.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if err := u.users.UpdateRole(ctx, user.ID, role); err != nil {
		return err
	}
	slog.Info("user role changed", "user_id", user.ID, "role", string(role))
	return nil
}
