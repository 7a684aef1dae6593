package dto

import (
	"github.com/shopspring/decimal"

	"stocksim_backend/internal/feature/auth/domain/entity"
)

// TokenRes は /login の成功レスポンスです。
type TokenRes struct {
	Token string `json:"token"`
}

// UserRes はユーザーの公開情報です。パスワードハッシュは含めません。
type UserRes struct {
	ID      string          `json:"id"`
	Email   string          `json:"email"`
	Role    string          `json:"role"`
	Balance decimal.Decimal `json:"balance"`
}

func NewUserRes(u *entity.User) UserRes {
	return UserRes{ID: u.ID, Email: u.Email, Role: string(u.Role), Balance: u.Balance}
}
