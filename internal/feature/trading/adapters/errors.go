package adapters

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"stocksim_backend/internal/feature/trading/usecase"
)

// MySQLのロック関連エラー番号
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// PostgreSQLのSQLSTATE
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError はドライバ固有のロック競合・一意制約違反を usecase.ErrConflict に変換します。
// それ以外のエラーはそのまま返します。
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if isConflict(err) {
		return fmt.Errorf("%w: %v", usecase.ErrConflict, err)
	}
	return err
}

func isConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDeadlock || mysqlErr.Number == mysqlLockWaitTimeout
	}

	// SQLITE_BUSY
	return strings.Contains(err.Error(), "database is locked")
}
