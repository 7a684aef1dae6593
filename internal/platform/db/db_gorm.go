// Package db はGORMによるデータベース接続とトランザクション管理を提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	// DriverMySQL はMySQL(Cloud SQL含む)を表します。
	DriverMySQL = "mysql"
	// DriverPostgres はPostgreSQLを表します。
	DriverPostgres = "postgres"
	// DriverSQLite はローカル開発用のSQLiteを表します。
	DriverSQLite = "sqlite"

	// connectRetryInterval は接続リトライの待機間隔です。
	connectRetryInterval = 3 * time.Second
	// defaultConnectTimeout は接続リトライ全体の上限時間です。
	defaultConnectTimeout = 60 * time.Second
)

// Config はデータベース接続の設定を保持します。
type Config struct {
	Driver       string // mysql | postgres | sqlite
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	InstanceName string // Cloud SQLのインスタンス接続名(設定時はUnixソケットを使用)
	SQLitePath   string
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替えられるように抽象化しています。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = DriverMySQL
	}
	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "./stocksim.db"
	}
	return Config{
		Driver:       driver,
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		SQLitePath:   sqlitePath,
	}
}

// BuildDSN はMySQL用のDSN文字列を生成します。
// InstanceNameが設定されている場合はHost/Portより優先してCloud SQLのUnixソケットを使用します。
func BuildDSN(cfg Config) string {
	if cfg.InstanceName != "" {
		return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// BuildPostgresDSN はPostgreSQL用のキーワード形式DSNを生成します。
func BuildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if cfg.InstanceName != "" {
		host = "/cloudsql/" + cfg.InstanceName
	}
	port := cfg.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, cfg.User, cfg.Password, cfg.Name)
}

// gormConfig は全ドライバ共通のGORM設定です。
// TranslateErrorを有効にして一意制約違反をgorm.ErrDuplicatedKeyとして扱えるようにします。
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// NewOpener はドライバに応じたOpenerとDSNを返します。
func NewOpener(cfg Config) (Opener, string, error) {
	switch cfg.Driver {
	case DriverMySQL, "":
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(gmysql.Open(dsn), gormConfig())
		}, BuildDSN(cfg), nil
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig())
		}, BuildPostgresDSN(cfg), nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormConfig())
		}, cfg.SQLitePath + "?_busy_timeout=5000&_foreign_keys=on", nil
	default:
		return nil, "", fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// ConnectWithRetry はタイムアウトに達するまで一定間隔で接続をリトライします。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		wait := connectRetryInterval
		if remaining < wait {
			wait = remaining
		}
		time.Sleep(wait)
	}
}

// OpenDB は設定に従ってデータベースへ接続します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	open, dsn, err := NewOpener(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(dsn, defaultConnectTimeout, open)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// SQLiteは書き込みが単一コネクションに直列化される
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	slog.Info("database connected", "driver", cfg.Driver)
	return db, nil
}

// AutoMigrate は渡されたモデルのテーブルを作成・更新します。
func AutoMigrate(db *gorm.DB, models ...any) error {
	if db == nil {
		return errors.New("db is nil")
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
