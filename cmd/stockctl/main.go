// stockctl はシミュレーターの運用コマンド（カタログ投入、履歴生成、ティック実行、権限付与）です。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"stocksim_backend/internal/app/di"
	authentity "stocksim_backend/internal/feature/auth/domain/entity"
	marketadapters "stocksim_backend/internal/feature/market/adapters"
	marketusecase "stocksim_backend/internal/feature/market/usecase"
	"stocksim_backend/internal/platform/config"
	platformdb "stocksim_backend/internal/platform/db"
	"stocksim_backend/internal/platform/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "stockctl",
		Short:         "Operate the stock trading simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(promoteCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp は設定読み込み・DB接続・マイグレーションを行ってから fn を実行します。
// CLIではRedisキャッシュを使いません。
func withApp(fn func(app *di.App) error) error {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := platformdb.OpenDB(platformdb.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	defer closeDB(db)
	if cfg.RunMigrations {
		if err := platformdb.AutoMigrate(db, di.Models()...); err != nil {
			return err
		}
	}

	app := di.NewApp(cfg, db, nil)
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close app resources", "error", err)
		}
	}()
	return fn(app)
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}

func backfillCmd() *cobra.Command {
	var (
		catalogPath string
		days        int
	)
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Create stocks from a YAML catalog and generate their price history",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := marketadapters.LoadCatalogFile(catalogPath)
			if err != nil {
				return err
			}
			return withApp(func(app *di.App) error {
				return seed(cmd.Context(), app, inputs, days, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "stocks.yaml", "path to the stock catalog YAML")
	cmd.Flags().IntVar(&days, "days", marketusecase.DefaultBackfillDays, "number of days of history to generate")
	return cmd
}

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Advance every active, non-frozen stock by one simulator step",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *di.App) error {
				report, err := app.Ticker.Tick(cmd.Context())
				if err != nil {
					return err
				}
				for _, t := range report.Ticks {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s -> %s\n", t.Symbol, t.PreviousClose.StringFixed(4), t.Price.StringFixed(4))
				}
				if report.Failed > 0 {
					return fmt.Errorf("%d stock(s) failed to tick", report.Failed)
				}
				return nil
			})
		},
	}
}

func promoteCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the ADMIN role to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *di.App) error {
				if err := app.Roles.SetRole(cmd.Context(), email, authentity.RoleAdmin); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now ADMIN\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
