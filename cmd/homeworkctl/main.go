package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"homework-tracker/config"
	"homework-tracker/internal/app"
	"homework-tracker/internal/dto"
	"homework-tracker/pkg/database"
	applogger "homework-tracker/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "homeworkctl",
	Short:         "作业管理后台运维工具",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径")
	rootCmd.AddCommand(seedCmd(), createUserCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp 初始化依赖后执行 fn，结束时关闭连接
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, app.Options{ConfigPath: configPath})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(a)
}

// ---- seed ----

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "清空并写入演示数据（20 用户 / 50 作业）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				counts, err := a.Service.Seed.Seed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Database initialized: %d users, %d assignments, %d submissions\n",
					counts.Users, counts.Assignments, counts.Submissions)
				return nil
			})
		},
	}
}

// ---- create-user ----

func createUserCmd() *cobra.Command {
	var req dto.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "创建用户（可直接授予管理员）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Username == "" || req.Password == "" {
				return fmt.Errorf("--username 与 --password 不能为空")
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.Service.User.Create(cmd.Context(), &req, true)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, role=%s)\n", user.Username, user.ID, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "用户名")
	cmd.Flags().StringVar(&req.Password, "password", "", "密码")
	cmd.Flags().StringVar(&req.Name, "name", "", "显示名（默认同用户名）")
	cmd.Flags().BoolVar(&req.IsAdmin, "admin", false, "授予管理员")
	return cmd
}

// ---- migrate ----

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行 PostgreSQL 迁移（仅 db.driver=postgres）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("当前 db.driver=%s，迁移仅适用于 postgres", cfg.Database.Driver)
			}
			logger, err := applogger.NewLogger(&cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.NewDB(&cfg.Database.Postgres, cfg.Log.Level, logger)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			status, err := database.RunMigrations(sqlDB, logger)
			if err != nil {
				return err
			}
			if status.Dirty {
				return fmt.Errorf("schema 版本 %d 处于 dirty 状态", status.Version)
			}
			cmd.Printf("schema 版本 %d/%d (本次执行新迁移: %v)\n", status.Version, status.Target, status.Applied)
			return nil
		},
	}
}
