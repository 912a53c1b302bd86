package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/programalilian/backend/internal/config"
	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/service"
	"github.com/programalilian/backend/internal/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "lilianctl",
		Short:        "Administrative tasks for the Programa Lilian backend",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase 按环境变量配置打开数据库，并完成自动迁移。
func openDatabase() (*gorm.DB, error) {
	cfg := config.Load()
	gdb, err := db.Init(db.Options{
		Driver:   cfg.DatabaseDriver,
		Path:     cfg.DatabasePath,
		URL:      cfg.DatabaseURL,
		LogLevel: logger.Error,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return gdb, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDatabase(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin panel account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
				return errors.New("--username and --password are required")
			}
			gdb, err := openDatabase()
			if err != nil {
				return err
			}
			created, err := db.EnsureUser(gdb, username, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "user %q already exists\n", strings.TrimSpace(username))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %q created\n", strings.TrimSpace(username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "admin", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print member and donation totals as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := openDatabase()
			if err != nil {
				return err
			}

			stats := service.NewStatsService(store.NewGormStore(gdb))
			overview, err := stats.Overview(context.Background())
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(overview)
		},
	}
}
