package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"config-envelope-service/config"
	"config-envelope-service/internal/infra"
	"config-envelope-service/internal/usecase"
)

// dbConnectTimeout はDB接続の上限時間。
const dbConnectTimeout = 10 * time.Second

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the configured database",
		Long:  "Inspect the database configured by DATABASE_URL (MongoDB or MySQL)",
	}
	cmd.AddCommand(dbStatusCmd())
	cmd.AddCommand(dbTestCmd())
	return cmd
}

// newDatabaseService はDATABASE_URLからDatabaseServiceを生成する。
func newDatabaseService(ctx context.Context) (*usecase.DatabaseService, func(), error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	factory := infra.InspectorFactory(cfg, dbConnectTimeout)
	inspector, err := factory(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeFn := func() {
		if err := inspector.Close(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close database: %v\n", err)
		}
	}
	return usecase.NewDatabaseService(cfg.DatabaseURL, inspector, factory, nil), closeFn, nil
}

func dbStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			service, closeFn, err := newDatabaseService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			status := service.Status(ctx)

			// 結果を表示
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "URI\t%s\n", status.MaskedURI)
			fmt.Fprintf(w, "CONNECTED\t%t\n", status.Connected)
			fmt.Fprintf(w, "LATENCY\t%dms\n", status.Latency.Milliseconds())
			if status.Error != "" {
				fmt.Fprintf(w, "ERROR\t%s\n", status.Error)
			}
			if info := status.Info; info != nil {
				fmt.Fprintf(w, "DATABASE\t%s\n", info.Name)
				fmt.Fprintf(w, "COLLECTIONS\t%d (%s)\n", len(info.Collections), strings.Join(info.Collections, ", "))
				if info.Server != nil {
					fmt.Fprintf(w, "SERVER\t%s %s\n", info.Server.Version, info.Server.GitVersion)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !status.Connected {
				return fmt.Errorf("database is not reachable")
			}
			return nil
		},
	}
}

func dbTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Open a fresh connection and ping the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			cfg := config.Load()
			service := usecase.NewDatabaseService(cfg.DatabaseURL, nil, infra.InspectorFactory(cfg, dbConnectTimeout), nil)
			result, err := service.Test(ctx)
			if err != nil {
				return err
			}

			if !result.Success {
				return fmt.Errorf("connection test failed after %dms: %s", result.Latency.Milliseconds(), result.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection test succeeded (%dms)\n", result.Latency.Milliseconds())
			return nil
		},
	}
}
