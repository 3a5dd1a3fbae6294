// Command paywayctl runs payment reconciliation by hand.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Vannakem2021/ecommerce-last-sub003/internal/app"
	"github.com/Vannakem2021/ecommerce-last-sub003/internal/payerror"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/config"
	"github.com/Vannakem2021/ecommerce-last-sub003/pkg/logger"
)

var Version = "dev"

func main() {
	var envPath string

	rootCmd := &cobra.Command{
		Use:           "paywayctl",
		Short:         "Operator tools for ABA PayWay orders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "Path to the env file")

	rootCmd.AddCommand(reconcileCmd(&envPath))
	rootCmd.AddCommand(pollCmd(&envPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)

		if perr := payerror.Parse(err); perr != nil && perr.RecoveryHint() != "" {
			fmt.Fprintln(os.Stderr, "hint:", perr.RecoveryHint())
		}

		stop()
		os.Exit(1)
	}
}

func reconcileCmd(envPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [order-id]",
		Short: "Check an order with the gateway and apply the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *envPath, func(ctx context.Context, a *app.App) error {
				res, err := a.Service.Reconcile(ctx, args[0])
				if err != nil {
					return err
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(res)
			})
		},
	}
}

func pollCmd(envPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one sweep over orders still waiting for a callback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *envPath, func(ctx context.Context, a *app.App) error {
				err := a.Service.PollPendingPayments(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "sweep finished")

				return nil
			})
		},
	}
}

func withApp(ctx context.Context, envPath string, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.New(envPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	l, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
