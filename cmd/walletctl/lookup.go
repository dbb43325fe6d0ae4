package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/domain/instrument"
	"github.com/safepay/wallet-api/internal/domain/payment"
	"github.com/safepay/wallet-api/internal/pkg/apperror"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
	"github.com/safepay/wallet-api/internal/pkg/response"
)

func lookupCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup [user_id]",
		Short: "List a user's payment methods through the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := config.Load()

			provider, cleanup, err := instrument.NewProvider(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ids, err := reqctx.NewGenerator(cfg.RequestIDFormat, cfg.NodeID)
			if err != nil {
				return err
			}
			svc := payment.NewService(provider,
				payment.WithTimeout(cfg.ProviderTimeout),
				payment.WithProviderName(cfg.Provider),
				payment.WithIDGenerator(ids),
			)
			return runLookup(ctx, svc, args[0], asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func runLookup(ctx context.Context, svc *payment.Service, userID string, asJSON bool, out io.Writer) error {
	methods, err := svc.GetPaymentMethods(ctx, payment.GetPaymentMethodsRequest{UserID: userID})
	if err != nil {
		var appErr *apperror.Error
		if asJSON && errors.As(err, &appErr) {
			_ = writeJSON(out, response.Response{Success: false, Error: response.NewErrorInfo(appErr)})
		}
		return err
	}

	if asJSON {
		return writeJSON(out, response.Response{Success: true, Data: methods})
	}

	if len(methods) == 0 {
		fmt.Fprintf(out, "%s has no payment methods\n", userID)
		return nil
	}
	fmt.Fprintf(out, "%-14s %-8s %-28s %-6s %s\n", "INSTRUMENT", "KIND", "BRAND", "LAST4", "NICKNAME")
	for _, m := range methods {
		fmt.Fprintf(out, "%-14s %-8s %-28s %-6s %s\n", m.InstrumentID, m.Kind, m.Brand, m.Last4, m.Nickname)
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
