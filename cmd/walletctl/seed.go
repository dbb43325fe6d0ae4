package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/domain/instrument"
	"github.com/safepay/wallet-api/internal/pkg/logger"
)

const seedConcurrency = 8

func seedCmd() *cobra.Command {
	var (
		target      string
		datasetPath string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a user dataset into a backing store",
		Long: `Write a YAML user dataset into postgres, redis or s3. Without --dataset the
built-in dataset is used.

Examples:
  walletctl seed --target redis
  walletctl seed --target s3 --dataset ./users.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), config.Load(), target, datasetPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "backing store: postgres, redis or s3")
	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "YAML dataset file (default: built-in dataset)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runSeed(ctx context.Context, cfg *config.Config, target, datasetPath string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ds, err := instrument.LoadDatasetOrDefault(datasetPath)
	if err != nil {
		return err
	}

	seeder, cleanup, err := instrument.NewSeeder(ctx, cfg, target)
	if err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	defer cleanup()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for _, doc := range ds.Users {
		doc := doc
		g.Go(func() error {
			if err := seeder.SeedUser(gctx, doc); err != nil {
				return fmt.Errorf("seed %s: %w", doc.UserID, err)
			}
			logger.LogDebug(gctx, "User seeded", "user_id", doc.UserID, "instruments", len(doc.PaymentMethods))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Seeded %d users into %s\n", len(ds.Users), target)
	return nil
}
