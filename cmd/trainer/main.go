package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/modelstore"
	"ecopulse-analytics-api/peer"
	"ecopulse-analytics-api/services"
	"ecopulse-analytics-api/store"

	"github.com/spf13/cobra"
)

var (
	withGDP   bool
	seed      int64
	testFrac  float64
	targets   []string
	startYear int
	endYear   int
	subject   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trainer",
		Short: "Train and inspect national energy forecast models",
		Long: `Offline companion to the analytics API. Reads national records from mongo,
fits one regression model per energy source and stores the parameters where
the API loads them.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// trainCmd fits and persists a model per target
func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train one OLS model per energy source",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, st, params, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeStore(st)

			features := forecast.DefaultFeatures
			if withGDP {
				features = append(append([]string{}, features...), forecast.GDPColumn)
			}
			log.Printf("training %d targets with features %v (backend %s)", len(targets), features, cfg.Models.Backend)

			opts := forecast.TrainOptions{TestFraction: testFrac, Seed: seed}
			trained, err := services.TrainAll(ctx, st.Records(), params, targets, features, opts, time.Now().UTC())
			printEvaluations(cmd.OutOrStdout(), trained)
			return err
		},
	}

	cmd.Flags().BoolVar(&withGDP, "with-gdp", false, "Add Gross Domestic Product as a feature")
	cmd.Flags().Int64Var(&seed, "seed", forecast.DefaultTrainOptions.Seed, "Train/test split seed")
	cmd.Flags().Float64Var(&testFrac, "test-fraction", forecast.DefaultTrainOptions.TestFraction, "Share of rows held out for evaluation")
	cmd.Flags().StringSliceVar(&targets, "target", forecast.Targets, "Target columns to train")

	return cmd
}

// forecastCmd prints a forecast table from stored parameters
func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast [target]",
		Short: "Print the forecast for one energy source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, st, params, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeStore(st)

			analytics := services.NewAnalytics(services.AnalyticsSources{Records: st.Records()}, params, peer.DefaultConfig())
			start, end := forecast.ClampRange(startYear, endYear)
			column, rows, err := analytics.NationalForecast(ctx, args[0], start, end)
			if err != nil {
				return fmt.Errorf("forecast %s: %w", args[0], err)
			}
			return printForecast(cmd.OutOrStdout(), column, rows)
		},
	}

	cmd.Flags().IntVar(&startYear, "start", forecast.DefaultStartYear, "First year")
	cmd.Flags().IntVar(&endYear, "end", forecast.DefaultEndYear, "Last year")

	return cmd
}

// tokenCmd mints an admin token for the write routes
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin JWT for the API write routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			token, err := mintToken(cfg.JWT, subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "ops", "Token subject (userId claim)")

	return cmd
}

func connect(ctx context.Context) (*config.Config, *store.Store, forecast.ParamStore, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Connect(ctx, cfg.Mongo, store.RetryPolicy{MaxAttempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	params, err := modelstore.Open(cfg.Models, cfg.Database)
	if err != nil {
		closeStore(st)
		return nil, nil, nil, fmt.Errorf("failed to open model store: %w", err)
	}
	return cfg, st, params, nil
}

func closeStore(st *store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Close(ctx); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
}
