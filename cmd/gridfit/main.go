package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gridfit/adapters/file"
	"gridfit/adapters/postgres"
	"gridfit/adapters/remote"
	"gridfit/domain/dataset"
	"gridfit/domain/selection"
	"gridfit/internal/config"
	"gridfit/internal/engine"
	"gridfit/internal/testkit"
	"gridfit/model"
	"gridfit/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "gridfit",
		Short: "Gridfit CLI for tuning grid searches and holdout evaluation",
	}

	rootCmd.AddCommand(
		newRunCmd(cfg),
		newDemoCmd(cfg),
		newProfileCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	var (
		outcome       string
		positive      string
		predictors    []string
		family        string
		params        []string
		metricName    string
		folds         int
		repeats       int
		seed          int64
		trainRatio    float64
		workers       int
		remoteURL     string
		remoteRecords string
		remoteCursor  string
		remotePages   int
		save          bool
		jsonOut       string
	)

	cmd := &cobra.Command{
		Use:   "run [data-file]",
		Short: "Run a tuning grid search over a CSV, XLSX or remote JSON dataset",
		Long: `Resample a dataset into repeated stratified folds, score every grid
configuration on a worker pool, select the best configuration, refit it on the
full training partition, and evaluate it once on the holdout.

The dataset comes from the positional file argument, from GRIDFIT_DATA_FILE,
or from a remote JSON endpoint (--remote / GRIDFIT_REMOTE_URL).

Example: gridfit run segmentation.csv --outcome Class --positive PS --family gbm \
  --param trees=50,100,150 --param depth=1,2,3 --param shrinkage=0.01,0.1 --seed 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataFile := cfg.Data.File
			if len(args) == 1 {
				dataFile = args[0]
			}

			grid, err := buildGrid(family, params)
			if err != nil {
				return err
			}

			source, err := newDataSource(dataFile, remote.Source{
				URL:         remoteURL,
				RecordsPath: remoteRecords,
				CursorPath:  remoteCursor,
				MaxPages:    remotePages,
				Timeout:     cfg.Data.RemoteTimeout,
			}, file.Options{
				Outcome:    outcome,
				Positive:   positive,
				Predictors: predictors,
			})
			if err != nil {
				return err
			}
			d, dropped, err := source.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			if dropped > 0 {
				fmt.Printf("⚠️  Dropped %d rows with missing outcome labels\n", dropped)
			}

			metric, err := selection.ParseMetric(metricName)
			if err != nil {
				return err
			}

			spec := engine.Spec{
				Grid:       grid,
				Metric:     metric,
				TrainRatio: trainRatio,
				Folds:      folds,
				Repeats:    repeats,
				Seed:       seed,
				Workers:    workers,
			}

			return runSearch(cmd.Context(), d, spec, save, jsonOut)
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "Class", "Outcome column name")
	cmd.Flags().StringVar(&positive, "positive", "", "Label treated as the positive class (default: first label seen)")
	cmd.Flags().StringSliceVar(&predictors, "predictors", nil, "Predictor columns (default: all non-outcome columns)")
	cmd.Flags().StringVar(&family, "family", "gbm", "Model family: gbm|knn|logreg")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Grid axis as name=v1,v2,... (repeatable)")
	cmd.Flags().StringVar(&metricName, "metric", cfg.Engine.Metric, "Selection metric: auc|accuracy|kappa")
	cmd.Flags().IntVar(&folds, "folds", cfg.Engine.Folds, "Number of cross-validation folds")
	cmd.Flags().IntVar(&repeats, "repeats", cfg.Engine.Repeats, "Number of resampling repeats")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Engine.Seed, "Random seed for deterministic operations")
	cmd.Flags().Float64Var(&trainRatio, "train-ratio", cfg.Engine.TrainRatio, "Fraction of rows in the training partition")
	cmd.Flags().IntVar(&workers, "workers", cfg.Engine.Workers, "Fold-fit workers")
	cmd.Flags().StringVar(&remoteURL, "remote", cfg.Data.RemoteURL, "Remote JSON endpoint serving the dataset")
	cmd.Flags().StringVar(&remoteRecords, "remote-records", "data", "JSON path to the record array")
	cmd.Flags().StringVar(&remoteCursor, "remote-cursor", "", "JSON path to the next-page cursor (empty disables pagination)")
	cmd.Flags().IntVar(&remotePages, "remote-pages", 1, "Maximum number of remote pages to fetch")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the run report to Postgres (requires DATABASE_URL)")
	cmd.Flags().StringVar(&jsonOut, "json", "", "Write the full report as JSON to this file")

	return cmd
}

// newDataSource picks the dataset port for a run: the remote JSON endpoint
// when one is configured, the local file otherwise. Exactly one source must
// be given.
func newDataSource(dataFile string, src remote.Source, opts file.Options) (ports.DatasetSource, error) {
	if src.URL != "" && dataFile != "" {
		return nil, fmt.Errorf("both a data file and a remote endpoint were given; pick one")
	}
	if src.URL != "" {
		return remote.NewReader(src, opts), nil
	}
	if dataFile == "" {
		return nil, fmt.Errorf("no data source: pass a data file or set --remote / GRIDFIT_REMOTE_URL")
	}
	return file.NewDataReader(dataFile, opts), nil
}

func newDemoCmd(cfg *config.Config) *cobra.Command {
	var (
		rows int
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the grid search on a synthetic segmentation dataset",
		Long: `Generate a synthetic two-class segmentation dataset and run a small
gradient-boosting grid over it. Useful for smoke-testing the pipeline without
any input files.

Example: gridfit demo --rows 400 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			genCfg := testkit.DefaultSegmentationConfig()
			genCfg.Rows = rows
			genCfg.Seed = seed

			d, err := testkit.NewSegmentationGenerator(genCfg).Generate()
			if err != nil {
				return fmt.Errorf("failed to generate dataset: %w", err)
			}

			grid := selection.ExpandGrid("gbm", map[string][]float64{
				"trees":     {50, 100, 150},
				"depth":     {1, 2, 3},
				"shrinkage": {0.01, 0.1},
			})

			metric, err := selection.ParseMetric(cfg.Engine.Metric)
			if err != nil {
				return err
			}

			spec := engine.Spec{
				Grid:       grid,
				Metric:     metric,
				TrainRatio: cfg.Engine.TrainRatio,
				Folds:      cfg.Engine.Folds,
				Repeats:    cfg.Engine.Repeats,
				Seed:       seed,
				Workers:    cfg.Engine.Workers,
			}

			return runSearch(cmd.Context(), d, spec, false, "")
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 400, "Number of synthetic rows to generate")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Engine.Seed, "Random seed for deterministic operations")

	return cmd
}

func newProfileCmd() *cobra.Command {
	var outcome string

	cmd := &cobra.Command{
		Use:   "profile [data-file]",
		Short: "Print per-column summary statistics for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := file.NewDataReader(args[0], file.Options{
				Outcome: outcome,
			})
			d, dropped, err := reader.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			fmt.Printf("📊 DATASET PROFILE\n")
			fmt.Printf("Rows: %d (dropped: %d)\n", d.NumRows(), dropped)
			fmt.Printf("Fingerprint: %s\n", d.Fingerprint())
			fmt.Printf("Classes: %v\n", d.ClassCounts())
			fmt.Printf("\n%-24s %10s %10s %10s %10s %8s\n", "COLUMN", "MEAN", "STDDEV", "MIN", "MAX", "MISSING")
			for _, p := range d.Profile() {
				fmt.Printf("%-24s %10.4f %10.4f %10.4f %10.4f %8d\n",
					p.Key, p.Mean, p.StdDev, p.Min, p.Max, p.MissingCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "Class", "Outcome column name")

	return cmd
}

func runSearch(ctx context.Context, d *dataset.Dataset, spec engine.Spec, save bool, jsonOut string) error {
	fmt.Printf("🔬 Searching %d configurations over %d-fold × %d-repeat resampling (seed %d)...\n",
		len(spec.Grid), spec.Folds, spec.Repeats, spec.Seed)

	eng := engine.New(model.NewRegistry(), nil)

	start := time.Now()
	report, _, err := eng.Run(ctx, d, spec)
	if err != nil {
		return fmt.Errorf("grid search failed: %w", err)
	}

	printReport(report, time.Since(start))

	if jsonOut != "" {
		if err := writeReportJSON(report, jsonOut); err != nil {
			return err
		}
		fmt.Printf("\n💾 Report written to %s\n", jsonOut)
	}

	if save {
		if err := persistReport(ctx, report); err != nil {
			return fmt.Errorf("failed to persist report: %w", err)
		}
		fmt.Printf("\n💾 Report %s saved to Postgres\n", report.Manifest.RunID)
	}

	return nil
}

func printReport(report *selection.Report, elapsed time.Duration) {
	m := report.Manifest

	fmt.Printf("\n📊 RESAMPLING RESULTS\n")
	fmt.Printf("Run: %s\n", m.RunID)
	fmt.Printf("Training rows: %d, holdout rows: %d\n", m.TrainRows, m.HoldoutRows)
	fmt.Printf("Fold fits: %d (%d failed)\n", m.ScoreRecords, m.FailedFits)
	fmt.Printf("Elapsed: %v\n", elapsed)

	ranked := make([]selection.ConfigSummary, len(report.Summaries))
	copy(ranked, report.Summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MeanScore > ranked[j].MeanScore
	})

	fmt.Printf("\n🏆 TOP CONFIGURATIONS (%s):\n", m.Metric)
	for i, s := range ranked[:min(5, len(ranked))] {
		marker := "  "
		if s.Config.Index == report.Selected.Index {
			marker = "➡️"
		}
		fmt.Printf("%s %d. %s %s  mean=%.4f ±%.4f (%d/%d folds)\n",
			marker, i+1, s.Config.Family, s.Config.Params, s.MeanScore, s.StdErr,
			s.Completed, s.Completed+s.Failed)
	}

	h := report.Holdout
	fmt.Printf("\n🎯 HOLDOUT EVALUATION (%d rows):\n", h.Size)
	fmt.Printf("Accuracy: %.4f   Kappa: %.4f   AUC: %.4f\n", h.Accuracy, h.Kappa, h.ROC.AUC)
	fmt.Printf("Confusion: TP=%d FP=%d TN=%d FN=%d\n",
		h.Confusion.TruePositive, h.Confusion.FalsePositive,
		h.Confusion.TrueNegative, h.Confusion.FalseNegative)
}

func persistReport(ctx context.Context, report *selection.Report) error {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := postgres.NewRunRepository(db)
	if err := repo.Init(ctx); err != nil {
		return err
	}
	return repo.SaveReport(ctx, report, report.Scores)
}

func writeReportJSON(report *selection.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// buildGrid parses repeated --param name=v1,v2 flags into a full cross product.
func buildGrid(family string, params []string) (selection.Grid, error) {
	if len(params) == 0 {
		return selection.Grid{}, fmt.Errorf("at least one --param axis is required")
	}

	space := make(map[string][]float64, len(params))
	for _, p := range params {
		name, list, ok := strings.Cut(p, "=")
		if !ok {
			return selection.Grid{}, fmt.Errorf("invalid --param %q (use name=v1,v2)", p)
		}
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return selection.Grid{}, fmt.Errorf("invalid value %q for param %s: %w", raw, name, err)
			}
			space[name] = append(space[name], v)
		}
	}

	return selection.ExpandGrid(family, space), nil
}

