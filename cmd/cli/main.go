package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"dendrosim/adapters/excel"
	adapterrng "dendrosim/adapters/rng"
	"dendrosim/domain/reliability"
	"dendrosim/domain/series"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal"
	"dendrosim/internal/report"
	"dendrosim/internal/simulation"
	"dendrosim/internal/testkit"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dendrosim",
		Short: "Monte-Carlo sampling design simulator for proxy chronologies",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newThresholdCmd(),
		newEPSCmd(),
		newSyntheticCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		climateFile    string
		years, months  int
		noiseLevels    []float64
		specimenCounts []int
		population     int
		driverMonths   []int
		analysisMonths []int
		targetCorr     float64
		targetRbar     float64
		replicates     int
		repetitions    int
		pValue         float64
		seed           int64
		workers        int
		csvOut         string
		xlsxOut        string
		printReport    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full sampling design simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			climate, err := loadClimate(climateFile, years, months, seed)
			if err != nil {
				return err
			}

			params := sim.Params{
				NoiseLevels:       noiseLevels,
				SpecimenCounts:    specimenCounts,
				PopulationSize:    population,
				DriverMonths:      driverMonths,
				AnalysisMonths:    analysisMonths,
				TargetCorrelation: targetCorr,
				TargetCoherence:   targetRbar,
				Replicates:        replicates,
				Repetitions:       repetitions,
				PValue:            pValue,
				Seed:              seed,
				Workers:           workers,
			}

			orchestrator := simulation.NewOrchestrator(adapterrng.NewStreamAdapter(), internal.DefaultLogger)
			run, err := orchestrator.Run(context.Background(), climate, params)
			if err != nil {
				return err
			}

			fmt.Printf("run %s: %d rows\n", run.ID, len(run.Rows))
			fmt.Printf("population coherence:   %.4f\n", run.Summary.PopulationCoherence)
			fmt.Printf("population correlation: %.4f\n", run.Summary.PopulationCorrelation)
			fmt.Printf("critical correlation:   %.4f (p=%g)\n", run.Summary.CriticalCorrelation, params.PValue)

			if csvOut != "" {
				if err := excel.WriteRunCSV(csvOut, run); err != nil {
					return err
				}
				fmt.Printf("results written to %s\n", csvOut)
			}
			if xlsxOut != "" {
				if err := excel.WriteRunWorkbook(xlsxOut, run); err != nil {
					return err
				}
				fmt.Printf("workbook written to %s\n", xlsxOut)
			}
			if printReport {
				md, err := report.Markdown(run)
				if err != nil {
					return err
				}
				fmt.Println()
				fmt.Println(md)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&climateFile, "climate", "", "climate matrix file (.csv or .xlsx); synthetic when empty")
	cmd.Flags().IntVar(&years, "years", 100, "synthetic climate years")
	cmd.Flags().IntVar(&months, "months", 12, "synthetic climate months")
	cmd.Flags().Float64SliceVar(&noiseLevels, "noise", []float64{0.2, 0.4, 0.8}, "core noise standard deviations")
	cmd.Flags().IntSliceVar(&specimenCounts, "counts", []int{5, 10, 20}, "specimen counts to evaluate")
	cmd.Flags().IntVar(&population, "pop", 0, "population size (0 = unbounded sentinel)")
	cmd.Flags().IntSliceVar(&driverMonths, "driver-months", []int{6, 7}, "driver season months (1-based)")
	cmd.Flags().IntSliceVar(&analysisMonths, "analysis-months", []int{6, 7}, "analysis season months (1-based)")
	cmd.Flags().Float64Var(&targetCorr, "target-corr", 0.6, "target driver-to-climate correlation (0,1]")
	cmd.Flags().Float64Var(&targetRbar, "target-rbar", 0.4, "target population coherence (0,1]")
	cmd.Flags().IntVar(&replicates, "replicates", 50, "cores per specimen")
	cmd.Flags().IntVar(&repetitions, "reps", 200, "subsample draws per combination")
	cmd.Flags().Float64Var(&pValue, "pvalue", 0.05, "two-tailed significance p-value")
	cmd.Flags().Int64Var(&seed, "seed", 42, "master random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel combination workers (0 = NumCPU)")
	cmd.Flags().StringVar(&csvOut, "csv", "", "write results table to CSV file")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "write results workbook to Excel file")
	cmd.Flags().BoolVar(&printReport, "report", false, "print the Markdown run report")

	return cmd
}

func newThresholdCmd() *cobra.Command {
	var sampleSize int
	var pValue float64

	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Critical Pearson correlation for a sample size and p-value",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := reliability.CriticalCorrelation(sampleSize, pValue)
			if err != nil {
				return err
			}
			fmt.Printf("critical |r| = %.4f (N=%d, two-tailed p=%g)\n", r, sampleSize, pValue)
			return nil
		},
	}

	cmd.Flags().IntVarP(&sampleSize, "n", "n", 32, "sample size (number of years)")
	cmd.Flags().Float64VarP(&pValue, "pvalue", "p", 0.05, "two-tailed p-value")
	return cmd
}

func newEPSCmd() *cobra.Command {
	var rbar, eps float64
	var n int

	cmd := &cobra.Command{
		Use:   "eps",
		Short: "Convert between coherence (rbar) and Expressed Population Signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("eps") {
				r, err := reliability.EPSToCoherence(eps, n)
				if err != nil {
					return err
				}
				fmt.Printf("rbar = %.4f (EPS=%g, n=%d)\n", r, eps, n)
				return nil
			}
			e, err := reliability.CoherenceToEPS(rbar, n)
			if err != nil {
				return err
			}
			fmt.Printf("EPS = %.4f (rbar=%g, n=%d)\n", e, rbar, n)
			return nil
		},
	}

	cmd.Flags().Float64Var(&rbar, "rbar", 0.4, "mean inter-series correlation")
	cmd.Flags().Float64Var(&eps, "eps", 0, "Expressed Population Signal (converts back to rbar)")
	cmd.Flags().IntVar(&n, "n", 10, "specimen count")
	return cmd
}

func newSyntheticCmd() *cobra.Command {
	var years, months int
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "synthetic",
		Short: "Generate a synthetic standardized climate matrix CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			matrix, err := testkit.SyntheticClimate(rand.New(rand.NewSource(seed)), years, months)
			if err != nil {
				return err
			}
			if err := excel.WriteClimateCSV(out, matrix); err != nil {
				return err
			}
			fmt.Printf("synthetic climate (%d years x %d months) written to %s\n", years, months, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&years, "years", 100, "number of years")
	cmd.Flags().IntVar(&months, "months", 12, "number of months")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().StringVar(&out, "out", "climate.csv", "output CSV path")
	return cmd
}

func loadClimate(path string, years, months int, seed int64) (*series.Matrix, error) {
	if path != "" {
		return excel.NewClimateReader(path).ReadMatrix()
	}
	return testkit.SyntheticClimate(rand.New(rand.NewSource(seed)), years, months)
}
