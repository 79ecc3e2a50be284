package cmd

import (
	"fmt"

	"github.com/aleph-zero/stacklab/bench"
	"github.com/aleph-zero/stacklab/stack"
	"github.com/aleph-zero/stacklab/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure push and pop throughput",
	Long:  "Measure push and pop throughput of the manual and managed stacks over several sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		variants := make([]stack.Variant, 0, 2)
		for _, name := range viper.GetStringSlice("bench.variants") {
			v, err := stack.ParseVariant(name)
			if err != nil {
				return err
			}
			variants = append(variants, v)
		}

		shutdown, err := telemetry.New("stacklab-bench", version, telemetry.CollectorURL)
		if err != nil {
			logger.Error("Error initializing telemetry", "error", err)
		} else {
			defer shutdown()
		}

		config := bench.NewConfig(
			bench.WithSizes(viper.GetIntSlice("bench.sizes")),
			bench.WithIterations(viper.GetInt("bench.iterations")),
			bench.WithVariants(variants))
		results, err := bench.Run(cmd.Context(), config)
		if err != nil {
			return fmt.Errorf("running benchmarks: %w", err)
		}
		bench.Print(cmd.OutOrStdout(), results)
		return nil
	},
}

const version = "0.0.1"

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntSlice("bench.sizes", bench.DefaultSizes, "Stack capacities to measure")
	benchCmd.Flags().Int("bench.iterations", bench.DefaultIterations, "Samples per case")
	benchCmd.Flags().StringSlice("bench.variants", []string{"managed", "manual"}, "Stack variants to measure")

	viper.BindPFlag("bench.sizes", benchCmd.Flags().Lookup("bench.sizes"))
	viper.BindPFlag("bench.iterations", benchCmd.Flags().Lookup("bench.iterations"))
	viper.BindPFlag("bench.variants", benchCmd.Flags().Lookup("bench.variants"))
}
