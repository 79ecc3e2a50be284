package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aleph-zero/stacklab/differential"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Cross-check both stacks against a byte stream",
	Long: `Decode a byte stream into push and pop operations, apply them to a manual and a
managed stack in lockstep, and report any step where they disagree. Reads stdin
when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("reading replay input: %w", err)
		}

		capacity := viper.GetInt("replay.capacity")
		report, err := differential.Replay[uint8](data, capacity)
		var mismatch *differential.MismatchError
		if errors.As(err, &mismatch) {
			logger.Error("Stack variants diverged", "step", mismatch.Step, "bytes", len(data))
			fmt.Fprintln(cmd.OutOrStdout(), differential.Colourise(report.Unified()))
			return err
		}
		if err != nil {
			return err
		}

		s := report.Summary()
		logger.Info("Replay complete", "bytes", len(data), "capacity", capacity, "steps", s.Steps)
		fmt.Fprintf(cmd.OutOrStdout(), "equivalent: %d steps, %d pushes (%d skipped at capacity), %d pops, %d empty pops, max len %d\n",
			s.Steps, s.Pushes, s.Skipped, s.Pops, s.Empty, s.MaxLen)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Int("replay.capacity", 256, "Capacity of both stacks")

	viper.BindPFlag("replay.capacity", replayCmd.Flags().Lookup("replay.capacity"))
}
