package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meltforce/freelift/internal/analytics"
)

type volumeInput struct {
	Sets []analytics.LoggedSet `json:"sets" yaml:"sets"`
}

type progressionInput struct {
	Performance analytics.ExercisePerformance `json:"performance" yaml:"performance"`
	Sessions    []analytics.Session           `json:"sessions" yaml:"sessions"`
}

type deloadInput struct {
	Sessions   []analytics.Session `json:"sessions" yaml:"sessions"`
	WindowDays int                 `json:"window_days" yaml:"window_days"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "freelift-analyze",
		Short: "Run FreeLift training analytics over local files",
		Long: `Run the FreeLift analytics engine over YAML or JSON input files.

The input format is picked by file extension (.yaml, .yml or .json);
"-" reads JSON from stdin. Results are printed as indented JSON.

Examples:
  freelift-analyze estimate --weight 135 --reps 5
  freelift-analyze volume sets.yaml
  freelift-analyze progression squat.json
  freelift-analyze recovery checkin.yaml
  freelift-analyze deload bench.yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newEstimateCmd(),
		newVolumeCmd(),
		newProgressionCmd(),
		newRecoveryCmd(),
		newDeloadCmd(),
	)
	return root
}

func newEstimateCmd() *cobra.Command {
	var weight float64
	var reps int
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate a one-rep max from weight and reps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := analytics.Estimate1RM(weight, reps)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]float64{"estimated_1rm": v})
		},
	}
	cmd.Flags().Float64Var(&weight, "weight", 0, "load lifted")
	cmd.Flags().IntVar(&reps, "reps", 0, "repetitions completed")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("reps")
	return cmd
}

func newVolumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volume <file>",
		Short: "Summarise volume and intensity of a list of sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in volumeInput
			if err := readInput(cmd.InOrStdin(), args[0], &in); err != nil {
				return err
			}
			v, err := analytics.CalculateVolume(in.Sets)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newProgressionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progression <file>",
		Short: "Recommend the next session for an exercise",
		Long:  "Recommend the next session for an exercise. Sessions are listed most recent first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in progressionInput
			if err := readInput(cmd.InOrStdin(), args[0], &in); err != nil {
				return err
			}
			rec, err := analytics.CalculateProgression(in.Performance, in.Sessions)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newRecoveryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recovery <file>",
		Short: "Score readiness from a recovery check-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in analytics.RecoveryInput
			if err := readInput(cmd.InOrStdin(), args[0], &in); err != nil {
				return err
			}
			m, err := analytics.CalculateRecoveryScore(in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
}

func newDeloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deload <file>",
		Short: "Check recent sessions for signs a deload is needed",
		Long:  "Check recent sessions for signs a deload is needed. Sessions are listed most recent first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := deloadInput{WindowDays: analytics.DefaultDeloadWindowDays}
			if err := readInput(cmd.InOrStdin(), args[0], &in); err != nil {
				return err
			}
			a, err := analytics.DetectDeloadNeed(in.Sessions, in.WindowDays)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}
}

// readInput decodes path into v, choosing YAML or JSON by extension.
func readInput(stdin io.Reader, path string, v any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	case ".json", "":
		err = json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported input format %q (use .yaml, .yml or .json)", ext)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
