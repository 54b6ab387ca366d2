package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/signedstore/internal/harness"
)

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// ScenarioReport holds the overall result of a scenario run.
type ScenarioReport struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r ScenarioReport) String() string {
	var b strings.Builder
	for _, s := range r.Scenarios {
		status := "PASS"
		if !s.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%s %s\n", status, s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	fmt.Fprintf(&b, "%d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
	return b.String()
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "scenario <file-or-dir>...",
		Short: "Run YAML conformance scenarios",
		Long: `Run conformance scenarios against a fresh database each.

Every scenario signs its requests with deterministic wallets and runs on a
frozen clock that only advance steps move.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable files, invalid scenarios)

Examples:
  signedstore scenario ./scenarios
  signedstore scenario ./scenarios --filter "like_*"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			files, err := findScenarioFiles(args, filter)
			if err != nil {
				return formatter.Fail(err)
			}

			tmp, err := os.MkdirTemp("", "signedstore-scenario-")
			if err != nil {
				return formatter.Fail(err)
			}
			defer os.RemoveAll(tmp)

			report := ScenarioReport{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
			for i, file := range files {
				sc, err := harness.LoadScenario(file)
				if err != nil {
					return formatter.Fail(fmt.Errorf("%s: %w", file, err))
				}
				formatter.VerboseLog("running %s (%s)", sc.Name, file)

				result, err := harness.Run(cmd.Context(), sc, filepath.Join(tmp, fmt.Sprintf("%d.db", i)))
				if err != nil {
					return formatter.Fail(fmt.Errorf("%s: %w", sc.Name, err))
				}
				report.Scenarios = append(report.Scenarios, ScenarioResult{
					Name:   sc.Name,
					Pass:   result.Pass,
					Errors: result.Errors,
				})
				if result.Pass {
					report.Passed++
				} else {
					report.Failed++
				}
			}

			if err := formatter.Success(report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter scenarios by glob pattern on the file name")
	return cmd
}

// findScenarioFiles expands directories to their YAML files, sorted.
func findScenarioFiles(paths []string, filter string) ([]string, error) {
	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}
			if filter != "" {
				name := strings.TrimSuffix(filepath.Base(path), ext)
				matched, err := filepath.Match(filter, name)
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
				if !matched {
					return nil
				}
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
