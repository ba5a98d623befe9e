package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/skillflow/internal/flow"
)

var (
	processName string
	processJSON bool
)

var processCmd = &cobra.Command{
	Use:   "process <request>",
	Short: "Turn a request into a new flow",
	Long: `Run a request through the pipeline and write the composed flow.

The request is every argument joined with spaces.

Examples:
  skillflow process "scrape product prices and save them to csv"
  skillflow process --name price_flow "fetch prices from the api"
  skillflow process --json "parse logs and send a report"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processName, "name", "", "Name for the composed flow (default: derived from the request)")
	processCmd.Flags().BoolVar(&processJSON, "json", false, "Print the result as JSON instead of progress lines")
}

func runProcess(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	var reporter flow.Reporter = flow.NewConsoleReporter(cmd.OutOrStdout())
	if processJSON {
		reporter = flow.NopReporter{}
	}
	f, err := e.flow(reporter)
	if err != nil {
		return err
	}

	res, err := f.ProcessNamed(cmd.Context(), strings.Join(args, " "), processName)
	if processJSON && res != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("run failed at %s", res.FailedAt)
	}
	return nil
}
