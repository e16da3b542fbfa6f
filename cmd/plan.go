package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/powerplant/api/productionplan"
	"github.com/kilianp07/powerplant/core/dispatch"
	"github.com/kilianp07/powerplant/infra/logger"
)

var (
	payloadPath string
	strict      bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a production plan for a payload file",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&payloadPath, "payload", "p", "-", "payload file, - for stdin")
	planCmd.Flags().BoolVar(&strict, "strict", false, "fail when the load cannot be met")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	logg := logger.New("plan-command")

	var in io.Reader = cmd.InOrStdin()
	if payloadPath != "-" {
		f, err := os.Open(payloadPath)
		if err != nil {
			return fmt.Errorf("open payload: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var req productionplan.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	load, fuels, plants, err := req.ToModel()
	if err != nil {
		return err
	}

	plan, err := dispatch.NewMeritOrderDispatcher().Dispatch(load, fuels, plants)
	var infeasible *dispatch.InfeasibleError
	if err != nil && !errors.As(err, &infeasible) {
		return err
	}
	if infeasible != nil {
		logg.Warnf("%v", infeasible)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(productionplan.FromPlan(plan)); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	if infeasible != nil && strict {
		return infeasible
	}
	return nil
}
