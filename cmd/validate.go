package cmd

import (
	"fmt"

	"github.com/ThomasCrouzet/domainforge/internal/ui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [infra.yml | infra/]",
	Short: "Validate the infrastructure spec without writing anything",
	Long: `Run every validation rule against the merged spec and print the errors
and advisory warnings. Exits non-zero when any error is found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	fmt.Println(ui.Bold("Validating " + cfg.Input + "..."))
	res, err := runPipeline(cmd.Context(), cfg, newProber(cfg))
	if err != nil {
		return err
	}

	fmt.Println()
	if err := res.report(); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("%d domains, %d machines: no errors, %d warnings",
		len(res.Spec.Domains), len(res.Spec.Machines()), len(res.Warnings)))
	return nil
}
