package cmd

import (
	"fmt"
	"os"

	"github.com/ThomasCrouzet/domainforge/internal/config"
	"github.com/ThomasCrouzet/domainforge/internal/render"
	"github.com/ThomasCrouzet/domainforge/internal/ui"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	outputDir    string
	cleanOrphans bool
	assumeYes    bool
	dryRun       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [infra.yml | infra/]",
	Short: "Generate Ansible group_vars, host_vars and inventory",
	Long: `Load the infrastructure spec, derive addresses, devices and resource
limits, validate everything, then write the managed block of each output
file. Files whose content would not change are left untouched.

Nothing is written when validation fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory receiving group_vars/, host_vars/ and inventory/")
	generateCmd.Flags().BoolVar(&cleanOrphans, "clean-orphans", false, "delete output files of removed domains and machines")
	generateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask before deleting orphans")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without writing")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	fmt.Println(ui.Bold("Compiling " + cfg.Input + "..."))
	res, err := runPipeline(cmd.Context(), cfg, newProber(cfg))
	if err != nil {
		return err
	}
	if err := res.report(); err != nil {
		return err
	}

	result, err := render.Generate(res.Spec, render.Options{
		OutputDir: cfg.OutputDir,
		DryRun:    dryRun,
		Context:   res.Context,
	})
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to write output", err.Error(), ""))
		return err
	}

	verb := "Wrote"
	if dryRun {
		verb = "Would write"
		for _, f := range result.Written {
			fmt.Println("  " + f)
		}
	}
	ui.Success(fmt.Sprintf("%s %d files (%d unchanged) in %s", verb, len(result.Written), len(result.Unchanged), cfg.OutputDir))

	return handleOrphans(res, cfg)
}

func handleOrphans(res *pipelineResult, cfg *config.Config) error {
	orphans, err := render.FindOrphans(res.Spec, cfg.OutputDir)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println(orphanTable(orphans))
	if !cfg.CleanOrphans || dryRun {
		fmt.Println(ui.Hint("run with --clean-orphans to delete unprotected files"))
		return nil
	}

	if !assumeYes {
		confirm := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %d orphaned files?", countDeletable(orphans))).
			Affirmative("Delete").
			Negative("Keep").
			Value(&confirm).
			Run()
		if err != nil {
			return err
		}
		if !confirm {
			fmt.Println("Kept orphaned files.")
			return nil
		}
	}

	deleted, err := render.DeleteOrphans(orphans)
	for _, p := range deleted {
		fmt.Println(ui.Dim("  deleted " + p))
	}
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to delete orphan", err.Error(), ""))
		return err
	}
	ui.Success(fmt.Sprintf("Deleted %d orphaned files", len(deleted)))
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if cleanOrphans {
		cfg.CleanOrphans = true
	}
}

func countDeletable(orphans []render.Orphan) int {
	n := 0
	for _, o := range orphans {
		if !o.Protected {
			n++
		}
	}
	return n
}
