package cmd

import (
	"fmt"

	"github.com/ThomasCrouzet/domainforge/internal/render"
	"github.com/ThomasCrouzet/domainforge/internal/ui"
	"github.com/spf13/cobra"
)

var orphansCmd = &cobra.Command{
	Use:   "orphans [infra.yml | infra/]",
	Short: "List generated files that no longer match any domain or machine",
	Long: `List group_vars, host_vars and inventory files whose domain or machine is
no longer defined. Files marked with domain_ephemeral: false or
instance_ephemeral: false are protected and never deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrphans,
}

func init() {
	rootCmd.AddCommand(orphansCmd)
	orphansCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory holding generated files")
}

func runOrphans(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	res, err := runPipeline(cmd.Context(), cfg, newProber(cfg))
	if err != nil {
		return err
	}
	orphans, err := render.FindOrphans(res.Spec, cfg.OutputDir)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		ui.Success("No orphaned files")
		return nil
	}
	fmt.Println(orphanTable(orphans))
	return nil
}

func orphanTable(orphans []render.Orphan) string {
	rows := make([][]string, 0, len(orphans))
	for _, o := range orphans {
		status := "deletable"
		if o.Protected {
			status = "protected"
		}
		rows = append(rows, []string{o.Kind, o.Name, o.Path, status})
	}
	return ui.Table([]string{"KIND", "NAME", "PATH", "STATUS"}, rows)
}
