package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ThomasCrouzet/domainforge/internal/ui"
	"github.com/ThomasCrouzet/domainforge/internal/util"
	"github.com/ThomasCrouzet/domainforge/internal/wizard"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter infrastructure spec interactively",
	Long: `Scan the working directory for an existing spec and the incus client,
then write infra.yml (or infra/base.yml and infra/domains/*.yml) through an
interactive wizard.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.Bold("Scanning environment..."))
	detection := wizard.Detect(nil)

	if !detection.IncusAvailable {
		ui.Warn("incus not found in PATH; the generated files need it at provisioning time")
	}

	if detection.Exists() {
		existing := detection.ExistingFile
		if existing == "" {
			existing = detection.ExistingDir + "/"
		}
		overwrite := false
		err := huh.NewConfirm().
			Title(existing + " already exists. Overwrite?").
			Affirmative("Overwrite").
			Negative("Abort").
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Aborted.")
			return nil
		}
	}

	answers, err := wizard.Run(detection)
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	files, err := wizard.Files(*answers)
	if err != nil {
		return fmt.Errorf("generating spec: %w", err)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if _, err := util.WriteFileAtomic(p, []byte(files[p]), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
		ui.Success("Created " + p)
	}

	next := paths[0]
	if answers.SplitLayout {
		next = filepath.Dir(paths[0])
	}

	fmt.Println()
	fmt.Printf("Next step: %s\n", ui.Bold("domainforge generate"))
	fmt.Printf("           %s\n", ui.Hint("or edit "+next+" to add machines, profiles and network policies"))
	return nil
}
