package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/ThomasCrouzet/domainforge/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	verbose    bool
	offline    bool
	contextDir string
)

var rootCmd = &cobra.Command{
	Use:   "domainforge",
	Short: "Compile an infrastructure spec into Ansible variables for Incus",
	Long: `domainforge reads a declarative description of containers and VMs grouped
into trust-level domains, derives subnets, addresses, device mounts and
resource limits, validates the result, and writes group_vars, host_vars and
inventory files for the provisioning playbooks.

Only the managed block of each generated file is rewritten; anything you add
around it is kept.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := viper.GetString("log_level")
		if verbose {
			level = "debug"
		}
		logging.Init(level)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: domainforge.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "skip host resource and network probes")
	rootCmd.PersistentFlags().StringVar(&contextDir, "context-dir", "", "directory holding nesting context files (default: /etc/domainforge)")
}

func initConfig() {
	// A missing .env is normal.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error reading .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("domainforge")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("DOMAINFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}
