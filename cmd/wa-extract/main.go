package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wa-extract/internal/app"
	"wa-extract/internal/infra/config"
)

var version = "0.1.0-dev"

type flags struct {
	configPath string
	msgstore   string
	contactsDB string
	output     string
	runConfig  string
	dryRun     bool
	dedupe     bool
	logLevel   string
}

func main() {
	var f flags

	rootCmd := &cobra.Command{
		Use:           "wa-extract",
		Short:         "Extract WhatsApp messages into a CSV file and a SQL table",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			f.apply(cmd, cfg)

			application, err := app.New(cfg)
			if err != nil {
				return err
			}
			_, err = application.Run(context.Background(), cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}

	pf := rootCmd.Flags()
	pf.StringVar(&f.configPath, "config", "", "Settings file (.json, .yaml or .yml)")
	pf.StringVar(&f.msgstore, "msgstore", "", "Path to msgstore.db")
	pf.StringVar(&f.contactsDB, "contacts-db", "", "Path to wa.db")
	pf.StringVar(&f.output, "output", "", "CSV output path")
	pf.StringVar(&f.runConfig, "run-config", "", "Run metadata file (cliente/estado/municipio)")
	pf.BoolVar(&f.dryRun, "dry-run", false, "Write the CSV only, skip the SQL table")
	pf.BoolVar(&f.dedupe, "dedupe", false, "Skip rows already present in the SQL table")
	pf.StringVar(&f.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// apply copies explicitly set flags over the loaded settings.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("msgstore") {
		cfg.MsgStorePath = f.msgstore
	}
	if set("contacts-db") {
		cfg.ContactsDBPath = f.contactsDB
	}
	if set("output") {
		cfg.OutputPath = f.output
	}
	if set("run-config") {
		cfg.RunConfigPath = f.runConfig
	}
	if set("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if set("dedupe") {
		cfg.Sink.Dedupe = f.dedupe
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
}
