// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beaucronin/image-discerner/internal/config"
	"github.com/beaucronin/image-discerner/internal/evidence"
	"github.com/beaucronin/image-discerner/internal/inference"
)

const version = "0.1.0"

func newRootCommand() *cobra.Command {
	var rulesFlag string
	var operatorsFlag string

	rootCmd := &cobra.Command{
		Use:           "discerner",
		Short:         "Scene evidence fusion engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&rulesFlag, "rules", "", "Path to a YAML pattern library (replaces built-in rules)")
	rootCmd.PersistentFlags().StringVar(&operatorsFlag, "operators", "", "Path to a YAML operator trigger table (replaces built-ins)")

	rootCmd.AddCommand(newServeCommand(&rulesFlag, &operatorsFlag))
	rootCmd.AddCommand(newAnalyzeCommand(&rulesFlag, &operatorsFlag))
	rootCmd.AddCommand(newRulesCommand(&rulesFlag, &operatorsFlag))

	return rootCmd
}

// engine is the assembled read-only fusion engine configuration.
type engine struct {
	cfg       *config.Config
	library   *inference.Library
	operators []evidence.OperatorDef
}

// buildEngine loads configuration and the rule/operator tables. Flags win
// over environment paths; a malformed table is fatal here, before anything
// serves.
func buildEngine(rulesFlag, operatorsFlag string) (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	rulesPath := cfg.RulesPath
	if rulesFlag != "" {
		rulesPath = rulesFlag
	}
	operatorsPath := cfg.OperatorsPath
	if operatorsFlag != "" {
		operatorsPath = operatorsFlag
	}

	lib := inference.DefaultLibrary()
	if rulesPath != "" {
		if lib, err = inference.LoadLibrary(rulesPath); err != nil {
			return nil, err
		}
	}
	operators := evidence.DefaultOperators()
	if operatorsPath != "" {
		if operators, err = evidence.LoadOperators(operatorsPath); err != nil {
			return nil, err
		}
	}

	return &engine{cfg: cfg, library: lib, operators: operators}, nil
}
