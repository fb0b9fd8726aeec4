// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/beaucronin/image-discerner/internal/evidence"
	"github.com/beaucronin/image-discerner/internal/inference"
)

// bundleFile is the on-disk shape accepted by the analyze command. YAML and
// JSON both parse.
type bundleFile struct {
	Labels   []evidence.VisualLabel `yaml:"labels"`
	Text     string                 `yaml:"text"`
	ImageKey string                 `yaml:"image_key"`
}

func newAnalyzeCommand(rulesFlag, operatorsFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <bundle-file>",
		Short: "Run one fusion pass over an evidence bundle file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(*rulesFlag, *operatorsFlag)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}
			var bf bundleFile
			if err := yaml.Unmarshal(data, &bf); err != nil {
				return fmt.Errorf("parse bundle: %w", err)
			}

			fuser := inference.NewFuser(eng.library, eng.operators)
			entities := inference.FormatEntities(fuser.Fuse(evidence.Bundle{
				Labels: bf.Labels,
				Text:   bf.Text,
				Image:  evidence.ImageMeta{Key: bf.ImageKey},
			}))
			resp := inference.NewResponse(entities, bf.ImageKey, eng.cfg.Provider)

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newRulesCommand(rulesFlag, operatorsFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the loaded pattern library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(*rulesFlag, *operatorsFlag)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tLABELS\tMODE\tBASE")
			for _, r := range eng.library.Rules() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.2f\n",
					r.Name, r.Type, len(r.Labels), r.LabelMode, r.BaseConfidence)
			}
			return w.Flush()
		},
	}
}
