package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tabscan/internal/output"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect prompt templates and local overrides",
	Long: `Prompts are embedded templates. Placing <key>.tmpl in the home prompts
directory overrides one; an override that fails to parse is ignored.`,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt keys with their effective source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		type entry struct {
			Key       string   `json:"key" yaml:"key"`
			Hash      string   `json:"hash" yaml:"hash"`
			Override  bool     `json:"override" yaml:"override"`
			Path      string   `json:"path,omitempty" yaml:"path,omitempty"`
			Variables []string `json:"variables,omitempty" yaml:"variables,omitempty"`
		}
		var entries []entry
		for _, p := range e.prompts.AllEmbedded() {
			resolved, err := e.prompts.Resolve(p.Key)
			if err != nil {
				return err
			}
			entries = append(entries, entry{
				Key:       resolved.Key,
				Hash:      resolved.Hash[:12],
				Override:  resolved.IsOverride,
				Path:      resolved.Path,
				Variables: resolved.Variables,
			})
		}
		return output.Print(entries)
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show KEY",
	Short: "Print the effective text of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		resolved, err := e.prompts.Resolve(args[0])
		if err != nil {
			return err
		}
		fmt.Print(resolved.Text)
		return nil
	},
}

func init() {
	promptsCmd.AddCommand(promptsListCmd, promptsShowCmd)
	rootCmd.AddCommand(promptsCmd)
}
