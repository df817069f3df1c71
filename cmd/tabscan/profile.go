package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tabscan/internal/imagesrc"
	"github.com/jackzampolin/tabscan/internal/output"
	"github.com/jackzampolin/tabscan/internal/profile"
)

var (
	profileSave     string
	profileOut      string
	profileBase     string
	profileFeedback string
)

type profileResult struct {
	Profile *profile.Profile `json:"profile" yaml:"profile"`
	Path    string           `json:"path,omitempty" yaml:"path,omitempty"`
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Derive, refine and list prompt profiles",
	Long: `A prompt profile describes a table layout: the header row, what each
column holds, and which rows to skip. Derive one from a sample image, refine it
with feedback, and reuse it with --profile.`,
}

var profileDeriveCmd = &cobra.Command{
	Use:   "derive IMAGE",
	Short: "Derive a profile from a sample image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		img, err := imagesrc.Load(args[0])
		if err != nil {
			return err
		}
		d, err := e.deriver()
		if err != nil {
			return err
		}

		p, err := d.Derive(cmd.Context(), img)
		if err != nil {
			return err
		}
		path, err := e.saveProfile(p, profileSave, profileOut)
		if err != nil {
			return err
		}
		return output.Print(profileResult{Profile: p, Path: path})
	},
}

var profileRefineCmd = &cobra.Command{
	Use:   "refine IMAGE",
	Short: "Revise a profile using feedback",
	Long: `Send the image, the current profile and your feedback to the model and
receive a revised profile. Empty feedback returns the profile unchanged.

Example:
  tabscan profile refine page.png --profile ledger \
    --feedback "the last column is Balance, skip the carried-forward row" --save ledger`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileBase == "" {
			return fmt.Errorf("--profile is required")
		}
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		base, err := e.loadProfile(profileBase)
		if err != nil {
			return err
		}
		img, err := imagesrc.Load(args[0])
		if err != nil {
			return err
		}
		d, err := e.deriver()
		if err != nil {
			return err
		}

		p, err := d.Refine(cmd.Context(), img, base, profileFeedback)
		if err != nil {
			return err
		}
		path, err := e.saveProfile(p, profileSave, profileOut)
		if err != nil {
			return err
		}
		return output.Print(profileResult{Profile: p, Path: path})
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		names, err := e.home.ListProfiles()
		if err != nil {
			return err
		}

		type entry struct {
			Name    string `json:"name" yaml:"name"`
			Columns int    `json:"columns" yaml:"columns"`
			Headers string `json:"headers" yaml:"headers"`
			Error   string `json:"error,omitempty" yaml:"error,omitempty"`
		}
		entries := make([]entry, 0, len(names))
		for _, name := range names {
			en := entry{Name: name}
			if p, err := e.loadProfile(name); err != nil {
				en.Error = err.Error()
			} else {
				en.Columns = p.ColumnCount
				en.Headers = strings.Join(p.Headers, ", ")
			}
			entries = append(entries, en)
		}
		return output.Print(entries)
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		p, err := e.loadProfile(args[0])
		if err != nil {
			return err
		}
		return output.Print(p)
	},
}

func init() {
	for _, c := range []*cobra.Command{profileDeriveCmd, profileRefineCmd} {
		c.Flags().StringVar(&profileSave, "save", "", "save under this name in the home profiles directory")
		c.Flags().StringVar(&profileOut, "out", "", "write the profile to this file (.yaml or .json)")
	}
	profileRefineCmd.Flags().StringVar(&profileBase, "profile", "", "profile file or saved profile name to refine")
	profileRefineCmd.Flags().StringVar(&profileFeedback, "feedback", "", "what to change")

	profileCmd.AddCommand(profileDeriveCmd, profileRefineCmd, profileListCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
