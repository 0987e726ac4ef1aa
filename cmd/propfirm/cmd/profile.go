package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/profile"
	"github.com/rustyeddy/propfirm/report"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "List, show or export account profiles",
	Long: `Manage prop-firm account profiles.

Subcommands:
  list  - List the built in profiles
  show  - Show the rules of a profile (default: the active one)
  init  - Write a profile to a file for editing

Examples:
  propfirm profile show the5ers_100k_high_stakes
  propfirm profile init -o myfirm.yaml
  propfirm backtest EUR_USD --profile-file myfirm.yaml`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built in profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the rules of a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the active profile to a file",
	Args:  cobra.NoArgs,
	RunE:  runProfileInit,
}

var profileOutput string

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileInitCmd)

	profileInitCmd.Flags().StringVarP(&profileOutput, "output", "o", "profile.yaml", "output profile file path")
}

func runProfileList(cmd *cobra.Command, args []string) error {
	for _, name := range profile.Names() {
		p, err := profile.Lookup(name)
		if err != nil {
			return err
		}
		marker := " "
		if name == acct.Name {
			marker = "*"
		}
		fmt.Printf("%s %-28s %s\n", marker, name, p.DisplayName)
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p := acct
	if len(args) == 1 {
		var err error
		if p, err = profile.Lookup(args[0]); err != nil {
			return err
		}
	}
	fmt.Print(report.Profile(p))
	return nil
}

func runProfileInit(cmd *cobra.Command, args []string) error {
	if err := acct.SaveToFile(profileOutput); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	fmt.Printf("✓ Wrote profile %s to %s\n", acct.Name, profileOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  propfirm --profile-file %s backtest EUR_USD\n", profileOutput)
	return nil
}
