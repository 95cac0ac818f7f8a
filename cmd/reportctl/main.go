// Package main provides the CLI entrypoint for reportctl.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bionicpro/reports-platform/internal/tui"
	"github.com/bionicpro/reports-platform/pkg/client"
)

var (
	authBaseURL string
	apiBaseURL  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Terminal frontend for BionicPRO usage reports",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&authBaseURL, "auth-url", client.DefaultAuthBaseURL, "auth service base URL")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", client.DefaultAPIBaseURL, "reports API base URL")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())

	return rootCmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	api, err := newClient()
	if err != nil {
		return err
	}

	program := tea.NewProgram(tui.NewModel(api), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}

// Login and logout happen in the browser; the CLI only prints the
// navigation targets.
func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Print the browser login URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newClient()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), api.LoginURL())
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Print the browser logout URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := newClient()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), api.LogoutURL())
			return nil
		},
	}
}

func newClient() (*client.Client, error) {
	return client.New(client.Config{
		AuthBaseURL: authBaseURL,
		APIBaseURL:  apiBaseURL,
	})
}
