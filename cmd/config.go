package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configURL      string
	configUsername string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server connection settings",
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the server URL and username",
	RunE:  runConfigSet,
}

var configSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the server password in the system keychain",
	Long:  `Reads the password from stdin and stores it in the platform's secure storage.`,
	RunE:  runConfigSetPassword,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current connection settings",
	RunE:  runConfigShow,
}

func init() {
	configSetCmd.Flags().StringVar(&configURL, "url", "", "server base URL")
	configSetCmd.Flags().StringVar(&configUsername, "username", "", "basic-auth username")

	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetPasswordCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	url := configURL
	if url == "" {
		url = a.conn.URL()
	}
	username := configUsername
	if username == "" {
		username = a.conn.Username()
	}

	if err := a.conn.Configure(url, username); err != nil {
		return err
	}

	cmd.Printf("Server: %s (user %s)\n", url, username)
	return nil
}

func runConfigSetPassword(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := a.conn.SetCredential(strings.TrimRight(password, "\r\n")); err != nil {
		return err
	}

	cmd.Println("Password stored.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	secret, err := a.conn.Credential()
	if err != nil {
		return err
	}

	passwordState := "not set"
	if secret != "" {
		passwordState = "set"
	}

	cmd.Printf("URL:      %s\n", a.conn.URL())
	cmd.Printf("Username: %s\n", a.conn.Username())
	cmd.Printf("Password: %s\n", passwordState)
	return nil
}
