package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Test the connection to the configured server",
	RunE:  runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	cmd.Printf("Checking %s...\n", a.conn.URL())
	if !a.conn.TestConnection(cmd.Context()) {
		return fmt.Errorf("connection failed: %s", a.conn.LastError())
	}

	cmd.Println("Connected.")
	return nil
}
