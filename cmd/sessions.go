package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satchelhq/satchel/pkg/render"
)

var sessionsDirectory string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions",
	RunE:  runSessions,
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a new chat session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionsNew,
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsRm,
}

func init() {
	sessionsCmd.PersistentFlags().StringVar(&sessionsDirectory, "directory", "", "filter sessions by project directory")
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsRmCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	a.store.LoadSessions(cmd.Context(), sessionsDirectory)
	if errMsg := a.store.Err(); errMsg != "" {
		return fmt.Errorf("failed to load sessions: %s", errMsg)
	}

	formatter := render.NewFormatter(terminalWidth())
	for _, session := range a.store.Sessions() {
		cmd.Println(formatter.FormatSessionLine(session))
	}
	return nil
}

func runSessionsNew(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	title := ""
	if len(args) > 0 {
		title = args[0]
	}

	id, err := a.store.CreateSession(cmd.Context(), title, sessionsDirectory)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	cmd.Println(id)
	return nil
}

func runSessionsRm(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	a.store.DeleteSession(cmd.Context(), args[0])
	if errMsg := a.store.Err(); errMsg != "" {
		return fmt.Errorf("failed to delete session: %s", errMsg)
	}

	cmd.Println("Deleted.")
	return nil
}
