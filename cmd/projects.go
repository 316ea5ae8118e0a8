package cmd

import (
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the server's projects",
	RunE:  runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	projects, err := a.client.GetProjects(cmd.Context())
	if err != nil {
		return err
	}

	current, err := a.client.GetCurrentProject(cmd.Context())
	if err != nil {
		// The current-project marker is cosmetic; the list still renders
		current.ID = ""
	}

	for _, project := range projects {
		marker := "  "
		if project.ID == current.ID {
			marker = "* "
		}
		cmd.Printf("%s%s  %s\n", marker, project.Name, project.Directory)
	}
	return nil
}
