package api

import (
	"context"

	"github.com/satchelhq/satchel/pkg/chat"
)

func (c *Client) GetProjects(ctx context.Context) ([]chat.Project, error) {
	var serverProjects []chat.ServerProject
	if err := c.do(ctx, "GET", "/project", nil, &serverProjects); err != nil {
		return nil, err
	}

	projects := make([]chat.Project, len(serverProjects))
	for i, p := range serverProjects {
		projects[i] = p.ToProject()
	}
	return projects, nil
}

func (c *Client) GetCurrentProject(ctx context.Context) (chat.Project, error) {
	var serverProject chat.ServerProject
	if err := c.do(ctx, "GET", "/project/current", nil, &serverProject); err != nil {
		return chat.Project{}, err
	}
	return serverProject.ToProject(), nil
}
