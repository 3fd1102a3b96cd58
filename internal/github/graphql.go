package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQLError carries the messages of a GraphQL response with errors.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// GraphQL posts query to the v4 endpoint and decodes "data" into out.
func (c *Client) GraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	req, err := c.gh.NewRequest("POST", "graphql", graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("building graphql request: %w", err)
	}
	var resp graphQLResponse
	if _, err := c.gh.Do(ctx, req, &resp); err != nil {
		return wrap("graphql", err)
	}
	if len(resp.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range resp.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return gqlErr
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decoding graphql data: %w", err)
	}
	return nil
}

const projectsQuery = `query($login: String!) {
  organization(login: $login) {
    projectsV2(first: 100) {
      nodes { id title }
    }
  }
}`

const addProjectItemMutation = `mutation($project: ID!, $content: ID!) {
  addProjectV2ItemById(input: {projectId: $project, contentId: $content}) {
    item { id }
  }
}`

// ListProjects returns the Projects V2 boards of an organization.
func (c *Client) ListProjects(ctx context.Context, org string) ([]Project, error) {
	var data struct {
		Organization *struct {
			ProjectsV2 struct {
				Nodes []Project `json:"nodes"`
			} `json:"projectsV2"`
		} `json:"organization"`
	}
	if err := c.GraphQL(ctx, projectsQuery, map[string]any{"login": org}, &data); err != nil {
		return nil, err
	}
	if data.Organization == nil {
		return nil, nil
	}
	return data.Organization.ProjectsV2.Nodes, nil
}

// AddToProject adds an issue or pull request (by node id) to a project.
func (c *Client) AddToProject(ctx context.Context, projectID, contentID string) error {
	if projectID == "" || contentID == "" {
		return errors.New("github: project and content ids are required")
	}
	return c.GraphQL(ctx, addProjectItemMutation, map[string]any{
		"project": projectID,
		"content": contentID,
	}, nil)
}
