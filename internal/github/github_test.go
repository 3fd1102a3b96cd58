package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New("ghp_test", WithBaseURL(srv.URL))
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestGetIssue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		if r.URL.Path != "/repos/octo/hello/issues/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number":   42,
			"node_id":  "I_42",
			"title":    "Bug in parser",
			"state":    "open",
			"html_url": "https://github.com/octo/hello/issues/42",
			"user":     map[string]any{"login": "octocat"},
			"labels":   []map[string]any{{"name": "bug"}},
			"comments": 3,
		})
	})

	is, err := c.GetIssue(context.Background(), "octo", "hello", 42)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if is.Number != 42 || is.NodeID != "I_42" || is.Author.Login != "octocat" || is.Comments != 3 {
		t.Errorf("unexpected issue: %+v", is)
	}
	if len(is.Labels) != 1 || is.Labels[0] != "bug" {
		t.Errorf("labels = %v", is.Labels)
	}
}

func TestGetIssue_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := c.GetIssue(context.Background(), "octo", "hello", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := FormatError(err); got != "Not Found" {
		t.Errorf("FormatError = %q", got)
	}
}

func TestUpdateIssue_SendsOnlySetFields(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 7, "state": "closed"})
	})

	empty := ""
	state := "closed"
	if _, err := c.UpdateIssue(context.Background(), "octo", "hello", 7, IssueRequest{Body: &empty, State: &state}); err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if v, ok := body["body"]; !ok || v != "" {
		t.Errorf("empty body must be sent as an explicit clear, got %v", body)
	}
	if body["state"] != "closed" {
		t.Errorf("state = %v", body["state"])
	}
	if _, ok := body["title"]; ok {
		t.Errorf("title must be omitted, got %v", body)
	}
}

func TestListIssues_ExcludesPullRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != "all" || q.Get("per_page") != "50" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"number": 1, "title": "issue"},
			{"number": 2, "title": "pr", "pull_request": map[string]any{"url": "x"}},
		})
	})

	issues, err := c.ListIssues(context.Background(), "octo", "hello")
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].Number != 1 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestListRepositories_AuthenticatedAndByUser(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/users/torvalds/repos" && r.URL.Query().Get("type") != "owner" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		owner := "octo"
		if strings.HasPrefix(r.URL.Path, "/users/") {
			owner = "torvalds"
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "linux", "full_name": owner + "/linux", "owner": map[string]any{"login": owner}},
		})
	})
	ctx := context.Background()

	mine, err := c.ListRepositories(ctx, "")
	if err != nil || len(mine) != 1 || mine[0].Owner != "octo" {
		t.Fatalf("own repos = %+v, %v", mine, err)
	}
	theirs, err := c.ListRepositories(ctx, "torvalds")
	if err != nil || len(theirs) != 1 || theirs[0].Owner != "torvalds" || theirs[0].Name != "linux" {
		t.Fatalf("user repos = %+v, %v", theirs, err)
	}
	if len(paths) != 2 || paths[0] != "/user/repos" || paths[1] != "/users/torvalds/repos" {
		t.Fatalf("paths = %v", paths)
	}
}

func TestCreatePullRequest_FromIssue(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number": 9,
			"base":   map[string]any{"label": "octo:main", "ref": "main", "repo": map[string]any{"html_url": "https://github.com/octo/hello"}},
		})
	})

	pr, err := c.CreatePullRequest(context.Background(), "octo", "hello", NewPullRequest{Head: "feat", Base: "main", Issue: 3, Title: "ignored"})
	if err != nil {
		t.Fatalf("CreatePullRequest: %v", err)
	}
	if _, ok := body["title"]; ok {
		t.Errorf("title must not be sent with issue, got %v", body)
	}
	if body["issue"] != float64(3) {
		t.Errorf("issue = %v", body["issue"])
	}
	if pr.Base.HTMLURL != "https://github.com/octo/hello/tree/main" {
		t.Errorf("base url = %q", pr.Base.HTMLURL)
	}
}

func TestFormatError_FieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed","errors":[{"resource":"Issue","code":"missing_field","field":"title"},{"resource":"Label","code":"invalid"}]}`))
	})

	_, err := c.CreateIssue(context.Background(), "octo", "hello", IssueRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Validation Failed\nStatus: 422, Error(s):\n" +
		"> Resource: `Issue`\n> Code: `missing_field`\n> Field: `title`\n\n" +
		"> Resource: `Label`\n> Code: `invalid`"
	if got := FormatError(err); got != want {
		t.Errorf("FormatError =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatError_NoResponse(t *testing.T) {
	if got := FormatError(errors.New("dial tcp: refused")); got != "Operation was not successful" {
		t.Errorf("FormatError = %q", got)
	}
}

func TestListProjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req graphQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["login"] != "octo" || !strings.Contains(req.Query, "projectsV2") {
			t.Errorf("request = %+v", req)
		}
		_, _ = w.Write([]byte(`{"data":{"organization":{"projectsV2":{"nodes":[{"id":"PVT_1","title":"Roadmap"}]}}}}`))
	})

	projects, err := c.ListProjects(context.Background(), "octo")
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "PVT_1" || projects[0].Title != "Roadmap" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestGraphQL_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Could not resolve to a node"}]}`))
	})

	err := c.AddToProject(context.Background(), "PVT_1", "I_1")
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) || gqlErr.Messages[0] != "Could not resolve to a node" {
		t.Fatalf("expected GraphQLError, got %v", err)
	}
}

func TestOAuth(t *testing.T) {
	if NewOAuth("", "secret", "", "") != nil {
		t.Fatal("expected nil OAuth without client id")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/oauth/access_token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_abc","token_type":"bearer"}`))
	}))
	defer srv.Close()

	o := NewOAuth("id", "secret", "https://bot.example/github/callback", srv.URL)
	u, err := url.Parse(o.AuthCodeURL("tok123"))
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("state") != "tok123" || u.Query().Get("client_id") != "id" {
		t.Errorf("auth url = %s", u)
	}

	tok, err := o.Exchange(context.Background(), "code")
	if err != nil || tok != "gho_abc" {
		t.Fatalf("Exchange = %q, %v", tok, err)
	}
}
