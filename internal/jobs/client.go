package jobs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL  = "https://api.github.com"
	defaultTimeout  = 10 * time.Second
	defaultPerPage  = 10
	githubMediaType = "application/vnd.github+json"
)

// Listing is one open issue reshaped for the job board.
type Listing struct {
	Title       string   `json:"title"`
	Icon        string   `json:"icon"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"published_at"`
	UpdatedAt   string   `json:"updated_at"`
	Labels      []string `json:"labels"`
	Repository  string   `json:"repository"`
}

// Client fetches open issues from GitHub repositories.
type Client struct {
	http    *resty.Client
	perPage int
}

// NewClient builds a client for baseURL. A non-empty token authenticates
// every request through an oauth2 static token source.
func NewClient(baseURL, token string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	var hc *http.Client
	if token = strings.TrimSpace(token); token != "" {
		hc = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	} else {
		hc = &http.Client{}
	}
	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", githubMediaType).
		SetHeader("X-GitHub-Api-Version", "2022-11-28")
	return &Client{http: rc, perPage: defaultPerPage}
}

// OpenIssues returns the open, non-pull-request issues of repo.
func (c *Client) OpenIssues(ctx context.Context, repo string) ([]Listing, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok {
		return nil, fmt.Errorf("repository %q must be owner/name", repo)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": owner, "name": name}).
		SetQueryParams(map[string]string{
			"state":    "open",
			"per_page": fmt.Sprint(c.perPage),
		}).
		Get("/repos/{owner}/{name}/issues")
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", repo, err)
	}
	if resp.IsError() {
		msg := gjson.GetBytes(resp.Body(), "message").String()
		return nil, fmt.Errorf("fetch %s: status %d: %s", repo, resp.StatusCode(), msg)
	}
	return parseIssues(resp.Body(), repo)
}

func parseIssues(body []byte, repo string) ([]Listing, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parse %s: invalid json", repo)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("parse %s: expected an array", repo)
	}
	out := []Listing{}
	parsed.ForEach(func(_, issue gjson.Result) bool {
		if issue.Get("pull_request").Exists() {
			return true
		}
		labels := []string{}
		for _, l := range issue.Get("labels.#.name").Array() {
			labels = append(labels, l.String())
		}
		out = append(out, Listing{
			Title:       issue.Get("title").String(),
			Icon:        issue.Get("user.avatar_url").String(),
			URL:         issue.Get("html_url").String(),
			PublishedAt: issue.Get("created_at").String(),
			UpdatedAt:   issue.Get("updated_at").String(),
			Labels:      labels,
			Repository:  repo,
		})
		return true
	})
	return out, nil
}
