package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mkurata/teampulse/internal/domain"
	apperrors "github.com/mkurata/teampulse/internal/errors"
	"github.com/mkurata/teampulse/internal/normalize"
)

// TicketFetcher retrieves issue-tracker tickets
type TicketFetcher interface {
	// FetchProject retrieves all tickets of a project updated inside
	// the window, with their status changelogs
	FetchProject(ctx context.Context, project string, win domain.TimeWindow) ([]normalize.RawTicket, error)
}

const jiraPageSize = 100

// jiraFetcher talks to the Jira Cloud REST API v2 using basic auth
type jiraFetcher struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
}

// NewJiraFetcher creates a ticket fetcher for a Jira Cloud site
func NewJiraFetcher(baseURL, email, apiToken string) TicketFetcher {
	return &jiraFetcher{
		baseURL:  baseURL,
		email:    email,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Jira search response shapes, limited to the fields the engine needs

type jiraSearchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []jiraIssue `json:"issues"`
}

type jiraIssue struct {
	Key       string        `json:"key"`
	Fields    jiraFields    `json:"fields"`
	Changelog jiraChangelog `json:"changelog"`
}

type jiraFields struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Status      jiraNamed       `json:"status"`
	Assignee    *jiraUser       `json:"assignee"`
	Project     jiraProjectRef  `json:"project"`
	Components  []jiraNamed     `json:"components"`
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
	Resolved    string          `json:"resolutiondate"`
}

type jiraNamed struct {
	Name string `json:"name"`
}

type jiraUser struct {
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

type jiraProjectRef struct {
	Key string `json:"key"`
}

type jiraChangelog struct {
	Histories []jiraHistory `json:"histories"`
}

type jiraHistory struct {
	Created string            `json:"created"`
	Items   []jiraHistoryItem `json:"items"`
}

type jiraHistoryItem struct {
	Field    string `json:"field"`
	ToString string `json:"toString"`
}

// FetchProject retrieves all tickets of a project updated inside the
// window, paging through the search endpoint until exhausted.
func (f *jiraFetcher) FetchProject(ctx context.Context, project string, win domain.TimeWindow) ([]normalize.RawTicket, error) {
	// The project key is quoted so keys colliding with JQL reserved
	// words still parse
	jql := fmt.Sprintf("project = %q AND updated >= %s AND created < %s ORDER BY created ASC",
		project,
		win.Start.Format("2006-01-02"),
		win.End.Format("2006-01-02"))

	var all []normalize.RawTicket
	startAt := 0

	for {
		page, err := f.search(ctx, jql, startAt)
		if err != nil {
			return nil, apperrors.NewDataFetchError("jira", err)
		}

		for _, issue := range page.Issues {
			all = append(all, toRawTicket(issue))
		}

		startAt += len(page.Issues)
		if startAt >= page.Total || len(page.Issues) == 0 {
			break
		}
	}

	return all, nil
}

func (f *jiraFetcher) search(ctx context.Context, jql string, startAt int) (*jiraSearchResponse, error) {
	query := url.Values{}
	query.Set("jql", jql)
	query.Set("startAt", fmt.Sprintf("%d", startAt))
	query.Set("maxResults", fmt.Sprintf("%d", jiraPageSize))
	query.Set("expand", "changelog")
	query.Set("fields", "summary,description,status,assignee,project,components,created,updated,resolutiondate")

	endpoint := fmt.Sprintf("%s/rest/api/2/search?%s", f.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(f.email, f.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("jira search returned %d: %s", resp.StatusCode, string(body))
	}

	var page jiraSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode jira search response: %w", err)
	}
	return &page, nil
}

// toRawTicket maps one Jira issue to the raw ticket shape. Status
// transitions come from changelog entries whose field is "status".
func toRawTicket(issue jiraIssue) normalize.RawTicket {
	raw := normalize.RawTicket{
		Key:         issue.Key,
		Summary:     issue.Fields.Summary,
		Description: issue.Fields.Description,
		Status:      issue.Fields.Status.Name,
		Project:     issue.Fields.Project.Key,
		Created:     issue.Fields.Created,
		Updated:     issue.Fields.Updated,
		Resolved:    issue.Fields.Resolved,
	}
	if issue.Fields.Assignee != nil {
		raw.Assignee = issue.Fields.Assignee.EmailAddress
		if raw.Assignee == "" {
			raw.Assignee = issue.Fields.Assignee.DisplayName
		}
	}
	for _, component := range issue.Fields.Components {
		raw.Components = append(raw.Components, component.Name)
	}
	for _, history := range issue.Changelog.Histories {
		for _, item := range history.Items {
			if item.Field != "status" {
				continue
			}
			raw.Transitions = append(raw.Transitions, normalize.RawTransition{
				ToStatus: item.ToString,
				At:       history.Created,
			})
		}
	}
	return raw
}
