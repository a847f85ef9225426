package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mkurata/teampulse/internal/aggregate"
	"github.com/mkurata/teampulse/internal/domain"
	"github.com/mkurata/teampulse/internal/storage"
)

// ReportQuery selects the report window and source run. Set either
// Year+Quarter or Start+End; leave everything zero for the current
// quarter. RunID selects a specific collection run, default latest.
type ReportQuery struct {
	Year    int
	Quarter int
	Start   time.Time
	End     time.Time
	RunID   string
}

// Performance is the weekly engineer breakdown for a quarter
type Performance struct {
	Weeks     domain.WeeklySeries         `json:"weeks"`
	Engineers []*aggregate.EngineerWeekly `json:"engineers"`
}

// Client is the API client for teampulse
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetReport retrieves the full report summary
func (c *Client) GetReport(q ReportQuery) (*domain.ReportSummary, error) {
	var response struct {
		Data *domain.ReportSummary `json:"data"`
	}
	if err := c.get("/api/v1/report", q.params(), &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetTeams retrieves the per-team roll-ups
func (c *Client) GetTeams(q ReportQuery) ([]*domain.TeamSummary, error) {
	var response struct {
		Data []*domain.TeamSummary `json:"data"`
	}
	if err := c.get("/api/v1/report/teams", q.params(), &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetContributor retrieves one contributor's summary
func (c *Client) GetContributor(name string, q ReportQuery) (*domain.ContributorSummary, error) {
	path := fmt.Sprintf("/api/v1/report/contributors/%s", url.PathEscape(name))

	var response struct {
		Data *domain.ContributorSummary `json:"data"`
	}
	if err := c.get(path, q.params(), &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetPerformance retrieves the weekly engineer breakdown for a quarter
func (c *Client) GetPerformance(q ReportQuery) (*Performance, error) {
	var response struct {
		Data *Performance `json:"data"`
	}
	if err := c.get("/api/v1/performance", q.params(), &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListRuns retrieves recent collection runs
func (c *Client) ListRuns(limit int) ([]*storage.Run, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var response struct {
		Data []*storage.Run `json:"data"`
	}
	if err := c.get("/api/v1/runs", params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (q ReportQuery) params() url.Values {
	params := url.Values{}
	if q.Quarter != 0 {
		params.Set("quarter", strconv.Itoa(q.Quarter))
		if q.Year != 0 {
			params.Set("year", strconv.Itoa(q.Year))
		}
	}
	if !q.Start.IsZero() {
		params.Set("start", q.Start.Format("2006-01-02"))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.Format("2006-01-02"))
	}
	if q.RunID != "" {
		params.Set("run", q.RunID)
	}
	return params
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
