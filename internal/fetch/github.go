// Package fetch retrieves raw activity data from external sources.
// Fetchers return the raw record shapes from the normalize package;
// any failure to reach a source is reported as a data fetch error and
// aborts the run.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/mkurata/teampulse/internal/domain"
	apperrors "github.com/mkurata/teampulse/internal/errors"
	"github.com/mkurata/teampulse/internal/normalize"
)

// GitHubFetcher retrieves pull request and commit activity
type GitHubFetcher interface {
	// FetchPullRequests retrieves pull requests created inside the
	// window, with reviews and review comments attached
	FetchPullRequests(ctx context.Context, org, repo string, win domain.TimeWindow) ([]normalize.RawPullRequest, error)

	// FetchCommits retrieves commits authored inside the window
	FetchCommits(ctx context.Context, org, repo string, win domain.TimeWindow) ([]normalize.RawCommit, error)

	// FetchRepositories retrieves all repository activity for the
	// window across the given repos
	FetchRepositories(ctx context.Context, org string, repos []string, win domain.TimeWindow, onProgress ProgressCallback) (*normalize.RawBatch, error)
}

// ProgressCallback reports per-repository fetch progress
type ProgressCallback func(repo string, progress float64)

// maxConcurrentRepos bounds parallel repository fetches
const maxConcurrentRepos = 5

type githubFetcher struct {
	client  *github.Client
	limiter *Limiter
}

// NewGitHubFetcher creates a fetcher authenticated with a token
func NewGitHubFetcher(token string) GitHubFetcher {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &githubFetcher{
		client:  github.NewClient(tc),
		limiter: NewLimiter(),
	}
}

// FetchPullRequests retrieves pull requests created inside the window.
// PRs are listed newest first, so listing stops at the first PR created
// before the window start.
func (f *githubFetcher) FetchPullRequests(ctx context.Context, org, repo string, win domain.TimeWindow) ([]normalize.RawPullRequest, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var all []normalize.RawPullRequest
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		prs, resp, err := f.client.PullRequests.List(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", org, repo, err)
		}
		f.observe(resp)

		for _, pr := range prs {
			createdAt := pr.GetCreatedAt().Time
			if createdAt.Before(win.Start) {
				// Sorted by created desc, nothing older can match
				return all, nil
			}
			if !win.Contains(createdAt) {
				continue
			}

			raw, err := f.fetchPullRequestDetail(ctx, org, repo, pr)
			if err != nil {
				return nil, err
			}
			all = append(all, raw)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return all, nil
}

// fetchPullRequestDetail fills in line stats, reviews, review comments,
// and the first commit timestamp for one pull request.
func (f *githubFetcher) fetchPullRequestDetail(ctx context.Context, org, repo string, pr *github.PullRequest) (normalize.RawPullRequest, error) {
	raw := normalize.RawPullRequest{
		Repo:      fmt.Sprintf("%s/%s", org, repo),
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.User.GetLogin(),
		State:     pr.GetState(),
		CreatedAt: pr.GetCreatedAt().Format(time.RFC3339),
		UpdatedAt: pr.GetUpdatedAt().Format(time.RFC3339),
	}
	if pr.ClosedAt != nil {
		raw.ClosedAt = pr.ClosedAt.Format(time.RFC3339)
	}
	if pr.MergedAt != nil {
		raw.Merged = true
		raw.MergedAt = pr.MergedAt.Format(time.RFC3339)
	}

	// The list endpoint omits line stats, fetch the full PR
	if err := f.limiter.Wait(ctx); err != nil {
		return raw, err
	}
	detail, resp, err := f.client.PullRequests.Get(ctx, org, repo, pr.GetNumber())
	if err != nil {
		return raw, fmt.Errorf("failed to get pull request %s/%s#%d: %w", org, repo, pr.GetNumber(), err)
	}
	f.observe(resp)
	raw.Additions = detail.GetAdditions()
	raw.Deletions = detail.GetDeletions()
	if detail.GetMerged() {
		raw.Merged = true
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return raw, err
	}
	reviews, resp, err := f.client.PullRequests.ListReviews(ctx, org, repo, pr.GetNumber(), &github.ListOptions{PerPage: 100})
	if err != nil {
		return raw, fmt.Errorf("failed to list reviews for %s/%s#%d: %w", org, repo, pr.GetNumber(), err)
	}
	f.observe(resp)
	for _, rv := range reviews {
		raw.Reviews = append(raw.Reviews, normalize.RawReview{
			Reviewer:    rv.User.GetLogin(),
			State:       rv.GetState(),
			SubmittedAt: rv.GetSubmittedAt().Format(time.RFC3339),
		})
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return raw, err
	}
	comments, resp, err := f.client.PullRequests.ListComments(ctx, org, repo, pr.GetNumber(), &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return raw, fmt.Errorf("failed to list review comments for %s/%s#%d: %w", org, repo, pr.GetNumber(), err)
	}
	f.observe(resp)
	for _, cm := range comments {
		raw.ReviewComments = append(raw.ReviewComments, normalize.RawComment{
			Author:    cm.User.GetLogin(),
			CreatedAt: cm.GetCreatedAt().Format(time.RFC3339),
		})
	}

	// First commit timestamp anchors lead time
	if err := f.limiter.Wait(ctx); err != nil {
		return raw, err
	}
	commits, resp, err := f.client.PullRequests.ListCommits(ctx, org, repo, pr.GetNumber(), &github.ListOptions{PerPage: 100})
	if err != nil {
		return raw, fmt.Errorf("failed to list commits for %s/%s#%d: %w", org, repo, pr.GetNumber(), err)
	}
	f.observe(resp)
	var first time.Time
	for _, ct := range commits {
		if ct.Commit == nil || ct.Commit.Author == nil {
			continue
		}
		at := ct.Commit.Author.GetDate().Time
		if first.IsZero() || at.Before(first) {
			first = at
		}
	}
	if !first.IsZero() {
		raw.FirstCommitAt = first.Format(time.RFC3339)
	}

	return raw, nil
}

// FetchCommits retrieves commits authored inside the window
func (f *githubFetcher) FetchCommits(ctx context.Context, org, repo string, win domain.TimeWindow) ([]normalize.RawCommit, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var all []normalize.RawCommit
	opts := &github.CommitsListOptions{
		Since:       win.Start,
		Until:       win.End,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		commits, resp, err := f.client.Repositories.ListCommits(ctx, org, repo, opts)
		if err != nil {
			// Empty repositories respond with 409
			if resp != nil && resp.StatusCode == 409 {
				return all, nil
			}
			return nil, fmt.Errorf("failed to list commits for %s/%s: %w", org, repo, err)
		}
		f.observe(resp)

		for _, commit := range commits {
			author := ""
			if commit.Author != nil {
				author = commit.Author.GetLogin()
			} else if commit.Commit != nil && commit.Commit.Author != nil {
				author = commit.Commit.Author.GetName()
			}

			var authoredAt time.Time
			if commit.Commit != nil && commit.Commit.Author != nil {
				authoredAt = commit.Commit.Author.GetDate().Time
			}
			// An undated commit also falls outside the window
			if !win.Contains(authoredAt) {
				continue
			}

			// The list endpoint omits line stats, fetch each commit
			additions, deletions, filesChanged := 0, 0, 0
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			detail, detailResp, err := f.client.Repositories.GetCommit(ctx, org, repo, commit.GetSHA(), nil)
			if err == nil {
				f.observe(detailResp)
				if detail.Stats != nil {
					additions = detail.Stats.GetAdditions()
					deletions = detail.Stats.GetDeletions()
				}
				filesChanged = len(detail.Files)
			}

			all = append(all, normalize.RawCommit{
				Repo:         fmt.Sprintf("%s/%s", org, repo),
				Sha:          commit.GetSHA(),
				Author:       author,
				Message:      commit.Commit.GetMessage(),
				AuthoredAt:   authoredAt.Format(time.RFC3339),
				Additions:    additions,
				Deletions:    deletions,
				FilesChanged: filesChanged,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return all, nil
}

// FetchRepositories fetches all repos concurrently and combines the
// results into a single batch. The first repository failure aborts
// the whole run.
func (f *githubFetcher) FetchRepositories(ctx context.Context, org string, repos []string, win domain.TimeWindow, onProgress ProgressCallback) (*normalize.RawBatch, error) {
	batch := &normalize.RawBatch{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, len(repos))

	semaphore := make(chan struct{}, maxConcurrentRepos)

	for i, repo := range repos {
		wg.Add(1)
		go func(repo string, index int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			prs, err := f.FetchPullRequests(ctx, org, repo, win)
			if err != nil {
				errCh <- err
				return
			}

			commits, err := f.FetchCommits(ctx, org, repo, win)
			if err != nil {
				errCh <- err
				return
			}

			mu.Lock()
			batch.PullRequests = append(batch.PullRequests, prs...)
			batch.Commits = append(batch.Commits, commits...)
			mu.Unlock()

			if onProgress != nil {
				onProgress(repo, float64(index+1)/float64(len(repos)))
			}
		}(repo, i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return nil, apperrors.NewDataFetchError("github", err)
		}
	}

	return batch, nil
}

func (f *githubFetcher) observe(resp *github.Response) {
	if resp != nil {
		f.limiter.Observe(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}
