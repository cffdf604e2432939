package githubclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/dodouchiha/turni/pkg/store"
)

// Get fetches the document at path and returns its JSON payload and blob SHA.
func (c *Client) Get(ctx context.Context, path string) ([]byte, string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: c.branch}

	file, _, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, opts)
	if err != nil {
		return nil, "", classify(err)
	}
	if file == nil {
		// Path resolved to a directory listing.
		return nil, "", fmt.Errorf("%w: %s is not a file", store.ErrCorrupt, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}

	data := []byte(content)
	if !json.Valid(data) {
		return nil, "", fmt.Errorf("%w: %s is not valid JSON", store.ErrCorrupt, path)
	}

	return data, file.GetSHA(), nil
}

// Put writes data to path on the configured branch. An empty token creates
// the file; a non-empty token must match the remote blob SHA or the write
// fails with store.ErrConflict.
func (c *Client) Put(ctx context.Context, path string, data []byte, token string) (string, error) {
	message := fmt.Sprintf("Update %s - %s", path, time.Now().Format("2006-01-02 15:04:05"))
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: data,
		Branch:  github.String(c.branch),
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
	)
	if token == "" {
		resp, _, err = c.gh.Repositories.CreateFile(ctx, c.owner, c.repo, path, opts)
	} else {
		opts.SHA = github.String(token)
		resp, _, err = c.gh.Repositories.UpdateFile(ctx, c.owner, c.repo, path, opts)
	}
	if err != nil {
		return "", classify(err)
	}

	newToken := resp.GetContent().GetSHA()
	if newToken == "" {
		return "", fmt.Errorf("%w: response carries no content SHA", store.ErrCorrupt)
	}
	return newToken, nil
}

// classify maps GitHub API failures onto the store error taxonomy.
func classify(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return store.RateLimited(err, time.Until(rateErr.Rate.Reset.Time))
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return store.RateLimited(err, abuseErr.GetRetryAfter())
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch code := respErr.Response.StatusCode; {
		case code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", store.ErrNotFound, err)
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", store.ErrUnauthorized, err)
		case code == http.StatusConflict || code == http.StatusUnprocessableEntity:
			// 409 is a SHA mismatch; 422 is a create against an
			// existing file (or a missing SHA on update).
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		case code == http.StatusTooManyRequests || code >= 500:
			return store.Transient(err)
		default:
			return fmt.Errorf("github request failed: %w", err)
		}
	}

	// No structured response at all: connection refused, DNS failure,
	// timeout. All retryable.
	return store.Transient(err)
}
