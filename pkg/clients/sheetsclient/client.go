package sheetsclient

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dodouchiha/turni/internal/config"
	"github.com/dodouchiha/turni/pkg/utils"
)

// Client wraps the Google Sheets API for the optional publish target.
type Client struct {
	service *sheets.Service
	ctx     context.Context
}

// NewClient creates a Sheets client, performing the OAuth installed-app
// flow when no valid token is cached.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)

	service, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
		ctx:     ctx,
	}, nil
}

// NewClientWithService wraps an existing sheets service. Used by tests.
func NewClientWithService(ctx context.Context, service *sheets.Service) *Client {
	return &Client{service: service, ctx: ctx}
}

// Service returns the underlying sheets service for direct API access.
func (c *Client) Service() *sheets.Service {
	return c.service
}
