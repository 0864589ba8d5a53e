package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// AdminClient deletes users through the identity provider's admin endpoint
// using service credentials.
type AdminClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewAdminClient(baseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *AdminClient) DeleteUser(ctx context.Context, userID domain.UserID) error {
	endpoint := c.baseURL + "/admin/users/" + url.PathEscape(string(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build delete user request: %w", err)
	}
	req.Header.Set("Authorization", bearerPrefix+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Already gone; the data purge can still proceed.
		return nil
	case resp.StatusCode >= 300:
		return fmt.Errorf("delete user: identity provider returned %d", resp.StatusCode)
	}
	return nil
}

// LocalAdmin stands in for the identity provider in local mode.
type LocalAdmin struct{}

func (LocalAdmin) DeleteUser(ctx context.Context, userID domain.UserID) error {
	observability.LoggerForUser(ctx, string(userID)).Info("local mode: skipping identity deletion")
	return nil
}
