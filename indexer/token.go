package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AccessToken requests a short-lived account access token. Tokens are not
// cached; every caller gets a fresh one.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"operation": "Client.AccessToken",
		"location":  c.location,
	})

	endpoint, err := c.endpoint(
		url.Values{"allowEdit": {"true"}},
		"Auth", c.location, "Accounts", c.accountID, "AccessToken",
	)
	if err != nil {
		return "", mark(ErrAccessToken, err)
	}

	body, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		logger.WithError(err).WithField("status", StatusCode(err)).Error("Access token request failed")
		return "", mark(ErrAccessToken, err)
	}

	token := parseToken(body)
	if token == "" {
		return "", mark(ErrAccessToken, errors.New("empty token in response"))
	}

	logger.Debug("Access token issued")
	return token, nil
}

// parseToken accepts the JSON string body the API returns. ARM-style
// {"accessToken": ...} objects and bare text are accepted as well.
func parseToken(body []byte) string {
	var token string
	if err := json.Unmarshal(body, &token); err == nil {
		return strings.TrimSpace(token)
	}

	var wrapped struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		return strings.TrimSpace(wrapped.AccessToken)
	}

	return strings.Trim(strings.TrimSpace(string(body)), `"`)
}
