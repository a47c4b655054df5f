package wikibase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// LoginError is returned when the API refuses the bot credentials.
type LoginError struct {
	User   string
	Result string
	Reason string
}

func (e *LoginError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("login as %s: %s: %s", e.User, e.Result, e.Reason)
	}
	return fmt.Sprintf("login as %s: %s", e.User, e.Result)
}

type tokensResponse struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
			CSRFToken  string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type loginResponse struct {
	Login struct {
		Result   string `json:"result"`
		Reason   string `json:"reason"`
		UserName string `json:"lgusername"`
	} `json:"login"`
}

// Login opens a bot-password session. The session cookies are kept by the
// client and sent with every later request.
func (c *Client) Login(ctx context.Context, user, password string) error {
	var tokens tokensResponse
	params := url.Values{"action": {"query"}, "meta": {"tokens"}, "type": {"login"}}
	if err := c.call(ctx, "login", http.MethodGet, params, true, &tokens); err != nil {
		return fmt.Errorf("fetch login token: %w", err)
	}
	if tokens.Query.Tokens.LoginToken == "" {
		return errors.New("fetch login token: empty token")
	}

	var resp loginResponse
	params = url.Values{
		"action":     {"login"},
		"lgname":     {user},
		"lgpassword": {password},
		"lgtoken":    {tokens.Query.Tokens.LoginToken},
	}
	if err := c.call(ctx, "login", http.MethodPost, params, false, &resp); err != nil {
		return fmt.Errorf("login as %s: %w", user, err)
	}
	if resp.Login.Result != "Success" {
		return &LoginError{User: user, Result: resp.Login.Result, Reason: resp.Login.Reason}
	}

	c.csrfToken = ""
	c.logger.Info("logged in to wikibase", "user", resp.Login.UserName)
	return nil
}

// token returns the cached CSRF token, fetching it on first use.
func (c *Client) token(ctx context.Context) (string, error) {
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}
	var tokens tokensResponse
	params := url.Values{"action": {"query"}, "meta": {"tokens"}}
	if err := c.call(ctx, "token", http.MethodGet, params, true, &tokens); err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	if tokens.Query.Tokens.CSRFToken == "" {
		return "", errors.New("fetch csrf token: empty token")
	}
	c.csrfToken = tokens.Query.Tokens.CSRFToken
	return c.csrfToken, nil
}
