package hibp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Paste is a single paste as returned by the HIBP API.
type Paste struct {
	Source     string  `json:"Source"`
	ID         string  `json:"Id"`
	Title      *string `json:"Title"`
	Date       *string `json:"Date"`
	EmailCount int64   `json:"EmailCount"`
}

// GetPastesForAccount returns all pastes for an account (email address).
// An account with no pastes yields an empty slice, not an error.
func (c *Client) GetPastesForAccount(ctx context.Context, account string) ([]Paste, error) {
	u := fmt.Sprintf("%s/pasteaccount/%s", c.baseURL, url.PathEscape(strings.TrimSpace(account)))

	var pastes []Paste
	err := c.getJSON(ctx, u, &pastes)
	if errors.Is(err, ErrNotFound) {
		return []Paste{}, nil
	}
	if err != nil {
		return nil, err
	}
	return pastes, nil
}
