package hibp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Breach is a single breach as returned by the HIBP API.
type Breach struct {
	Name               string   `json:"Name"`
	Title              string   `json:"Title"`
	Domain             string   `json:"Domain"`
	BreachDate         string   `json:"BreachDate"`
	AddedDate          string   `json:"AddedDate"`
	ModifiedDate       string   `json:"ModifiedDate"`
	PwnCount           int64    `json:"PwnCount"`
	Description        string   `json:"Description"`
	LogoPath           string   `json:"LogoPath"`
	DataClasses        []string `json:"DataClasses"`
	IsVerified         bool     `json:"IsVerified"`
	IsFabricated       bool     `json:"IsFabricated"`
	IsSensitive        bool     `json:"IsSensitive"`
	IsRetired          bool     `json:"IsRetired"`
	IsSpamList         bool     `json:"IsSpamList"`
	IsMalware          bool     `json:"IsMalware"`
	IsStealerLog       bool     `json:"IsStealerLog"`
	IsSubscriptionFree bool     `json:"IsSubscriptionFree"`
}

// GetBreachesForAccount returns all breaches for an account (email address).
// An account unknown to HIBP yields an empty slice, not an error.
func (c *Client) GetBreachesForAccount(ctx context.Context, account string) ([]Breach, error) {
	u := fmt.Sprintf("%s/breachedaccount/%s?truncateResponse=false",
		c.baseURL, url.PathEscape(strings.TrimSpace(account)))

	var breaches []Breach
	err := c.getJSON(ctx, u, &breaches)
	if errors.Is(err, ErrNotFound) {
		return []Breach{}, nil
	}
	if err != nil {
		return nil, err
	}
	return breaches, nil
}

// GetAllBreaches returns every breach in the HIBP system.
func (c *Client) GetAllBreaches(ctx context.Context) ([]Breach, error) {
	var breaches []Breach
	if err := c.getJSON(ctx, c.baseURL+"/breaches", &breaches); err != nil {
		return nil, err
	}
	return breaches, nil
}

// GetBreachByName returns a single breach by its name.
// ErrNotFound is returned when no breach has that name.
func (c *Client) GetBreachByName(ctx context.Context, name string) (*Breach, error) {
	u := fmt.Sprintf("%s/breach/%s", c.baseURL, url.PathEscape(strings.TrimSpace(name)))

	var breach Breach
	if err := c.getJSON(ctx, u, &breach); err != nil {
		return nil, err
	}
	return &breach, nil
}

// GetLatestBreach returns the most recently added breach.
func (c *Client) GetLatestBreach(ctx context.Context) (*Breach, error) {
	var breach Breach
	if err := c.getJSON(ctx, c.baseURL+"/latestbreach", &breach); err != nil {
		return nil, err
	}
	return &breach, nil
}

// GetDataClasses returns all data classes a breach may expose.
func (c *Client) GetDataClasses(ctx context.Context) ([]string, error) {
	var classes []string
	if err := c.getJSON(ctx, c.baseURL+"/dataclasses", &classes); err != nil {
		return nil, err
	}
	return classes, nil
}
