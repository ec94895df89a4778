package hibp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Stealer-log endpoints require a subscription with IncludesStealerLogs.
// They return plain JSON string arrays; 404 means no entries.

// GetStealerLogEmailsForDomain returns all email addresses found in stealer
// logs for a website domain.
func (c *Client) GetStealerLogEmailsForDomain(ctx context.Context, domain string) ([]string, error) {
	u := fmt.Sprintf("%s/stealerlogsbywebsitedomain/%s", c.baseURL, url.PathEscape(strings.TrimSpace(domain)))
	return c.getStringList(ctx, u)
}

// GetStealerLogAliasesForDomain returns all email aliases found in stealer
// logs for an email domain.
func (c *Client) GetStealerLogAliasesForDomain(ctx context.Context, domain string) ([]string, error) {
	u := fmt.Sprintf("%s/stealerlogsbyemaildomain/%s", c.baseURL, url.PathEscape(strings.TrimSpace(domain)))
	return c.getStringList(ctx, u)
}

// GetStealerLogDomainsForEmail returns all website domains found in stealer
// logs for an email address.
func (c *Client) GetStealerLogDomainsForEmail(ctx context.Context, email string) ([]string, error) {
	u := fmt.Sprintf("%s/stealerlogsbyemail/%s", c.baseURL, url.PathEscape(strings.TrimSpace(email)))
	return c.getStringList(ctx, u)
}

func (c *Client) getStringList(ctx context.Context, u string) ([]string, error) {
	var values []string
	err := c.getJSON(ctx, u, &values)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return values, nil
}
