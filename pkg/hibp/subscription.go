package hibp

import "context"

// SubscriptionStatus describes the API key's subscription, including the
// request quota used for automatic rate limiting.
type SubscriptionStatus struct {
	SubscriptionName                string `json:"SubscriptionName"`
	Description                     string `json:"Description"`
	SubscribedUntil                 string `json:"SubscribedUntil"`
	Rpm                             int    `json:"Rpm"`
	DomainSearchMaxBreachedAccounts int    `json:"DomainSearchMaxBreachedAccounts"`
	IncludesStealerLogs             bool   `json:"IncludesStealerLogs"`
}

// SubscribedDomain is a domain registered for domain search with this key.
type SubscribedDomain struct {
	DomainName  string `json:"domainName"`
	DateAdded   string `json:"dateAdded"`
	DateExpires string `json:"dateExpires"`
}

// GetSubscriptionStatus returns the current subscription. It doubles as the
// startup probe for NewWithAutoRateLimit.
func (c *Client) GetSubscriptionStatus(ctx context.Context) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := c.getJSON(ctx, c.baseURL+"/subscription/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetAllSubscribedDomains returns every domain the API key is subscribed to.
func (c *Client) GetAllSubscribedDomains(ctx context.Context) ([]SubscribedDomain, error) {
	var domains []SubscribedDomain
	if err := c.getJSON(ctx, c.baseURL+"/subscribed", &domains); err != nil {
		return nil, err
	}
	return domains, nil
}
