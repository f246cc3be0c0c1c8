// Package premiumapi resolves guild premium tiers from the external
// membership service over HTTP, with a short-lived cache in front.
package premiumapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"community-automation-bot/internal/common/cache"
	"community-automation-bot/internal/common/config"
	"community-automation-bot/internal/features/premium"
)

const cacheKeyPrefix = "premium:tier:"

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cache      *cache.CacheService
	cacheTTL   time.Duration
}

type tierResponse struct {
	Tier string `json:"tier"`
}

func NewClient(cfg *config.Config, cacheService *cache.CacheService) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(cfg.Premium.APIURL, "/"),
		token:      cfg.Premium.APIToken,
		cache:      cacheService,
		cacheTTL:   cfg.Premium.CacheTTL,
	}
}

// FetchPremiumTier implements premium.TierResolver. An unconfigured
// endpoint resolves every guild to no membership.
func (c *Client) FetchPremiumTier(ctx context.Context, guildID string) (premium.Tier, error) {
	if c.baseURL == "" {
		return premium.TierNone, nil
	}

	cacheKey := cacheKeyPrefix + guildID

	var tier string
	err := c.cache.GetOrSet(ctx, cacheKey, &tier, c.cacheTTL, func() (interface{}, error) {
		fetched, err := c.fetchTier(ctx, guildID)
		if err != nil {
			return nil, err
		}
		return string(fetched), nil
	})
	if err != nil {
		return premium.TierNone, err
	}

	switch premium.Tier(tier) {
	case premium.TierGold, premium.TierPlatinum:
		return premium.Tier(tier), nil
	default:
		return premium.TierNone, nil
	}
}

func (c *Client) fetchTier(ctx context.Context, guildID string) (premium.Tier, error) {
	url := fmt.Sprintf("%s/guilds/%s/tier", c.baseURL, guildID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return premium.TierNone, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return premium.TierNone, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// The guild has no membership at all.
		return premium.TierNone, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return premium.TierNone, fmt.Errorf("membership service returned %d: %s", resp.StatusCode, string(body))
	}

	var payload tierResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return premium.TierNone, fmt.Errorf("failed to decode tier response: %w", err)
	}

	return premium.Tier(strings.ToUpper(payload.Tier)), nil
}
