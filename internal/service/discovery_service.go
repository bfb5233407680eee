package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"formgate/internal/cache"
	"formgate/internal/config"
	"formgate/internal/utils"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type DiscoveryServiceConfig struct {
	HTTPTimeout time.Duration
}

// DiscoveryService fetches and caches OpenID Connect metadata documents,
// one fetch per issuer per TTL window. Concurrent first reads for the
// same issuer are collapsed with singleflight.
type DiscoveryService struct {
	Config DiscoveryServiceConfig
	Cache  cache.Cache
	client *http.Client
	group  singleflight.Group
}

func NewDiscoveryService(config DiscoveryServiceConfig, cache cache.Cache) *DiscoveryService {
	return &DiscoveryService{
		Config: config,
		Cache:  cache,
	}
}

func (discovery *DiscoveryService) Init() error {
	timeout := discovery.Config.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	discovery.client = &http.Client{
		Timeout: timeout,
	}
	return nil
}

// GetConfiguration returns the discovery document for the issuer, from
// cache when possible. Fetch or parse failures are fatal for the current
// redirect or callback attempt, there is no retry and no stale fallback.
func (discovery *DiscoveryService) GetConfiguration(ctx context.Context, issuer string) (config.DiscoveryDocument, error) {
	issuer = utils.NormalizeIssuer(issuer)
	key := config.DiscoveryKeyPrefix + issuer

	if cached, found := discovery.Cache.Get(key); found {
		var document config.DiscoveryDocument
		if err := json.Unmarshal(cached, &document); err == nil {
			return document, nil
		}
		log.Warn().Str("issuer", issuer).Msg("Discarding malformed cached discovery document")
		discovery.Cache.Forget(key)
	}

	result, err, _ := discovery.group.Do(issuer, func() (any, error) {
		return discovery.fetch(ctx, issuer)
	})

	if err != nil {
		return config.DiscoveryDocument{}, err
	}

	return result.(config.DiscoveryDocument), nil
}

func (discovery *DiscoveryService) fetch(ctx context.Context, issuer string) (config.DiscoveryDocument, error) {
	url := issuer + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return config.DiscoveryDocument{}, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := discovery.client.Do(req)
	if err != nil {
		return config.DiscoveryDocument{}, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return config.DiscoveryDocument{}, fmt.Errorf("%w: discovery request returned %s", ErrDiscovery, res.Status)
	}

	var document config.DiscoveryDocument
	if err := json.NewDecoder(res.Body).Decode(&document); err != nil {
		return config.DiscoveryDocument{}, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}

	value, err := json.Marshal(document)
	if err != nil {
		return config.DiscoveryDocument{}, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	discovery.Cache.Set(config.DiscoveryKeyPrefix+issuer, value, time.Duration(config.DiscoveryTTL)*time.Second)

	log.Debug().Str("issuer", issuer).Msg("Fetched OIDC discovery document")
	return document, nil
}
