package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketbay/auction-exchange-backend/internal/domain/values"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/config"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
)

// settingsKey holds operator overrides for the platform bidding policy
const settingsKey = "platform:auction_settings"

// settingsOverride is the JSON shape stored under settingsKey
type settingsOverride struct {
	BidIncrement       string `json:"bid_increment,omitempty"`
	AntiSnipingEnabled *bool  `json:"anti_sniping_enabled,omitempty"`
	SoftCloseSeconds   *int   `json:"soft_close_seconds,omitempty"`
}

// SettingsCache serves immutable bidding-settings snapshots. The static
// config is the base; redis overrides are layered on top and refreshed on
// a bounded interval. Snapshots feed per-operation policy, never price or
// status state, so a stale snapshot is safe.
type SettingsCache struct {
	cache   Cache
	base    bidding.Settings
	refresh time.Duration
	logger  *zap.Logger

	mu        sync.RWMutex
	snapshot  bidding.Settings
	fetchedAt time.Time
}

// NewSettingsCache builds the provider from static config plus a cache.
// cache may be nil, in which case the static base is always served.
func NewSettingsCache(cfg *config.AuctionConfig, c Cache, logger *zap.Logger) (*SettingsCache, error) {
	currency := cfg.Currency
	if currency == "" {
		currency = values.USD
	}

	increment, err := values.NewMoneyFromString(cfg.BidIncrement, currency)
	if err != nil {
		return nil, err
	}

	base := bidding.Settings{
		BidIncrement:       increment,
		AntiSnipingEnabled: cfg.AntiSnipingEnabled,
		SoftClose:          time.Duration(cfg.SoftCloseSeconds) * time.Second,
		MaxAuctionDuration: time.Duration(cfg.MaxAuctionDurationDays) * 24 * time.Hour,
	}

	refresh := cfg.SettingsRefresh
	if refresh <= 0 {
		refresh = 30 * time.Second
	}

	return &SettingsCache{
		cache:    c,
		base:     base,
		refresh:  refresh,
		logger:   logger,
		snapshot: base,
	}, nil
}

// Snapshot returns the current settings, refreshing from redis when the
// local copy has aged past the refresh interval. Cache failures fall back
// to the last good snapshot.
func (s *SettingsCache) Snapshot(ctx context.Context) bidding.Settings {
	s.mu.RLock()
	fresh := time.Since(s.fetchedAt) < s.refresh
	snap := s.snapshot
	s.mu.RUnlock()

	if fresh || s.cache == nil {
		return snap
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited.
	if time.Since(s.fetchedAt) < s.refresh {
		return s.snapshot
	}

	s.snapshot = s.load(ctx)
	s.fetchedAt = time.Now()
	return s.snapshot
}

func (s *SettingsCache) load(ctx context.Context) bidding.Settings {
	var override settingsOverride
	err := s.cache.GetJSON(ctx, settingsKey, &override)
	if err != nil {
		var miss ErrCacheKeyNotFound
		if !errors.As(err, &miss) {
			s.logger.Warn("settings override fetch failed, keeping base",
				zap.Error(err))
		}
		return s.base
	}

	settings := s.base

	if override.BidIncrement != "" {
		increment, err := values.NewMoneyFromString(override.BidIncrement, s.base.BidIncrement.Currency())
		if err != nil {
			s.logger.Warn("invalid bid increment override ignored",
				zap.String("value", override.BidIncrement), zap.Error(err))
		} else {
			settings.BidIncrement = increment
		}
	}
	if override.AntiSnipingEnabled != nil {
		settings.AntiSnipingEnabled = *override.AntiSnipingEnabled
	}
	if override.SoftCloseSeconds != nil && *override.SoftCloseSeconds > 0 {
		settings.SoftClose = time.Duration(*override.SoftCloseSeconds) * time.Second
	}

	return settings
}
