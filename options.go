package formstate

import (
	"strings"
	"time"

	"github.com/goliatone/go-formstate/pkg/activity"
)

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	id              string
	defaults        any
	hasDefaults     bool
	logger          Logger
	activityHooks   activity.Hooks
	activityChannel string
	actor           actor
	now             func() time.Time
}

type actor struct {
	actorID  string
	userID   string
	tenantID string
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

// WithID sets the store identifier used as the activity object id. A random
// UUID is generated otherwise.
func WithID(id string) Option {
	return func(cfg *storeConfig) {
		cfg.id = strings.TrimSpace(id)
	}
}

// WithDefaults layers defaults underneath the initial value. Records merge
// key by key; the initial value wins wherever both define a path.
func WithDefaults(defaults any) Option {
	return func(cfg *storeConfig) {
		cfg.defaults = defaults
		cfg.hasDefaults = defaults != nil
	}
}

// WithActivityHooks attaches activity hooks to the store. Hooks are cloned and
// nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on activity events.
func WithActivityChannel(channel string) Option {
	return func(cfg *storeConfig) {
		cfg.activityChannel = channel
	}
}

// WithActivityActor sets the identity fields stamped on activity events.
func WithActivityActor(actorID, userID, tenantID string) Option {
	return func(cfg *storeConfig) {
		cfg.actor = actor{actorID: actorID, userID: userID, tenantID: tenantID}
	}
}

// WithClock overrides the clock used for durations and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *storeConfig) {
		cfg.now = now
	}
}
