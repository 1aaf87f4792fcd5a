package payment

import (
	"fmt"
	"net/http"
	"strings"
)

// DefaultRoutingThreshold is the amount above which traffic is routed to the
// direct Zain integration instead of Wayl.
const DefaultRoutingThreshold int64 = 500_000

// RouterConfig carries the static gateway credentials the routing policy
// needs to construct adapters. Adapters are built fresh per call; the policy
// holds no shared mutable state.
type RouterConfig struct {
	Threshold         int64
	WaylSecretKey     string
	WaylBaseURL       string
	WaylWebhookSecret string
	ZainSecretKey     string
	Client            *http.Client
}

func (c RouterConfig) threshold() int64 {
	if c.Threshold > 0 {
		return c.Threshold
	}
	return DefaultRoutingThreshold
}

func (c RouterConfig) wayl() Wayl {
	return Wayl{
		SecretKey:     c.WaylSecretKey,
		WebhookSecret: c.WaylWebhookSecret,
		BaseURL:       c.WaylBaseURL,
		Client:        c.Client,
	}
}

func (c RouterConfig) zain() ZainDirect {
	return ZainDirect{SecretKey: c.ZainSecretKey}
}

// SelectByAmount picks a provider for the given order total. Amounts above the
// threshold go to zain-direct, everything else to wayl.
func SelectByAmount(amount int64, cfg RouterConfig) Provider {
	if amount > cfg.threshold() {
		return cfg.zain()
	}
	return cfg.wayl()
}

// SelectByName resolves a provider by its registered name.
func SelectByName(name string, cfg RouterConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case waylProviderName:
		return cfg.wayl(), nil
	case zainProviderName:
		return cfg.zain(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
