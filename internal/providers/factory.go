package providers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ChamsBouzaiene/recap/internal/config"
	"github.com/ChamsBouzaiene/recap/internal/engine"
)

// NewEndpointClient creates the engine.Client for a configured endpoint
// based on its kind. An empty kind means OpenAI-compatible.
func NewEndpointClient(ep config.Endpoint, timeout time.Duration) (engine.Client, error) {
	switch ep.Kind {
	case "", config.KindOpenAI:
		return NewOpenAIClient(ep.APIKey, ep.Model, ep.URL, timeout), nil
	case config.KindAnthropic:
		return NewAnthropicClient(ep.APIKey, ep.Model, ep.URL, timeout), nil
	default:
		return nil, fmt.Errorf("unknown endpoint kind %q (supported: %s, %s)",
			ep.Kind, config.KindOpenAI, config.KindAnthropic)
	}
}

// BuildEndpoints converts the configured endpoint list into dispatcher
// endpoints, preserving order.
func BuildEndpoints(cfg *config.Config) ([]engine.Endpoint, error) {
	endpoints := make([]engine.Endpoint, 0, len(cfg.Endpoints))
	for i, ep := range cfg.Endpoints {
		client, err := NewEndpointClient(ep, cfg.RequestTimeout())
		if err != nil {
			return nil, fmt.Errorf("endpoint %d: %w", i, err)
		}
		endpoints = append(endpoints, engine.Endpoint{
			Label:  endpointLabel(ep),
			Client: client,
		})
	}
	return endpoints, nil
}

// endpointLabel builds a log-friendly name, never including the credential.
func endpointLabel(ep config.Endpoint) string {
	if ep.Name != "" {
		return ep.Name
	}
	host := ep.URL
	if u, err := url.Parse(ep.URL); err == nil && u.Host != "" {
		host = u.Host
	}
	return host + "/" + ep.Model
}
