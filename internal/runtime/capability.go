package runtime

import (
	"fmt"

	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/internal/capability"
)

// EnsureCapabilityRegistry seals the built-in tool cards with the configured
// secret and returns a validated registry. Every tool a handler advertises is
// required in addition to capability.required_tools.
func EnsureCapabilityRegistry(cfg *config.Config) (*capability.Registry, error) {
	secret := cfg.Capability.SigningSecret
	defaults := capability.DefaultToolCards()
	cards := make([]capability.ToolCard, 0, len(defaults))
	for _, tc := range defaults {
		sealed, err := capability.Seal(tc, secret)
		if err != nil {
			return nil, fmt.Errorf("seal %s: %w", tc.Name, err)
		}
		cards = append(cards, sealed)
	}
	return capability.NewRegistry(cards, secret, requiredTools(cfg.Capability.RequiredTools))
}

func requiredTools(extra []string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok || name == "" {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, d := range core.DefaultDescriptors() {
		for _, c := range d.Capabilities {
			add(c)
		}
	}
	for _, name := range extra {
		add(name)
	}
	return out
}
