package backend

import (
	"fmt"

	"github.com/voxmend/voxmend/internal/core/config"
)

// BuildMap constructs the capability map from configuration. Order in
// the config determines tie-break order during ranking, so the returned
// name list preserves it.
func BuildMap(cfgs []config.BackendConfig) (Map, []string, error) {
	m := make(Map, len(cfgs))
	names := make([]string, 0, len(cfgs))

	for _, c := range cfgs {
		if c.Name == "" {
			return nil, nil, fmt.Errorf("backend with empty name")
		}
		if _, exists := m[c.Name]; exists {
			return nil, nil, fmt.Errorf("duplicate backend name %q", c.Name)
		}

		var b Backend
		switch c.Kind {
		case config.KindOpenAI:
			b = NewOpenAIBackend(c.Name, c.APIKey, c.Model, c.Language)
		case config.KindWhisperCLI:
			b = NewWhisperCLIBackend(c.Name, c.ModelPath, c.Language, c.Threads)
		case config.KindRemote:
			b = NewRemoteBackend(c.Name, c.BaseURL, c.Token, c.Model)
		default:
			return nil, nil, fmt.Errorf("unknown backend kind %q for %q", c.Kind, c.Name)
		}

		m[c.Name] = b
		names = append(names, c.Name)
	}

	return m, names, nil
}
