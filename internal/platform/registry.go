package platform

import (
	"fmt"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// Registry keeps a mapping from platforms to their publisher implementations.
type Registry struct {
	publishers map[domain.Platform]ports.Publisher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{publishers: map[domain.Platform]ports.Publisher{}}
}

// Register adds or replaces a publisher implementation.
func (r *Registry) Register(pub ports.Publisher) {
	if r.publishers == nil {
		r.publishers = map[domain.Platform]ports.Publisher{}
	}
	r.publishers[pub.Platform()] = pub
}

// Resolve returns a publisher by platform or an error if it is absent.
func (r *Registry) Resolve(p domain.Platform) (ports.Publisher, error) {
	if pub, ok := r.publishers[p]; ok {
		return pub, nil
	}
	return nil, fmt.Errorf("publisher for %s is not registered", p)
}

// Covers verifies that every platform in the set has a publisher.
func (r *Registry) Covers(platforms []domain.Platform) error {
	for _, p := range platforms {
		if _, ok := r.publishers[p]; !ok {
			return fmt.Errorf("publisher for %s is not registered", p)
		}
	}
	return nil
}
