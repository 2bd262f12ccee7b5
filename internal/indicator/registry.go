package indicator

import (
	"slices"
	"strings"
	"sync"

	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Catalog manages the indicator templates available to strategies.
// Compiles only read from it; registration happens before compiling.
type Catalog interface {
	RegisterIndicator(indicator *template.IndicatorTemplate) error
	GetIndicator(name string) (*template.IndicatorTemplate, error)
	ListIndicators() []string
	RemoveIndicator(name string) error
}

// CatalogV1 manages the indicator templates available to strategies.
type CatalogV1 struct {
	indicators map[string]*template.IndicatorTemplate
	mu         sync.RWMutex
}

// NewCatalog creates an empty catalog.
func NewCatalog() Catalog {
	return &CatalogV1{
		indicators: make(map[string]*template.IndicatorTemplate),
		mu:         sync.RWMutex{},
	}
}

// RegisterIndicator adds an indicator template after checking its invariants.
func (r *CatalogV1) RegisterIndicator(indicator *template.IndicatorTemplate) error {
	if violations := CheckTemplate(indicator); len(violations) > 0 {
		msgs := make([]string, 0, len(violations))
		for _, v := range violations {
			msgs = append(msgs, v.String())
		}

		return errors.Newf(violations[0].Code, "RegisterIndicator: invalid indicator %s: %s", indicator.Name, strings.Join(msgs, "; "))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "RegisterIndicator: indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// GetIndicator retrieves an indicator template by name.
func (r *CatalogV1) GetIndicator(name string) (*template.IndicatorTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "GetIndicator: indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns the registered indicator names in lexical order.
func (r *CatalogV1) ListIndicators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// RemoveIndicator removes an indicator template from the catalog.
func (r *CatalogV1) RemoveIndicator(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}
