package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/analogdevicesinc/automl-embedded/pkg/scenario"
	"github.com/go-logr/logr"
)

// SupportedFamily is the platform implementation the runtime builder targets
const SupportedFamily = "ZephyrPlatform"

// ErrDiscovery is returned when the platform listing could not be obtained
var ErrDiscovery = errors.New("platform discovery failed")

// Discoverer queries the external tool for its platform definitions. It
// blocks until the tool answers.
type Discoverer interface {
	ListPlatforms(ctx context.Context) ([]byte, error)
}

// Catalog caches platforms and their capabilities. It is only held in memory
// and is rebuilt as a whole on every refresh.
type Catalog struct {
	discoverer Discoverer
	log        logr.Logger

	mu         sync.Mutex
	platforms  []Entry
	loaded     bool
	optimizers map[string][]string
	simulation map[string]bool
}

// platformDefinition is a single value of the discovery response
type platformDefinition struct {
	DefaultPlatform  string          `json:"default_platform"`
	DisplayName      string          `json:"display_name"`
	DefaultOptimizer []string        `json:"default_optimizer"`
	PlatformRescPath json.RawMessage `json:"platform_resc_path"`
}

// New creates an empty catalog
func New(discoverer Discoverer, log logr.Logger) *Catalog {
	return &Catalog{
		discoverer: discoverer,
		log:        log.WithName("catalog"),
		optimizers: map[string][]string{},
		simulation: map[string]bool{},
	}
}

// ListPlatforms returns discovered platforms of the supported family. Without
// refresh a cached result is returned as is. When discovery fails the
// previous state is kept and returned together with an ErrDiscovery error;
// on the first call that means an empty list.
func (c *Catalog) ListPlatforms(ctx context.Context, refresh bool) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !refresh && c.loaded {
		return cloneEntries(c.platforms), nil
	}

	c.log.V(1).Info("Discovering platforms")
	out, err := c.discoverer.ListPlatforms(ctx)
	if err != nil {
		c.log.Error(err, "Platform discovery failed, keeping previous catalog")
		return cloneEntries(c.platforms), fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	platforms, optimizers, simulation, err := parseDefinitions(out)
	if err != nil {
		c.log.Error(err, "Malformed platform listing, keeping previous catalog")
		return cloneEntries(c.platforms), fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	c.platforms = platforms
	c.optimizers = optimizers
	c.simulation = simulation
	c.loaded = true
	c.log.Info("Platform catalog refreshed", "platforms", len(platforms))

	return cloneEntries(platforms), nil
}

func parseDefinitions(data []byte) ([]Entry, map[string][]string, map[string]bool, error) {
	var defs map[string]platformDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to parse platform listing: %w", err)
	}
	if defs == nil {
		return nil, nil, nil, fmt.Errorf("platform listing is empty")
	}

	platforms := []Entry{}
	optimizers := make(map[string][]string, len(defs))
	simulation := make(map[string]bool, len(defs))
	for id, def := range defs {
		optimizers[id] = append([]string(nil), def.DefaultOptimizer...)
		simulation[id] = len(def.PlatformRescPath) > 0 && string(def.PlatformRescPath) != "null"

		if def.DefaultPlatform != SupportedFamily {
			continue
		}
		platforms = append(platforms, Entry{DisplayName: def.DisplayName, ID: id})
	}
	SortEntries(platforms)

	return platforms, optimizers, simulation, nil
}

// ScenarioPlatform returns the platform pinned by a loaded scenario, if any.
// The display name falls back to the platform name.
func ScenarioPlatform(base *scenario.Scenario) (Entry, bool) {
	if base == nil {
		return Entry{}, false
	}
	params := base.Platform.Parameters
	if params.Name == nil || *params.Name == "" {
		return Entry{}, false
	}
	name := *params.Name
	if params.DisplayName == nil {
		return Entry{DisplayName: name, ID: name}, true
	}
	return Entry{DisplayName: *params.DisplayName, ID: name}, true
}

// Platforms merges the platform pinned by base with the discovered ones and
// sorts the result by display name, then id. Discovery errors are logged by
// ListPlatforms and reflected only as a shorter list.
func (c *Catalog) Platforms(ctx context.Context, refresh bool, base *scenario.Scenario) []Entry {
	platforms := []Entry{}
	if pinned, ok := ScenarioPlatform(base); ok {
		platforms = append(platforms, pinned)
	}
	discovered, _ := c.ListPlatforms(ctx, refresh)
	platforms = append(platforms, discovered...)
	SortEntries(platforms)
	return platforms
}

// CompatibleOptimizers returns the optimizers a platform supports
func (c *Catalog) CompatibleOptimizers(platformID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.optimizers[platformID]...)
}

// IsSimulationAvailable reports whether a platform can run in Renode
func (c *Catalog) IsSimulationAvailable(platformID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.simulation[platformID]
}

// SortEntries orders entries by display name, then id
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DisplayName != entries[j].DisplayName {
			return entries[i].DisplayName < entries[j].DisplayName
		}
		return entries[i].ID < entries[j].ID
	})
}

func cloneEntries(entries []Entry) []Entry {
	return append([]Entry{}, entries...)
}
