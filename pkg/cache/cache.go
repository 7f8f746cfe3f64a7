// Package cache stores computed layouts keyed by a hash of their inputs.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry under a local directory (CLI)
//   - [RedisCache]: a shared Redis instance (HTTP server with many replicas)
//   - [NullCache]: caching disabled
//
// Keys are produced by a [Keyer] so that the same input and options always
// map to the same entry, and [ScopedKeyer] can namespace keys per tenant.
package cache

import (
	"context"
	"time"
)

// TTLLayout is how long a computed layout stays cached.
const TTLLayout = 24 * time.Hour

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the value for key. A miss returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}

// LayoutKeyOpts are the layout options that change the result of a layout.
type LayoutKeyOpts struct {
	Width           float64 `json:"width"`
	NodeRadius      float64 `json:"node_radius"`
	RowPadding      float64 `json:"row_padding"`
	VerticalPadding float64 `json:"vertical_padding"`
	MinLabelWidth   float64 `json:"min_label_width"`
	MinGraphHeight  float64 `json:"min_graph_height"`
	Measurer        string  `json:"measurer"`
}

// Keyer produces cache keys.
type Keyer interface {
	// LayoutKey returns the key for the layout of the input with the given hash.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces keys of the form "layout:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the input hash together with the options.
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}
