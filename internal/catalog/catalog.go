// Package catalog holds the static registry of known protocol contracts.
//
// A Catalog is built once at startup, either from the embedded protocols.json
// or from rows persisted in Postgres, and is read-only afterwards. Lookups are
// keyed by lowercase contract address.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/types"
)

//go:embed protocols.json
var embeddedProtocols []byte

// Entry is a single catalog row
type Entry struct {
	Address  string         `json:"address"`
	Name     string         `json:"name"`
	Category types.Category `json:"category"`
	Tags     []string       `json:"tags,omitempty"`
}

// Catalog maps lowercase contract addresses to protocol metadata
type Catalog struct {
	byAddress map[string]types.ProtocolMetadata
	entries   []Entry
}

// Load builds the catalog from the embedded protocol list
func Load() (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(embeddedProtocols, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode embedded protocol catalog: %w", err)
	}
	return New(entries)
}

// MustLoad is like Load but panics on error
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// New validates entries and builds an immutable catalog from them
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		byAddress: make(map[string]types.ProtocolMetadata, len(entries)),
		entries:   make([]Entry, 0, len(entries)),
	}

	for _, e := range entries {
		addr, ok := NormalizeAddress(e.Address)
		if !ok {
			return nil, errors.NewInvalidAddressError(e.Address)
		}
		if !e.Category.Valid() {
			return nil, errors.NewInvalidCategoryError(addr, string(e.Category))
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, errors.NewInvalidParameterError("name", "protocol name is empty for "+addr)
		}
		if _, dup := c.byAddress[addr]; dup {
			return nil, errors.NewInvalidParameterError("address", "duplicate catalog entry for "+addr)
		}

		tags := slices.Clone(e.Tags)
		c.byAddress[addr] = types.ProtocolMetadata{Name: name, Category: e.Category, Tags: tags}
		c.entries = append(c.entries, Entry{Address: addr, Name: name, Category: e.Category, Tags: tags})
	}

	return c, nil
}

// NormalizeAddress validates a hex address and returns its lowercase form
func NormalizeAddress(address string) (string, bool) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", false
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), true
}

// Lookup returns the metadata for a contract address.
// The address is matched case-insensitively.
func (c *Catalog) Lookup(address string) (types.ProtocolMetadata, bool) {
	meta, ok := c.byAddress[strings.ToLower(strings.TrimSpace(address))]
	if !ok {
		return types.ProtocolMetadata{}, false
	}
	meta.Tags = slices.Clone(meta.Tags)
	return meta, true
}

// Len returns the number of cataloged contracts
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the catalog rows in load order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		e.Tags = slices.Clone(e.Tags)
		out[i] = e
	}
	return out
}

// ByCategory returns the rows belonging to category
func (c *Catalog) ByCategory(category types.Category) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Category == category {
			e.Tags = slices.Clone(e.Tags)
			out = append(out, e)
		}
	}
	return out
}
