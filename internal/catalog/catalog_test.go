package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/types"
)

func TestLoad_Embedded(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.Greater(t, c.Len(), 0)

	seen := make(map[types.Category]bool)
	for _, e := range c.Entries() {
		seen[e.Category] = true
		assert.Equal(t, e.Address, mustNormalize(t, e.Address), "entries are stored lowercase")
	}
	for _, category := range types.AllCategories {
		assert.True(t, seen[category], "embedded catalog has no %s protocol", category)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	c := MustLoad()

	meta, ok := c.Lookup("0x7A250D5630B4CF539739DF2C5DACB4C659F2488D")
	require.True(t, ok)
	assert.Equal(t, "Uniswap V2", meta.Name)
	assert.Equal(t, types.CategoryDEX, meta.Category)

	_, ok = c.Lookup("0x0000000000000000000000000000000000000001")
	assert.False(t, ok)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	c, err := New([]Entry{{
		Address:  "0x1111111254eeb25477b68fb85ed929f73a960582",
		Name:     "1inch",
		Category: types.CategoryDEX,
		Tags:     []string{"aggregator"},
	}})
	require.NoError(t, err)

	meta, ok := c.Lookup("0x1111111254eeb25477b68fb85ed929f73a960582")
	require.True(t, ok)
	meta.Tags[0] = "mutated"

	again, _ := c.Lookup("0x1111111254eeb25477b68fb85ed929f73a960582")
	assert.Equal(t, "aggregator", again.Tags[0])
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		entries  []Entry
		wantCode string
	}{
		{
			name:     "invalid address",
			entries:  []Entry{{Address: "0x1234", Name: "Short", Category: types.CategoryDEX}},
			wantCode: "INVALID_ADDRESS",
		},
		{
			name:     "unknown category",
			entries:  []Entry{{Address: "0xca11bde05977b3631167028862be2a173976ca11", Name: "Multicall3", Category: "gaming"}},
			wantCode: "INVALID_CATEGORY",
		},
		{
			name:     "empty name",
			entries:  []Entry{{Address: "0xca11bde05977b3631167028862be2a173976ca11", Name: " ", Category: types.CategoryTooling}},
			wantCode: "INVALID_PARAMETER",
		},
		{
			name: "duplicate address with different casing",
			entries: []Entry{
				{Address: "0xca11bde05977b3631167028862be2a173976ca11", Name: "Multicall3", Category: types.CategoryTooling},
				{Address: "0xCA11BDE05977B3631167028862BE2A173976CA11", Name: "Multicall3", Category: types.CategoryTooling},
			},
			wantCode: "INVALID_PARAMETER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.Categorize(err).Code)
		})
	}
}

func TestByCategory(t *testing.T) {
	c := MustLoad()

	for _, e := range c.ByCategory(types.CategoryBridge) {
		assert.Equal(t, types.CategoryBridge, e.Category)
	}
	assert.NotEmpty(t, c.ByCategory(types.CategoryRestaking))
}

func TestCategories(t *testing.T) {
	infos := Categories()
	require.Len(t, infos, len(types.AllCategories))

	for i, info := range infos {
		assert.Equal(t, types.AllCategories[i], info.Category)
		assert.NotEmpty(t, info.Label)
		assert.NotEmpty(t, info.Recommendation)
	}
	assert.Equal(t, "DeFi", CategoryLabel(types.CategoryDeFi))
	assert.Equal(t, "Other", CategoryLabel("unknown"))
}

func mustNormalize(t *testing.T, address string) string {
	t.Helper()
	normalized, ok := NormalizeAddress(address)
	require.True(t, ok, "address %s is not valid", address)
	return normalized
}
