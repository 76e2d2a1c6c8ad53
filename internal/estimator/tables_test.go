// internal/estimator/tables_test.go
package estimator

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMultiplierTable_Validation(t *testing.T) {
	tests := []struct {
		name     string
		category string
		entries  []Entry
		wantErr  string
	}{
		{"valid", "location", []Entry{{"Urban", 1.2}, {"Rural", 0.9}}, ""},
		{"empty category", "", []Entry{{"Urban", 1.2}}, "category is required"},
		{"no entries", "location", nil, "no entries"},
		{"empty label", "location", []Entry{{"", 1.2}}, "empty label"},
		{"duplicate label", "location", []Entry{{"Urban", 1.2}, {"Urban", 1.3}}, "duplicate label"},
		{"zero multiplier", "location", []Entry{{"Urban", 0}}, "invalid multiplier"},
		{"negative multiplier", "location", []Entry{{"Urban", -1}}, "invalid multiplier"},
		{"NaN multiplier", "location", []Entry{{"Urban", math.NaN()}}, "invalid multiplier"},
		{"infinite multiplier", "location", []Entry{{"Urban", math.Inf(1)}}, "invalid multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewMultiplierTable(tt.category, tt.entries)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, len(tt.entries), table.Len())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMultiplierTable_Resolve(t *testing.T) {
	table := mustTable(CategoryRoomType, Entry{"Kitchen", 1.5}, Entry{"Bathroom", 1.6})

	m, err := table.Resolve("Kitchen")
	require.NoError(t, err)
	assert.Equal(t, 1.5, m)

	t.Run("lookup is case sensitive", func(t *testing.T) {
		_, err := table.Resolve("kitchen")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfiguration))
	})

	t.Run("unknown label", func(t *testing.T) {
		_, err := table.Resolve("Dungeon")
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, CategoryRoomType, cfgErr.Category)
		assert.Equal(t, "Dungeon", cfgErr.Label)
		assert.False(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestMultiplierTable_EntriesAreCopies(t *testing.T) {
	table := mustTable(CategoryUrgency, Entry{"Standard", 1.0}, Entry{"Emergency", 1.4})

	entries := table.Entries()
	entries[0].Multiplier = 99

	m, err := table.Resolve("Standard")
	require.NoError(t, err)
	assert.Equal(t, 1.0, m)
	assert.Equal(t, []string{"Standard", "Emergency"}, table.Labels())
	assert.True(t, table.Has("Emergency"))
	assert.False(t, table.Has("Whenever"))
}

func TestMultiplierTable_MarshalJSON(t *testing.T) {
	table := mustTable(CategoryAccess, Entry{"Easy", 1.0}, Entry{"Difficult", 1.2})

	b, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"label":"Easy","multiplier":1},{"label":"Difficult","multiplier":1.2}]`, string(b))
}

func TestDefaultTables_CoverEveryCategory(t *testing.T) {
	card := DefaultRateCard()
	for _, cat := range Categories {
		table, ok := card.Table(cat)
		require.True(t, ok, "missing table %s", cat)
		assert.Greater(t, table.Len(), 0)
		for _, e := range table.Entries() {
			assert.Greater(t, e.Multiplier, 0.0, "%s/%s", cat, e.Label)
		}
	}
}
