package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBrand(t *testing.T) {
	assert.Equal(t, Brand{Color: "#E50914", Initial: "N"}, LookupBrand("Netflix"))
	assert.Equal(t, Brand{Color: "#D4A574", Initial: "C"}, LookupBrand("CLAUDE CODE"))
	assert.Equal(t, Brand{Color: "#007AFF", Initial: "i"}, LookupBrand("iCloud+"))
	assert.True(t, IsKnownBrand("disney+"))

	assert.Equal(t, Brand{Color: DefaultBrandColor, Initial: "G"}, LookupBrand("gym membership"))
	assert.Equal(t, Brand{Color: DefaultBrandColor, Initial: "É"}, LookupBrand("école"))
	assert.Equal(t, Brand{Color: DefaultBrandColor, Initial: "?"}, LookupBrand(""))
	assert.False(t, IsKnownBrand("gym membership"))
}

func TestLoadBrands(t *testing.T) {
	m, err := loadBrands([]byte("Foo Bar: {color: \"#123456\", initial: \"F\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, Brand{Color: "#123456", Initial: "F"}, m["foo bar"])

	_, err = loadBrands([]byte("- not a map"))
	assert.Error(t, err)
}

func TestTenure(t *testing.T) {
	now := time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		days int
		want string
	}{
		{0, "0d"},
		{29, "29d"},
		{30, "1mo"},
		{359, "11mo"},
		{360, "1y"},
		{450, "1y 3mo"},
		{-3, "0d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Tenure(now.AddDate(0, 0, -tc.days), now), "days=%d", tc.days)
	}
}
