package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseListingScope(t *testing.T) {
	tests := []struct {
		kind string
		want ListingScope
	}{
		{"listed", ScopeListed},
		{"fetchItemsListed", ScopeListed},
		{" LISTED ", ScopeListed},
		{"owned", ScopeOwned},
		{"fetchMyNFTs", ScopeOwned},
		{"", ScopeOwned},
		{"anything", ScopeOwned},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			require.Equal(t, tt.want, ParseListingScope(tt.kind))
		})
	}
}

func TestFormInputComplete(t *testing.T) {
	full := FormInput{Name: "Art", Description: "d", Price: "0.5"}
	require.True(t, full.Complete())

	for _, f := range []FormInput{
		{Description: "d", Price: "0.5"},
		{Name: "Art", Price: "0.5"},
		{Name: "Art", Description: "d"},
		{Name: "  ", Description: "d", Price: "0.5"},
	} {
		require.False(t, f.Complete(), "%+v", f)
	}
}
