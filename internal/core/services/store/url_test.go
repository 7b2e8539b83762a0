package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetURL(t *testing.T) {
	assert.Equal(t, "https://files.example.com/asset/12", AssetURL("https://files.example.com", 12))
}

func TestAssetIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want uint64
	}{
		{url: "/asset/7", want: 7},
		{url: "https://files.example.com/asset/42?download=1", want: 42},
		{url: "/asset/3/", want: 3},
		{url: "9", want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, err := AssetIDFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	for _, bad := range []string{"", "/asset/", "/asset/abc", "/asset/-1"} {
		_, err := AssetIDFromURL(bad)
		assert.Error(t, err, bad)
	}

	id, err := AssetIDFromURL(AssetURL("http://localhost:8080", 1234))
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), id)
}
