package store

import (
	"fmt"
	"strconv"
	"strings"
)

// AssetURL returns the URL an asset is served at.
func AssetURL(publicURL string, assetId uint64) string {
	return publicURL + "/asset/" + strconv.FormatUint(assetId, 10)
}

// AssetIDFromURL extracts the asset id from the last path segment of rawURL,
// ignoring any query string.
func AssetIDFromURL(rawURL string) (uint64, error) {
	path, _, _ := strings.Cut(rawURL, "?")
	path = strings.TrimRight(path, "/")

	segment := path[strings.LastIndex(path, "/")+1:]
	id, err := strconv.ParseUint(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("no asset id in %q", rawURL)
	}
	return id, nil
}
