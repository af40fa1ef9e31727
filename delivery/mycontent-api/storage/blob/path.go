package blob

import (
	"fmt"
	"net/url"
	"strings"
)

const objectMarker = "/o/"

// ResolvePath derives the blob path from a retrieval URL of the form
// ".../o/<percent-encoded path>?<query>".
// Used for legacy records that were stored without an explicit path.
func ResolvePath(assetURL string) (string, error) {
	idx := strings.Index(assetURL, objectMarker)
	if idx < 0 {
		return "", fmt.Errorf("%w: no %q segment in %q", ErrUnresolvablePath, objectMarker, assetURL)
	}

	encoded := assetURL[idx+len(objectMarker):]
	if end := strings.IndexAny(encoded, "?#"); end >= 0 {
		encoded = encoded[:end]
	}

	path, err := url.PathUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnresolvablePath, err)
	}

	if path == "" {
		return "", fmt.Errorf("%w: empty path in %q", ErrUnresolvablePath, assetURL)
	}

	return path, nil
}
