// Package mediaurl builds the public URLs handed out for stored media.
// Media URLs are opaque to the rest of the system; only this package
// knows their shape.
package mediaurl

import "strings"

const PathPrefix = "/media/"

// Blob returns the public URL for a stored blob.
func Blob(baseURL, blobID string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return PathPrefix + blobID
	}
	return baseURL + PathPrefix + blobID
}
