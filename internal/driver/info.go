// Package driver holds the version codec and the download descriptor shared
// by the catalog client, the skip list, and the fulfillment pipeline.
package driver

import "strings"

// DownloadInfo describes one downloadable driver release.
type DownloadInfo struct {
	Version     Version
	DownloadURL string
}

// SkipID is the filesystem-safe marker name for this release.
func (d DownloadInfo) SkipID() string {
	id := strings.ReplaceAll(d.Version.String(), "/", "")
	id = strings.ReplaceAll(id, "\\", "")
	id = strings.ReplaceAll(id, ".", "")
	return "skip_" + id
}

// Equal reports whether both descriptors name the same release and URL.
func (d DownloadInfo) Equal(o DownloadInfo) bool {
	return d.Version.Equal(o.Version) && d.DownloadURL == o.DownloadURL
}
