package filestore

import (
	"io"
	"path"
	"strings"
	"time"
)

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "arena/archer.yaml").
	Key string `json:"key"`

	// Size is the byte size of the object. -1 if unknown.
	Size int64 `json:"size"`

	// ContentType is the MIME type (e.g. "application/yaml").
	ContentType string `json:"content_type,omitempty"`

	// ETag is the object's entity tag / hash, as returned by the backend.
	ETag string `json:"etag,omitempty"`

	// LastModified is when the object was last written.
	LastModified time.Time `json:"last_modified"`

	// IsDir is true when the entry represents a virtual directory (prefix),
	// not an actual stored object.
	IsDir bool `json:"is_dir"`
}

// HasExt reports whether the object key ends in one of exts
// (compared case-insensitively, dots included: ".yaml").
func (o ObjectInfo) HasExt(exts ...string) bool {
	if o.IsDir {
		return false
	}
	ext := strings.ToLower(path.Ext(o.Key))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// ListOptions controls how ListObjects filters and paginates results.
type ListOptions struct {
	// Prefix restricts results to objects whose key starts with this string.
	// Use "" to list everything in the bucket.
	Prefix string

	// Recursive, when true, lists all objects under the prefix without
	// grouping by virtual directories.
	Recursive bool

	// Limit caps the number of results returned. 0 means no cap.
	Limit int

	// Marker is the pagination cursor: listing starts after this key.
	Marker string
}
