package domain

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Filters are collection query parameters.
type Filters map[string]string

// Canonical returns a deterministic encoding with keys sorted.
func (f Filters) Canonical() string {
	if len(f) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(f))
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f[k]))
	}
	return b.String()
}

// Values converts the filters to URL query values.
func (f Filters) Values() url.Values {
	if len(f) == 0 {
		return nil
	}
	v := make(url.Values, len(f))
	for k, val := range f {
		v.Set(k, val)
	}
	return v
}

// Hash returns a short stable digest of the canonical encoding.
func (f Filters) Hash() string {
	return strconv.FormatUint(xxhash.Sum64String(f.Canonical()), 16)
}

// QueryKey identifies a query-cache entry. Keys are compared element-wise and
// invalidated by prefix.
type QueryKey []string

const (
	scopeDetail = "detail"
	scopeList   = "list"
)

// DetailKey is the cache key of a single entity read.
func DetailKey(t EntityType, id string) QueryKey {
	return QueryKey{string(t), scopeDetail, id}
}

// ListKey is the cache key of a collection read with the given filters.
func ListKey(t EntityType, f Filters) QueryKey {
	return QueryKey{string(t), scopeList, f.Hash()}
}

// ListPrefix matches every collection read of a type.
func ListPrefix(t EntityType) QueryKey {
	return QueryKey{string(t), scopeList}
}

// String joins the key into a single cache index.
func (k QueryKey) String() string {
	return strings.Join(k, "\x1f")
}

// HasPrefix reports whether k starts with every element of prefix.
func (k QueryKey) HasPrefix(prefix QueryKey) bool {
	if len(prefix) > len(k) {
		return false
	}
	return slices.Equal(k[:len(prefix)], prefix)
}
