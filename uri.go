/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cio

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// DefaultScheme is substituted for an empty scheme during parsing.
var DefaultScheme = "i18n"

// Query is an ordered multi-value mapping, preserving insertion order for
// serialization, the way the original's query parser does.
type Query struct {
	keys   []string
	values map[string][]string
}

// NewQuery returns an empty, ordered Query.
func NewQuery() *Query {
	return &Query{values: map[string][]string{}}
}

// Set replaces all values for key and records insertion order on first use.
func (q *Query) Set(key string, values ...string) {
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = values
}

// Get returns the first value for key, or "" if absent.
func (q *Query) Get(key string) string {
	if v, ok := q.values[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns all values recorded for key.
func (q *Query) Values(key string) []string {
	return q.values[key]
}

// Keys returns the query keys in insertion order.
func (q *Query) Keys() []string {
	return append([]string(nil), q.keys...)
}

func (q *Query) isEmpty() bool {
	return q == nil || len(q.keys) == 0
}

func (q *Query) clone() *Query {
	if q.isEmpty() {
		return nil
	}
	nq := NewQuery()
	for _, k := range q.keys {
		nq.Set(k, q.values[k]...)
	}
	return nq
}

func (q *Query) String() string {
	if q.isEmpty() {
		return ""
	}
	parts := make([]string, 0, len(q.keys))
	for _, k := range q.keys {
		vs := q.values[k]
		if len(vs) == 0 {
			parts = append(parts, url.QueryEscape(k))
			continue
		}
		for _, v := range vs {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

// URI is an immutable content address of the form
//
//	scheme://namespace@path.ext?query#version
//
// All parts except Path are optional. Equality and ordering are defined by
// the rendered string (see String). Use Clone to derive a new URI with
// individual parts replaced.
type URI struct {
	Scheme    string
	Namespace string
	Path      string
	Ext       string
	Version   string
	Query     *Query
}

// Parse parses s into a URI. Parsing is total: well-formed strings never
// produce an error. Version and query are split off at the first '#' and
// the first '?' respectively, in that order; scheme, namespace and
// extension are then right-partitioned from what remains.
func Parse(s string) (*URI, error) {
	rest := s

	version := ""
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		version = rest[i+1:]
		rest = rest[:i]
	}

	var query *Query
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		query = parseQuery(rest[i+1:])
		rest = rest[:i]
	}

	scheme := ""
	if i := strings.LastIndex(rest, "://"); i >= 0 {
		scheme = rest[:i]
		rest = rest[i+3:]
	}

	namespace := ""
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		namespace = rest[:i]
		rest = rest[i+1:]
	}

	path := rest
	ext := ""
	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		candidate := rest[i+1:]
		if !strings.Contains(candidate, "/") {
			path = rest[:i]
			ext = candidate
		}
	}

	if path == "" && ext != "" {
		// Only an extension was found; promote it to the path (e.g. ".txt").
		path = ext
		ext = ""
	}

	if scheme == "" {
		scheme = DefaultScheme
	}

	return &URI{
		Scheme:    scheme,
		Namespace: namespace,
		Path:      path,
		Ext:       ext,
		Version:   version,
		Query:     query,
	}, nil
}

// MustParse is like Parse but panics on error; Parse never actually
// returns an error for well-formed input, this exists for call sites that
// build URIs from string literals.
func MustParse(s string) *URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func parseQuery(raw string) *Query {
	if raw == "" {
		return nil
	}
	q := NewQuery()
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		var k, v string
		var hasValue bool
		if i := strings.IndexByte(pair, '='); i >= 0 {
			k, v, hasValue = pair[:i], pair[i+1:], true
		} else {
			k = pair
		}
		dk, err := url.QueryUnescape(k)
		if err != nil {
			dk = k
		}
		if !hasValue {
			q.Set(dk)
			continue
		}
		dv, err := url.QueryUnescape(v)
		if err != nil {
			dv = v
		}
		q.Set(dk, dv)
	}
	if q.isEmpty() {
		return nil
	}
	return q
}

// String renders the URI, omitting every segment whose source part is
// empty. Serializing then parsing always yields an equal URI.
func (u *URI) String() string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString("://")
	}
	if u.Namespace != "" {
		b.WriteString(u.Namespace)
		b.WriteByte('@')
	}
	b.WriteString(u.Path)
	if u.Ext != "" {
		b.WriteByte('.')
		b.WriteString(u.Ext)
	}
	if !u.Query.isEmpty() {
		b.WriteByte('?')
		b.WriteString(u.Query.String())
	}
	if u.Version != "" {
		b.WriteByte('#')
		b.WriteString(u.Version)
	}
	return b.String()
}

// Equal reports whether u and other render to the same string.
func (u *URI) Equal(other *URI) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.String() == other.String()
}

// Less defines a total order over URIs by their rendered string, used by
// SortKeys.
func (u *URI) Less(other *URI) bool {
	return u.String() < other.String()
}

// Clone returns a new URI equal to u, except for the parts mutated by opts.
func (u *URI) Clone(opts ...URIOption) *URI {
	nu := &URI{
		Scheme:    u.Scheme,
		Namespace: u.Namespace,
		Path:      u.Path,
		Ext:       u.Ext,
		Version:   u.Version,
		Query:     u.Query.clone(),
	}
	for _, opt := range opts {
		opt(nu)
	}
	return nu
}

// URIOption mutates a single part of a URI being cloned.
type URIOption func(*URI)

func WithScheme(v string) URIOption    { return func(u *URI) { u.Scheme = v } }
func WithNamespace(v string) URIOption { return func(u *URI) { u.Namespace = v } }
func WithPath(v string) URIOption      { return func(u *URI) { u.Path = v } }
func WithExt(v string) URIOption       { return func(u *URI) { u.Ext = v } }
func WithVersion(v string) URIOption   { return func(u *URI) { u.Version = v } }
func WithQuery(v *Query) URIOption     { return func(u *URI) { u.Query = v } }

// WithoutVersion clears the version; per the cache-key invariant it is
// commonly paired with WithoutExt.
func WithoutVersion() URIOption { return func(u *URI) { u.Version = "" } }

// WithoutExt clears the extension.
func WithoutExt() URIOption { return func(u *URI) { u.Ext = "" } }

// HasParts reports whether each named part is non-empty. Valid names are
// "scheme", "namespace", "path", "ext", "version".
func (u *URI) HasParts(parts ...string) bool {
	for _, p := range parts {
		var v string
		switch p {
		case "scheme":
			v = u.Scheme
		case "namespace":
			v = u.Namespace
		case "path":
			v = u.Path
		case "ext":
			v = u.Ext
		case "version":
			v = u.Version
		default:
			return false
		}
		if v == "" {
			return false
		}
	}
	return true
}

// Validate returns a URIInvalid error naming u and the missing parts if u
// does not have every one of parts, or nil if it does. CachePipe and
// StoragePipe call this at their hook entry points per spec.md §4.6's per-operation
// required-parts table.
func (u *URI) Validate(parts ...string) error {
	if u.HasParts(parts...) {
		return nil
	}
	return URIInvalid(u.String(), "must contain "+strings.Join(parts, ", "))
}

// IsDraft reports whether the URI is pinned to the literal draft version.
func (u *URI) IsDraft() bool {
	return u.Version == "draft"
}

// IsVersioned reports whether the URI is pinned to any explicit version
// (draft or numeric).
func (u *URI) IsVersioned() bool {
	return u.Version != ""
}

// Key renders the fingerprint key of the URI: scheme, namespace, and path
// only, with ext and version cleared, so that all variants of one
// logical node share one storage/cache slot.
func (u *URI) Key() string {
	return (&URI{Scheme: u.Scheme, Namespace: u.Namespace, Path: u.Path}).String()
}

// CacheKey returns the SHA-1 hex digest of Key(), avoiding the key-length
// and whitespace restrictions of common cache servers (memcached et al.).
func (u *URI) CacheKey() string {
	sum := sha1.Sum([]byte(u.Key()))
	return hex.EncodeToString(sum[:])
}

// SortKeys sorts uris in place by their rendered string.
func SortKeys(uris []*URI) {
	sort.Slice(uris, func(i, j int) bool { return uris[i].Less(uris[j]) })
}
