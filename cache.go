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
	"context"
	"sync"
)

// CachedNode is the record a CacheBackend stores: the URI as last
// resolved (carrying whatever Ext the cached content was rendered for)
// and its content.
type CachedNode struct {
	URI     *URI
	Content Content
}

// CacheBackend is the pluggable storage a CachePipe reads through and
// writes behind, keyed by URI.CacheKey(). Implementations see only that
// key; CachePipe itself treats a cached record whose Ext differs from the
// requested URI's Ext as a miss, per the fingerprint-vs-representation
// distinction in uri.go.
type CacheBackend interface {
	Get(ctx context.Context, key string) (*CachedNode, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string]*CachedNode, error)
	Set(ctx context.Context, key string, node *CachedNode) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
}

// cacheRegistry resolves a "scheme://..." CACHE_BACKEND setting value to
// a CacheBackend constructor.
var cacheRegistry = newBackendRegistry[CacheBackend]()

// RegisterCacheBackend makes a CacheBackend constructor available under
// scheme for the CACHE_BACKEND setting to name.
func RegisterCacheBackend(scheme string, ctor func(config string) (CacheBackend, error)) {
	cacheRegistry.Register(scheme, ctor)
}

// CacheManager is the process-wide resolver handing a CachePipe its
// active CacheBackend, re-instantiating it whenever CACHE_BACKEND
// changes. Mirrors the teacher's pattern of keeping one long-lived cache
// instance behind a package-level accessor and invalidating it on
// configuration change, generalized from a single FieldCache/
// TemplateCache pair to an arbitrary registered backend.
type CacheManager struct {
	mu      sync.Mutex
	backend CacheBackend
	built   string
}

var defaultCacheManager = newCacheManager()

func newCacheManager() *CacheManager {
	m := &CacheManager{}
	WatchSettings(m.invalidate)
	return m
}

// invalidate drops the held backend unless the base CACHE_BACKEND value
// is still the one it was built from.
func (m *CacheManager) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := GetBaseSetting("CACHE_BACKEND"); ok && v == m.built {
		return
	}
	m.backend = nil
	m.built = ""
}

// Backend returns the CacheBackend named by settings' CACHE_BACKEND,
// building and caching it on first use or whenever that value differs
// from the one the held backend was built from.
func (m *CacheManager) Backend(settings *Settings) (CacheBackend, error) {
	value := settings.GetString("CACHE_BACKEND")
	if value == "" {
		if v, ok := GetBaseSetting("CACHE_BACKEND"); ok {
			value, _ = v.(string)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backend != nil && m.built == value {
		return m.backend, nil
	}
	backend, err := cacheRegistry.Build(value)
	if err != nil {
		return nil, err
	}
	m.backend, m.built = backend, value
	return backend, nil
}

func init() {
	RegisterCacheBackend("memory", func(config string) (CacheBackend, error) {
		return NewMemCache(), nil
	})
}
