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

// MemCache is the in-memory reference CacheBackend, the cache-side
// counterpart to MemStore, grounded on the same tests/memstorage.py
// fixture and the teacher's EphemeralCache.
type MemCache struct {
	mu      sync.RWMutex
	entries map[string]*CachedNode
}

// NewMemCache returns an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{entries: map[string]*CachedNode{}}
}

func (c *MemCache) Get(ctx context.Context, key string) (*CachedNode, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := *n
	return &cp, true, nil
}

func (c *MemCache) GetMany(ctx context.Context, keys []string) (map[string]*CachedNode, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*CachedNode, len(keys))
	for _, k := range keys {
		if n, ok := c.entries[k]; ok {
			cp := *n
			out[k] = &cp
		}
	}
	return out, nil
}

func (c *MemCache) Set(ctx context.Context, key string, node *CachedNode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *node
	c.entries[key] = &cp
	return nil
}

func (c *MemCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemCache) DeleteMany(ctx context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}
