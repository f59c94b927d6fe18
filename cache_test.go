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
	"testing"
)

func TestMemCacheGetMiss(t *testing.T) {
	c := NewMemCache()
	_, ok, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for unset key")
	}
}

func TestMemCacheSetGetRoundtrip(t *testing.T) {
	c := NewMemCache()
	u := MustParse("cache/item.txt")
	content := NewContent("hello")

	if err := c.Set(context.Background(), u.CacheKey(), &CachedNode{URI: u, Content: content}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, ok, err := c.Get(context.Background(), u.CacheKey())
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if *got.Content != "hello" {
		t.Fatalf("expected content hello, got %v", *got.Content)
	}
}

func TestMemCacheDeleteMany(t *testing.T) {
	c := NewMemCache()
	u1 := MustParse("cache/one.txt")
	u2 := MustParse("cache/two.txt")
	ctx := context.Background()
	c.Set(ctx, u1.CacheKey(), &CachedNode{URI: u1, Content: NewContent("1")})
	c.Set(ctx, u2.CacheKey(), &CachedNode{URI: u2, Content: NewContent("2")})

	if err := c.DeleteMany(ctx, []string{u1.CacheKey(), u2.CacheKey()}); err != nil {
		t.Fatalf("DeleteMany returned error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, u1.CacheKey()); ok {
		t.Fatalf("expected u1 evicted")
	}
	if _, ok, _ := c.Get(ctx, u2.CacheKey()); ok {
		t.Fatalf("expected u2 evicted")
	}
}

func TestCacheManagerResolvesRegisteredScheme(t *testing.T) {
	settings := NewSettings()
	settings.Set("CACHE_BACKEND", "memory://cache-manager-test")

	backend, err := defaultCacheManager.Backend(settings)
	if err != nil {
		t.Fatalf("Backend returned error: %v", err)
	}
	if _, ok := backend.(*MemCache); !ok {
		t.Fatalf("expected *MemCache, got %T", backend)
	}
}

func TestCacheManagerRejectsUnknownScheme(t *testing.T) {
	settings := NewSettings()
	settings.Set("CACHE_BACKEND", "s3://bucket")

	if _, err := defaultCacheManager.Backend(settings); err == nil {
		t.Fatalf("expected error for unregistered scheme")
	}
}
