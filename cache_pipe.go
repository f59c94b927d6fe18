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

import "context"

// CachePipe is the first stage in the default order. On get it serves
// whatever it can out of CacheBackend and removes those URIs from
// further processing; on get response it writes back whichever reads
// were requested without a pinned version; on publish response it writes
// the published nodes into the cache, and on delete response it evicts
// them.
type CachePipe struct {
	manager *CacheManager
}

// NewCachePipe returns a CachePipe backed by the process-wide
// CacheManager.
func NewCachePipe() *CachePipe {
	return &CachePipe{manager: defaultCacheManager}
}

func (p *CachePipe) Name() string { return "cache" }

func (p *CachePipe) GetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	for _, n := range req {
		if err := n.URI().Validate("namespace", "path"); err != nil {
			return nil, err
		}
	}

	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		Log.Error(err, "cache backend unavailable, skipping cache read")
		return NodeMap{}, nil
	}

	keys := make([]string, 0, len(req))
	keyToReqKey := map[string]string{}
	for reqKey, n := range req {
		if n.URI().IsVersioned() {
			continue
		}
		ck := n.URI().CacheKey()
		keys = append(keys, ck)
		keyToReqKey[ck] = reqKey
	}
	if len(keys) == 0 {
		return NodeMap{}, nil
	}

	hits, err := backend.GetMany(ctx, keys)
	if err != nil {
		Log.Error(err, "cache GetMany failed, skipping cache read")
		return NodeMap{}, nil
	}

	finalized := make(NodeMap, len(hits))
	for ck, cached := range hits {
		reqKey, ok := keyToReqKey[ck]
		if !ok {
			continue
		}
		if cached.URI.Ext != "" && req[reqKey].URI().Ext != "" && cached.URI.Ext != req[reqKey].URI().Ext {
			continue
		}
		CacheHitsTotal.Inc()
		n := req[reqKey]
		n.SetURI(cached.URI)
		n.SetContent(cached.Content)
		n.SetMeta(map[string]string{})
		finalized[reqKey] = n
		delete(req, reqKey)
	}
	CacheMissesTotal.Add(float64(len(keys) - len(finalized)))
	return finalized, nil
}

func (p *CachePipe) GetResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	if !s.Settings.GetBool("CACHE.PIPE.CACHE_ON_GET", true) {
		return resp, nil
	}
	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		Log.Error(err, "cache backend unavailable, skipping cache write")
		return resp, nil
	}
	for _, n := range resp {
		// Gate on the caller's original request, not the resolved URI:
		// storage always resolves to a concrete version, so checking
		// n.URI() here would never cache a default/published read.
		if n.InitialURI().IsVersioned() {
			continue
		}
		if err := n.URI().Validate("namespace", "path", "ext"); err != nil {
			Log.Error(err, "skipping cache write for invalid uri")
			continue
		}
		if err := backend.Set(ctx, n.URI().CacheKey(), &CachedNode{URI: n.URI(), Content: n.Content()}); err != nil {
			Log.Error(err, "cache Set failed")
		}
	}
	return resp, nil
}

func (p *CachePipe) PublishResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		Log.Error(err, "cache backend unavailable, skipping cache write")
		return resp, nil
	}
	for _, n := range resp {
		if err := n.URI().Validate("namespace", "path", "ext"); err != nil {
			Log.Error(err, "skipping cache write for invalid uri")
			continue
		}
		if err := backend.Set(ctx, n.URI().CacheKey(), &CachedNode{URI: n.URI(), Content: n.Content()}); err != nil {
			Log.Error(err, "cache Set failed")
		}
	}
	return resp, nil
}

func (p *CachePipe) DeleteResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		Log.Error(err, "cache backend unavailable, skipping cache invalidation")
		return resp, nil
	}
	keys := make([]string, 0, len(resp))
	for _, n := range resp {
		if err := n.URI().Validate("namespace", "path"); err != nil {
			Log.Error(err, "skipping cache invalidation for invalid uri")
			continue
		}
		keys = append(keys, n.URI().CacheKey())
	}
	if err := backend.DeleteMany(ctx, keys); err != nil {
		Log.Error(err, "cache DeleteMany failed")
	}
	return resp, nil
}
