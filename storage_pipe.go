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
	"errors"
	"strconv"
)

// StoragePipe is the durable-read/write stage: it serves whatever the
// cache didn't, and commits sets/deletes/publishes.
type StoragePipe struct {
	manager *StorageManager
}

// NewStoragePipe returns a StoragePipe backed by the process-wide
// StorageManager.
func NewStoragePipe() *StoragePipe {
	return &StoragePipe{manager: defaultStorageManager}
}

func (p *StoragePipe) Name() string { return "storage" }

// versionSelector maps a URI's Version part to the selector a
// StorageBackend.Get/GetMany call expects: VersionPublished for an
// unpinned URI, VersionDraft for "draft", or the parsed numeric version.
func versionSelector(uri *URI) int {
	switch uri.Version {
	case "":
		return VersionPublished
	case "draft":
		return VersionDraft
	default:
		n, err := strconv.Atoi(uri.Version)
		if err != nil {
			return VersionPublished
		}
		return n
	}
}

func versionString(v int) string {
	if v == VersionDraft {
		return "draft"
	}
	return strconv.Itoa(v)
}

// publishVersionSelector maps a publish target URI's Version part to
// the version Publish should promote: an unpinned or explicit "draft"
// URI promotes the current draft; a pinned numeric URI re-publishes
// that exact existing version (S3's revision-rollback scenario).
func publishVersionSelector(uri *URI) int {
	switch uri.Version {
	case "", "draft":
		return VersionDraft
	default:
		n, err := strconv.Atoi(uri.Version)
		if err != nil {
			return VersionDraft
		}
		return n
	}
}

// uriFromStored reconstructs the full URI a StoredNode was written
// under: its fingerprint key re-parsed, with ext and version restored.
func uriFromStored(stored *StoredNode) (*URI, error) {
	base, err := Parse(stored.Key)
	if err != nil {
		return nil, err
	}
	return base.Clone(WithExt(stored.PluginExt), WithVersion(versionString(stored.Version))), nil
}

func metaToStrings(meta map[string]string) map[string]string {
	if meta == nil {
		return map[string]string{}
	}
	return meta
}

func (p *StoragePipe) GetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	for _, n := range req {
		if err := n.URI().Validate("namespace", "path"); err != nil {
			return nil, err
		}
	}

	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		return nil, err
	}

	keys := make([]StorageKey, 0, len(req))
	keyToReqKey := map[string]string{}
	for reqKey, n := range req {
		sk := StorageKey{Key: n.URI().Key(), Version: versionSelector(n.URI())}
		keys = append(keys, sk)
		keyToReqKey[sk.Key] = reqKey
	}

	hits, err := backend.GetMany(ctx, keys)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("get_many").Inc()
		return nil, err
	}

	finalized := make(NodeMap, len(hits))
	for key, stored := range hits {
		reqKey, ok := keyToReqKey[key]
		if !ok {
			continue
		}
		uri, err := uriFromStored(stored)
		if err != nil {
			return nil, err
		}
		n := req[reqKey]
		n.SetURI(uri)
		n.SetContent(stored.Content)
		n.SetMeta(metaToStrings(stored.Meta))
		finalized[reqKey] = n
		delete(req, reqKey)
	}
	return finalized, nil
}

func (p *StoragePipe) GetResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	defaultExt := s.Settings.GetString("DEFAULT_EXT")
	if defaultExt == "" {
		defaultExt = "txt"
	}
	for _, n := range resp {
		if n.URI().Ext == "" {
			n.SetURI(n.URI().Clone(WithExt(defaultExt)))
		}
	}
	return resp, nil
}

func (p *StoragePipe) SetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	for _, n := range req {
		if err := n.URI().Validate("namespace", "path", "ext", "version"); err != nil {
			return nil, err
		}
	}

	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		return nil, err
	}
	for _, n := range req {
		stored := &StoredNode{
			Key:       n.URI().Key(),
			Content:   n.Content(),
			PluginExt: n.URI().Ext,
			Version:   VersionDraft,
			Meta:      n.Meta(),
		}
		if _, err := backend.Set(ctx, stored); err != nil {
			StorageErrorsTotal.WithLabelValues("set").Inc()
			return nil, err
		}
		uri, err := uriFromStored(stored)
		if err != nil {
			return nil, err
		}
		n.SetURI(uri)
		n.SetMeta(metaToStrings(stored.Meta))
	}
	return NodeMap{}, nil
}

func (p *StoragePipe) DeleteRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	for _, n := range req {
		if err := n.URI().Validate("namespace", "path", "version"); err != nil {
			return nil, err
		}
	}

	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(req))
	keyToReqKey := map[string]string{}
	for reqKey, n := range req {
		key := n.URI().Key()
		keys = append(keys, key)
		keyToReqKey[key] = reqKey
	}

	deleted, err := backend.DeleteMany(ctx, keys)
	if err != nil {
		StorageErrorsTotal.WithLabelValues("delete_many").Inc()
		return nil, err
	}

	finalized := make(NodeMap, len(deleted))
	for key, stored := range deleted {
		reqKey, ok := keyToReqKey[key]
		if !ok {
			continue
		}
		n := req[reqKey]
		n.SetContent(Empty)
		n.SetMeta(metaToStrings(stored.Meta))
		finalized[reqKey] = n
		delete(req, reqKey)
	}
	return finalized, nil
}

func (p *StoragePipe) PublishRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	for _, n := range req {
		if err := n.URI().Validate("namespace", "path", "version"); err != nil {
			return nil, err
		}
	}

	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		return nil, err
	}

	finalized := make(NodeMap, len(req))
	for reqKey, n := range req {
		stored, err := backend.Publish(ctx, n.URI().Key(), publishVersionSelector(n.URI()))
		if errors.Is(err, ErrNodeDoesNotExist) {
			delete(req, reqKey)
			continue
		}
		if err != nil {
			StorageErrorsTotal.WithLabelValues("publish").Inc()
			return nil, err
		}
		uri, err := uriFromStored(stored)
		if err != nil {
			return nil, err
		}
		n.SetURI(uri)
		n.SetContent(stored.Content)
		n.SetMeta(metaToStrings(stored.Meta))
		finalized[reqKey] = n
		delete(req, reqKey)
	}
	return finalized, nil
}
