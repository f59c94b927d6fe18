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

// Version selectors passed to StorageBackend.Get/GetMany/Publish. A
// StoredNode's own Version field is always a concrete number (0 meaning
// draft, the same value as VersionDraft); the negative VersionPublished
// is query-side only, asking the backend to resolve "whichever row is
// currently published" without the caller needing to know its number.
const (
	VersionDraft     = 0
	VersionPublished = -1
)

// StoredNode is the durable record a StorageBackend persists: the key a
// URI's Key() fingerprint maps to, its content, the plugin extension it
// was written under, its version (0 meaning draft), whether it is the
// currently published row for its key, and its metadata.
type StoredNode struct {
	Key         string
	Content     Content
	PluginExt   string
	Version     int
	IsPublished bool
	Meta        map[string]string
}

// StorageKey is one (fingerprint, version-selector) request to a
// StorageBackend's batch Get.
type StorageKey struct {
	Key     string
	Version int
}

// StorageBackend is the durable store a StoragePipe reads through and
// writes behind. Get/GetMany read by version selector and Set writes the
// row for the node's version; Publish promotes the current draft to a new
// monotone version, or re-publishes an existing numbered one; GetRevisions
// and Search expose the version chain and namespace/path-prefix lookups
// respectively.
type StorageBackend interface {
	Get(ctx context.Context, key string, version int) (*StoredNode, bool, error)
	GetMany(ctx context.Context, keys []StorageKey) (map[string]*StoredNode, error)
	Set(ctx context.Context, node *StoredNode) (created bool, err error)
	Delete(ctx context.Context, key string) (*StoredNode, error)
	DeleteMany(ctx context.Context, keys []string) (map[string]*StoredNode, error)
	Publish(ctx context.Context, key string, version int) (*StoredNode, error)
	GetRevisions(ctx context.Context, key string) ([]*StoredNode, error)
	Search(ctx context.Context, namespace, pathPrefix string) ([]string, error)
}

var storageRegistry = newBackendRegistry[StorageBackend]()

// RegisterStorageBackend makes a StorageBackend constructor available
// under scheme for the STORAGE_BACKEND setting to name.
func RegisterStorageBackend(scheme string, ctor func(config string) (StorageBackend, error)) {
	storageRegistry.Register(scheme, ctor)
}

// StorageManager resolves the process-wide active StorageBackend from
// the STORAGE_BACKEND setting, the storage-side counterpart to
// CacheManager.
type StorageManager struct {
	mu      sync.Mutex
	backend StorageBackend
	built   string
}

var defaultStorageManager = newStorageManager()

func newStorageManager() *StorageManager {
	m := &StorageManager{}
	WatchSettings(m.invalidate)
	return m
}

// invalidate drops the held backend unless the base STORAGE_BACKEND
// value is still the one it was built from.
func (m *StorageManager) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := GetBaseSetting("STORAGE_BACKEND"); ok && v == m.built {
		return
	}
	m.backend = nil
	m.built = ""
}

// Backend returns the StorageBackend named by settings' STORAGE_BACKEND,
// building and caching it on first use or whenever that value differs
// from the one the held backend was built from.
func (m *StorageManager) Backend(settings *Settings) (StorageBackend, error) {
	value := settings.GetString("STORAGE_BACKEND")
	if value == "" {
		if v, ok := GetBaseSetting("STORAGE_BACKEND"); ok {
			value, _ = v.(string)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backend != nil && m.built == value {
		return m.backend, nil
	}
	backend, err := storageRegistry.Build(value)
	if err != nil {
		return nil, err
	}
	m.backend, m.built = backend, value
	return backend, nil
}

func init() {
	RegisterStorageBackend("memory", func(config string) (StorageBackend, error) {
		return NewMemStore(), nil
	})
}
