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
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultSettings mirrors cio/conf/default_settings.py: the process-wide
// base configuration, in effect before any process-wide override or
// session-scoped overlay is applied.
var DefaultSettings = map[string]interface{}{
	"STORAGE_BACKEND":          "memory://default",
	"CACHE_BACKEND":            "memory://default",
	"CACHE.PIPE.CACHE_ON_GET":  true,
	"DEFAULT_EXT":              "txt",
	"PIPES": []string{
		"cache", "meta", "plugin", "storage", "namespace_fallback",
	},
	"PLUGINS": map[string]string{
		"txt": "txt",
		"md":  "md",
		"img": "img",
	},
}

// settingsStore holds the process-wide base settings: DefaultSettings
// overlaid with whatever an application mutated via SetBaseSetting or
// LoadSettingsYAML. It is process-wide, per the concurrency model in
// spec.md §5 — unlike the per-Session overlay (Settings, below).
type settingsStore struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

var baseSettings = &settingsStore{values: cloneSettingsMap(DefaultSettings)}

func cloneSettingsMap(m map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// SetBaseSetting mutates the process-wide base settings and notifies
// registered settings listeners.
func SetBaseSetting(key string, value interface{}) {
	baseSettings.mu.Lock()
	baseSettings.values[key] = value
	baseSettings.mu.Unlock()
	notifySettingsListeners()
}

// GetBaseSetting returns the process-wide base setting for key.
func GetBaseSetting(key string) (interface{}, bool) {
	baseSettings.mu.RLock()
	defer baseSettings.mu.RUnlock()
	v, ok := baseSettings.values[key]
	return v, ok
}

// LoadSettingsYAML decodes UPPER_SNAKE key/value pairs from r into the
// process-wide base settings, mirroring default_settings.py's role as a
// bootstrap file, and notifies registered settings listeners exactly
// once for the whole batch.
func LoadSettingsYAML(r io.Reader) error {
	var loaded map[string]interface{}
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&loaded); err != nil {
		return err
	}

	baseSettings.mu.Lock()
	for k, v := range loaded {
		baseSettings.values[k] = v
	}
	baseSettings.mu.Unlock()

	notifySettingsListeners()
	return nil
}

var (
	settingsListenersMu sync.Mutex
	settingsListeners   []func()
)

// WatchSettings registers fn to be called synchronously whenever the
// base settings, or any Settings overlay, mutate. Panics inside fn are
// logged and swallowed; they never abort the settings change.
func WatchSettings(fn func()) {
	settingsListenersMu.Lock()
	defer settingsListenersMu.Unlock()
	settingsListeners = append(settingsListeners, fn)
}

func notifySettingsListeners() {
	settingsListenersMu.Lock()
	listeners := append([]func(){}, settingsListeners...)
	settingsListenersMu.Unlock()

	for _, fn := range listeners {
		callListenerSafely(fn)
	}
}

// Settings is a session-scoped overlay over the process-wide base
// settings: Get first consults the overlay, then falls through to the
// base. Mutating the overlay notifies the same process-wide listener
// registry as SetBaseSetting.
type Settings struct {
	mu      sync.RWMutex
	overlay map[string]interface{}
}

// NewSettings returns an empty overlay over the process-wide base
// settings.
func NewSettings() *Settings {
	return &Settings{overlay: map[string]interface{}{}}
}

// Get resolves key from the overlay, falling through to the base
// settings.
func (s *Settings) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	v, ok := s.overlay[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}
	return GetBaseSetting(key)
}

// Set mutates the session-scoped overlay and notifies registered
// listeners.
func (s *Settings) Set(key string, value interface{}) {
	s.mu.Lock()
	s.overlay[key] = value
	s.mu.Unlock()
	notifySettingsListeners()
}

// GetString is a convenience accessor returning "" when key is unset or
// not a string.
func (s *Settings) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// GetBool is a convenience accessor returning def when key is unset or
// not a bool.
func (s *Settings) GetBool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}
