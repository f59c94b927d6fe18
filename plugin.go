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

import "sync"

// Plugin implements the content-type-specific behavior a PluginPipe
// delegates to once a node's extension is resolved: transforming content
// on its way into and out of storage, and rendering it for presentation.
// Load/Save/Publish/Delete all default to passthrough in BasePlugin; a
// concrete plugin overrides only what it needs to.
type Plugin interface {
	// Ext is the file extension this plugin is registered under.
	Ext() string
	// Load transforms content as it comes out of storage, before it
	// reaches the caller.
	Load(node *Node) error
	// Save transforms content as it goes into storage.
	Save(node *Node) error
	// Publish runs immediately before a node's draft is promoted.
	Publish(node *Node) error
	// Delete runs in the delete response pass, after storage, for each
	// node whose content is not the Empty sentinel.
	Delete(node *Node) error
	// Render produces the presentation form of the node's content.
	Render(node *Node, ctx map[string]interface{}) (*string, error)
}

// BasePlugin is the identity implementation every reference plugin
// embeds, overriding only the hooks it needs. Mirrors the teacher's base
// cache/template types that concrete caches embed and partially
// override.
type BasePlugin struct {
	ext string
}

func (p *BasePlugin) Ext() string { return p.ext }

func (p *BasePlugin) Load(node *Node) error { return nil }

func (p *BasePlugin) Save(node *Node) error { return nil }

func (p *BasePlugin) Publish(node *Node) error { return nil }

func (p *BasePlugin) Delete(node *Node) error { return nil }

func (p *BasePlugin) Render(node *Node, ctx map[string]interface{}) (*string, error) {
	return node.Render(ctx), nil
}

// PluginRegistry resolves a URI's Ext to a Plugin, consulting the
// PLUGINS setting on every Resolve call.
type PluginRegistry struct {
	mu        sync.RWMutex
	available map[string]Plugin
}

var defaultPluginRegistry = newPluginRegistry()

func newPluginRegistry() *PluginRegistry {
	r := &PluginRegistry{available: map[string]Plugin{}}
	r.Register(&TextPlugin{BasePlugin{ext: "txt"}})
	r.Register(NewMarkdownPlugin())
	r.Register(NewImagePlugin())
	return r
}

// Register makes p available under p.Ext() for the PLUGINS setting to
// name.
func (r *PluginRegistry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.available[p.Ext()] = p
}

// Resolve returns the Plugin configured for uri's extension via the
// PLUGINS setting, falling back to a plugin directly registered under
// that extension, and finally to DEFAULT_EXT's plugin when uri carries
// no extension at all.
func (r *PluginRegistry) Resolve(settings *Settings, uri *URI) (Plugin, error) {
	ext := uri.Ext
	if ext == "" {
		ext = settings.GetString("DEFAULT_EXT")
		if ext == "" {
			ext = "txt"
		}
	}

	if mapping, ok := settings.Get("PLUGINS"); ok {
		if m, ok := mapping.(map[string]string); ok {
			if target, ok := m[ext]; ok {
				ext = target
			}
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.available[ext]
	if !ok {
		return nil, UnknownPlugin(ext)
	}
	return p, nil
}
