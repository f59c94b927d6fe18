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

// PluginPipe delegates content-type-specific transforms to the Plugin
// resolved from a node's extension: save/publish on the way in,
// load+render on the way back out of get/set/publish, and delete on the
// delete response pass. An unresolved extension is silently skipped by
// the save, publish and delete hooks (content is left unmodified) but is
// a hard error on render, since by then the pipeline has committed to
// producing presentable content; a set or publish of such a node
// therefore fails in its response pass.
type PluginPipe struct {
	registry *PluginRegistry
}

// NewPluginPipe returns a PluginPipe backed by the process-wide
// PluginRegistry.
func NewPluginPipe() *PluginPipe {
	return &PluginPipe{registry: defaultPluginRegistry}
}

func (p *PluginPipe) Name() string { return "plugin" }

func (p *PluginPipe) SetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	for _, n := range req {
		plugin, err := p.registry.Resolve(s.Settings, n.URI())
		if err != nil {
			continue
		}
		if err := plugin.Save(n); err != nil {
			Log.Error(err, "plugin save failed", "ext", plugin.Ext())
		}
	}
	return NodeMap{}, nil
}

func (p *PluginPipe) PublishRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	for _, n := range req {
		plugin, err := p.registry.Resolve(s.Settings, n.URI())
		if err != nil {
			continue
		}
		if err := plugin.Publish(n); err != nil {
			Log.Error(err, "plugin publish failed", "ext", plugin.Ext())
		}
	}
	return NodeMap{}, nil
}

func (p *PluginPipe) GetResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	return p.rerender(s, resp)
}

func (p *PluginPipe) SetResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	return p.rerender(s, resp)
}

func (p *PluginPipe) PublishResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	return p.rerender(s, resp)
}

// rerender re-runs load+render for every node in resp. A node whose
// extension resolves to no registered plugin is a hard configuration
// error at this point in the chain, per §4.4.3: by the response pass the
// pipeline has committed to producing presentable content.
func (p *PluginPipe) rerender(s *Session, resp NodeMap) (NodeMap, error) {
	for _, n := range resp {
		plugin, err := p.registry.Resolve(s.Settings, n.URI())
		if err != nil {
			return nil, err
		}
		if err := plugin.Load(n); err != nil {
			return nil, err
		}
		rendered, err := plugin.Render(n, map[string]interface{}{})
		if err != nil {
			return nil, err
		}
		n.SetContent(rendered)
	}
	return resp, nil
}

func (p *PluginPipe) DeleteResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error) {
	for _, n := range resp {
		if IsEmpty(n.Content()) {
			continue
		}
		plugin, err := p.registry.Resolve(s.Settings, n.URI())
		if err != nil {
			continue
		}
		if err := plugin.Delete(n); err != nil {
			Log.Error(err, "plugin delete failed", "ext", plugin.Ext())
		}
	}
	return resp, nil
}
