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

// NamespaceFallbackPipe is the last stage in the default order. For any
// get that reached it unresolved, it walks the requesting Session's
// active i18n namespace list one level at a time, probing storage for
// each candidate namespace until a hit is found or every candidate is
// exhausted.
type NamespaceFallbackPipe struct {
	manager *StorageManager
}

// NewNamespaceFallbackPipe returns a NamespaceFallbackPipe backed by the
// process-wide StorageManager.
func NewNamespaceFallbackPipe() *NamespaceFallbackPipe {
	return &NamespaceFallbackPipe{manager: defaultStorageManager}
}

func (p *NamespaceFallbackPipe) Name() string { return "namespace_fallback" }

// fallbackTrack is the remaining namespace candidates for one unresolved
// node, head-first.
type fallbackTrack struct {
	reqKey     string
	node       *Node
	namespaces []string
}

func (p *NamespaceFallbackPipe) GetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	if len(req) == 0 {
		return NodeMap{}, nil
	}
	backend, err := p.manager.Backend(s.Settings)
	if err != nil {
		return nil, err
	}

	i18n := s.Env.Active().I18n
	tracks := make([]*fallbackTrack, 0, len(req))
	for reqKey, n := range req {
		remaining := fallbackNamespaces(i18n, n.URI().Namespace)
		if len(remaining) == 0 {
			continue
		}
		tracks = append(tracks, &fallbackTrack{reqKey: reqKey, node: n, namespaces: remaining})
	}

	finalized := make(NodeMap, len(tracks))
	for len(tracks) > 0 {
		keys := make([]StorageKey, 0, len(tracks))
		keyToTrack := map[string]*fallbackTrack{}
		for _, t := range tracks {
			candidate := t.node.URI().Clone(WithNamespace(t.namespaces[0]))
			sk := StorageKey{Key: candidate.Key(), Version: VersionPublished}
			keys = append(keys, sk)
			keyToTrack[sk.Key] = t
		}

		hits, err := backend.GetMany(ctx, keys)
		if err != nil {
			StorageErrorsTotal.WithLabelValues("namespace_fallback").Inc()
			return nil, err
		}

		next := make([]*fallbackTrack, 0, len(tracks))
		for _, t := range tracks {
			candidate := t.node.URI().Clone(WithNamespace(t.namespaces[0]))
			stored, ok := hits[candidate.Key()]
			if ok {
				uri, err := uriFromStored(stored)
				if err != nil {
					return nil, err
				}
				// Finalize the node belonging to *this* iteration's track,
				// never a leftover loop variable from a prior pass — see
				// the namespace-fallback design note on iteration-scoped
				// finalization.
				node := t.node
				node.SetURI(uri)
				node.SetContent(stored.Content)
				node.SetMeta(metaToStrings(stored.Meta))
				delete(req, t.reqKey)
				finalized[t.reqKey] = node
				continue
			}
			t.namespaces = t.namespaces[1:]
			if len(t.namespaces) > 0 {
				next = append(next, t)
			}
		}
		tracks = next
	}

	return finalized, nil
}

// fallbackNamespaces returns the candidate namespaces to probe, in
// order, excluding primary (the namespace already attempted by earlier
// stages) when it appears in the i18n list.
func fallbackNamespaces(i18n []string, primary string) []string {
	out := make([]string, 0, len(i18n))
	for _, ns := range i18n {
		if ns == primary {
			continue
		}
		out = append(out, ns)
	}
	return out
}
