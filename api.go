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

// Get addresses uri, falling back to def (may be nil) if nothing is
// found, and returns a lazily-resolved BufferedNode: content is not
// fetched until the caller reads BufferedNode.Content or .URI. Use
// GetEager to force resolution immediately.
func Get(ctx context.Context, uri string, def Content) *BufferedNode {
	session := FromContext(ctx)
	node := newRequestNode(session, uri, def)
	return DefaultPipeline.Buffer(ctx, session, MethodGet, node)
}

// GetEager is Get followed by an immediate flush.
func GetEager(ctx context.Context, uri string, def Content) (*Node, error) {
	return Get(ctx, uri, def).Node()
}

// Set writes data under uri, optionally publishing it immediately, and
// returns the resulting Node. meta, if non-nil, is merged onto the node
// before it reaches the pipeline.
func Set(ctx context.Context, uri string, data string, publish bool, meta map[string]string) (*Node, error) {
	session := FromContext(ctx)
	node := newRequestNode(session, uri, NewContent(data))
	node.SetURI(withDraftVersion(node.URI()))
	if meta != nil {
		node.SetMeta(meta)
	}

	results, err := DefaultPipeline.Send(ctx, session, MethodSet, node)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, NodeDoesNotExist(uri)
	}
	n := results[0]
	if !publish {
		return n, nil
	}
	return Publish(ctx, n.URI().String())
}

// Delete removes every uri that currently exists and returns the
// initial URIs (as originally given) of those that actually went away.
func Delete(ctx context.Context, uris ...string) ([]string, error) {
	session := FromContext(ctx)
	nodes := make([]*Node, len(uris))
	for i, uri := range uris {
		n := newRequestNode(session, uri, nil)
		n.SetURI(withDraftVersion(n.URI()))
		nodes[i] = n
	}

	results, err := DefaultPipeline.Send(ctx, session, MethodDelete, nodes...)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, n := range results {
		if IsEmpty(n.Content()) {
			deleted = append(deleted, n.InitialURI().String())
		}
	}
	return deleted, nil
}

// Publish promotes uri's draft (or, if uri is pinned to an existing
// numbered version, that version) to published. Returns nil, nil if
// storage reports the target does not exist.
func Publish(ctx context.Context, uri string) (*Node, error) {
	session := FromContext(ctx)
	node := newRequestNode(session, uri, nil)
	node.SetURI(withDraftVersion(node.URI()))

	results, err := DefaultPipeline.Send(ctx, session, MethodPublish, node)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// RevisionEntry is one row of Revisions' result: a fully-qualified URI
// (carrying ext and version) and whether it is the currently published
// revision.
type RevisionEntry struct {
	URI         *URI
	IsPublished bool
}

// Revisions lists every version ever stored for uri's fingerprint key,
// including drafts.
func Revisions(ctx context.Context, uri string) ([]RevisionEntry, error) {
	session := FromContext(ctx)
	backend, err := defaultStorageManager.Backend(session.Settings)
	if err != nil {
		return nil, err
	}

	parsed := resolveNamespace(session, MustParse(uri))
	rows, err := backend.GetRevisions(ctx, parsed.Key())
	if err != nil {
		return nil, err
	}

	out := make([]RevisionEntry, 0, len(rows))
	for _, row := range rows {
		u, err := uriFromStored(row)
		if err != nil {
			return nil, err
		}
		out = append(out, RevisionEntry{URI: u, IsPublished: row.IsPublished})
	}
	return out, nil
}

// LoadResult is the {uri, content, meta} projection Load returns, with
// content already rendered through the resolved Plugin.
type LoadResult struct {
	URI     *URI
	Content Content
	Meta    map[string]string
}

// Load resolves uri bypassing the cache/buffer path entirely, in the
// order: pinned version (if uri carries one), then draft, then
// published. uri's query is threaded into the plugin's render call for
// plugins that parameterize on it.
func Load(ctx context.Context, uri string) (*LoadResult, error) {
	session := FromContext(ctx)
	parsed := resolveNamespace(session, MustParse(uri))
	backend, err := defaultStorageManager.Backend(session.Settings)
	if err != nil {
		return nil, err
	}

	stored, ok, err := resolveLoadTarget(ctx, backend, parsed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NodeDoesNotExist(uri)
	}

	resolvedURI, err := uriFromStored(stored)
	if err != nil {
		return nil, err
	}
	plugin, err := defaultPluginRegistry.Resolve(session.Settings, resolvedURI)
	if err != nil {
		return nil, err
	}

	node := NewNode(resolvedURI, nil, session.Env.Clone())
	node.SetContent(stored.Content)
	node.SetMeta(metaToStrings(stored.Meta))
	if err := plugin.Load(node); err != nil {
		return nil, err
	}
	rendered, err := plugin.Render(node, queryToContext(parsed.Query))
	if err != nil {
		return nil, err
	}

	return &LoadResult{URI: resolvedURI, Content: rendered, Meta: node.Meta()}, nil
}

func resolveLoadTarget(ctx context.Context, backend StorageBackend, parsed *URI) (*StoredNode, bool, error) {
	if parsed.Version != "" {
		return backend.Get(ctx, parsed.Key(), versionSelector(parsed))
	}
	if stored, ok, err := backend.Get(ctx, parsed.Key(), VersionDraft); ok || err != nil {
		return stored, ok, err
	}
	return backend.Get(ctx, parsed.Key(), VersionPublished)
}

// Search lists base URIs (no ext, no version) matching uri's namespace
// exactly and uri's path as a prefix; an empty uri matches everything.
// uri's scheme is not matched.
func Search(ctx context.Context, uri string) ([]*URI, error) {
	session := FromContext(ctx)
	backend, err := defaultStorageManager.Backend(session.Settings)
	if err != nil {
		return nil, err
	}

	var namespace, pathPrefix string
	if uri != "" {
		parsed := MustParse(uri)
		namespace, pathPrefix = parsed.Namespace, parsed.Path
	}

	keys, err := backend.Search(ctx, namespace, pathPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*URI, 0, len(keys))
	for _, k := range keys {
		u, err := Parse(k)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// newRequestNode parses uri and wraps it as a fresh Node carrying def as
// both initial and current content. The parsed uri, as addressed, is the
// node's InitialURI; when it has no namespace, the Session's active
// primary i18n namespace is applied to the node's current URI.
func newRequestNode(session *Session, uri string, def Content) *Node {
	parsed := MustParse(uri)
	node := NewNode(parsed, def, session.Env.Clone())
	node.SetURI(resolveNamespace(session, parsed))
	return node
}

// withDraftVersion defaults u's version part to the literal "draft" when
// the caller pinned none, mirroring api.py's set/delete/publish each
// cloning their uri with version='draft' before it reaches the pipeline.
// A caller-pinned version (publish's revision-rollback case) is left
// untouched.
func withDraftVersion(u *URI) *URI {
	if u.Version != "" {
		return u
	}
	return u.Clone(WithVersion("draft"))
}

func resolveNamespace(session *Session, u *URI) *URI {
	if u.Namespace != "" {
		return u
	}
	primary := session.Env.Active().I18n
	if len(primary) == 0 {
		return u
	}
	return u.Clone(WithNamespace(primary[0]))
}

func queryToContext(q *Query) map[string]interface{} {
	out := map[string]interface{}{}
	if q == nil {
		return out
	}
	for _, k := range q.Keys() {
		vals := q.Values(k)
		if len(vals) == 1 {
			out[k] = vals[0]
		} else {
			out[k] = vals
		}
	}
	return out
}
