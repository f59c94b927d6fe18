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

// Content is the payload carried by a Node. It is either a plain string, or
// the Empty sentinel distinguishing "never set" from "explicitly deleted".
type Content = *string

// emptySentinelValue is an otherwise-unreachable string value used to implement
// the Empty sentinel without introducing a second type parameter everywhere
// Content is used.
var emptySentinelValue = "\x00cio:empty\x00"

// Empty is the sentinel Content value meaning "this node's content was
// explicitly deleted", as opposed to nil which means "never set". Plugins
// must not run Delete against a node whose Content is Empty.
var Empty Content = &emptySentinelValue

// IsEmpty reports whether c is the Empty sentinel.
func IsEmpty(c Content) bool {
	return c == Empty
}

// NewContent wraps s as a Content value.
func NewContent(s string) Content {
	v := s
	return &v
}

// Node is the mutable carrier threaded through the pipeline. URI and
// content histories are append-only: SetURI/SetContent append only when
// the new value differs from the current tail. initial and initialURI are
// immutable after construction.
type Node struct {
	initialURI *URI
	uriHistory []*URI

	initial        Content
	contentHistory []Content

	meta map[string]string

	env *Environment
}

// NewNode constructs a Node as first addressed by initialURI, with the
// caller-supplied default content.
func NewNode(initialURI *URI, initial Content, env *Environment) *Node {
	return &Node{
		initialURI:     initialURI,
		uriHistory:     []*URI{initialURI},
		initial:        initial,
		contentHistory: []Content{initial},
		meta:           map[string]string{},
		env:            env,
	}
}

// InitialURI returns the URI as first addressed by the caller. Immutable.
func (n *Node) InitialURI() *URI {
	return n.initialURI
}

// Initial returns the caller-supplied default content. Immutable.
func (n *Node) Initial() Content {
	return n.initial
}

// URI returns the current (possibly stage-rewritten) URI.
func (n *Node) URI() *URI {
	return n.uriHistory[len(n.uriHistory)-1]
}

// SetURI appends uri to the URI history, unless it equals the current one.
func (n *Node) SetURI(uri *URI) {
	if n.URI().Equal(uri) {
		return
	}
	n.uriHistory = append(n.uriHistory, uri)
}

// URIHistory returns the append-only list of URIs this node has carried.
func (n *Node) URIHistory() []*URI {
	return append([]*URI(nil), n.uriHistory...)
}

// Content returns the current content.
func (n *Node) Content() Content {
	return n.contentHistory[len(n.contentHistory)-1]
}

// SetContent appends content to the content history, unless it equals (by
// pointer-or-value) the current tail.
func (n *Node) SetContent(content Content) {
	cur := n.Content()
	if cur == content {
		return
	}
	if cur != nil && content != nil && *cur == *content {
		return
	}
	n.contentHistory = append(n.contentHistory, content)
}

// ContentHistory returns the append-only list of content this node has
// carried.
func (n *Node) ContentHistory() []Content {
	return append([]Content(nil), n.contentHistory...)
}

// Meta returns the node's string-keyed metadata map.
func (n *Node) Meta() map[string]string {
	return n.meta
}

// SetMeta replaces the node's metadata map wholesale; stages typically
// merge into the existing map instead of calling this.
func (n *Node) SetMeta(meta map[string]string) {
	n.meta = meta
}

// Env returns the environment snapshot captured at construction.
func (n *Node) Env() *Environment {
	return n.env
}

// NamespaceURI returns the first URI in history whose Namespace is
// non-empty, or nil.
func (n *Node) NamespaceURI() *URI {
	for _, u := range n.uriHistory {
		if u.Namespace != "" {
			return u
		}
	}
	return nil
}

// NodeJSON is the wire shape returned by Node.ForJSON.
type NodeJSON struct {
	URI     string            `json:"uri"`
	Content *string           `json:"content"`
	Meta    map[string]string `json:"meta"`
}

// ForJSON produces the {uri, content, meta} projection of the node. A nil
// or Empty content renders as a null/absent content field.
func (n *Node) ForJSON() NodeJSON {
	var content *string
	if c := n.Content(); c != nil && !IsEmpty(c) {
		content = c
	}
	return NodeJSON{
		URI:     n.URI().String(),
		Content: content,
		Meta:    n.meta,
	}
}

// Render passes the node's content through the permissive formatter with
// the given named substitutions. Rendering nil or Empty content yields nil
// (absent output).
func (n *Node) Render(ctx map[string]interface{}) *string {
	c := n.Content()
	if c == nil || IsEmpty(c) {
		return nil
	}
	rendered := FormatPermissive(*c, ctx)
	return &rendered
}

// clone produces a shallow copy of n; history slices are copied by
// reference since they are treated as append-only and never mutated in
// place. flush does not use it: its representative is the first
// sibling's own Node.
func (n *Node) clone() *Node {
	cp := *n
	return &cp
}
