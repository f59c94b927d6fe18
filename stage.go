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

// NodeMap is a map from a URI's rendered string to the Node currently
// addressed by it; it is the request/response object threaded through a
// pipeline pass. A request hook may mutate the map it is given (it is the
// shared in-flight set).
type NodeMap map[string]*Node

// Values returns the map's Nodes in unspecified order.
func (m NodeMap) Values() []*Node {
	out := make([]*Node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	return out
}

// Merge copies every entry of other into m.
func (m NodeMap) Merge(other NodeMap) {
	for k, v := range other {
		m[k] = v
	}
}

// Stage is the minimal interface every pipeline stage implements: a name
// for diagnostics. Everything else is optional, expressed as the
// method-specific hook interfaces below instead of the original's dynamic
// getattr(stage, f"{method}_request", None) dispatch — Go has no
// idiomatic equivalent of "a method that may or may not exist", so each
// hook is its own small interface and the pipeline engine type-asserts
// for it, the same pattern the teacher library uses for
// StatefulTemplateCache/TemplateCacheWithTimeout/TemplateCacheDriver.
type Stage interface {
	Name() string
}

// GetRequestHook runs forward, in configured stage order, for a get().
// It may mutate req in place and returns the subset of req it has
// finalized (resolved and removed from further processing). An error
// aborts the send: the response chain does not run and the error is
// returned to the caller, mirroring the "stage hooks propagate, the
// pipeline does not catch" rule.
type GetRequestHook interface {
	GetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error)
}

// GetResponseHook runs backward, in reverse configured stage order, for a
// get(). It receives the accumulated response map and must return it
// (mutated or replaced).
type GetResponseHook interface {
	GetResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error)
}

type SetRequestHook interface {
	SetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error)
}

type SetResponseHook interface {
	SetResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error)
}

type DeleteRequestHook interface {
	DeleteRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error)
}

type DeleteResponseHook interface {
	DeleteResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error)
}

type PublishRequestHook interface {
	PublishRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error)
}

type PublishResponseHook interface {
	PublishResponse(ctx context.Context, s *Session, resp NodeMap) (NodeMap, error)
}
