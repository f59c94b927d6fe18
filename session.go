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

// Session bundles the state the original design keeps thread-local:
// Environment, the Settings overlay, pipeline History, and the buffered
// node bucket used for lazy coalescing. Go has no idiomatic equivalent of
// threading.local for this, so a Session is instead carried explicitly on
// a context.Context (see NewContext, FromContext) — the same "per-task
// storage slot" re-expression spec.md §9 calls for, scoped to whatever
// unit of work (request, goroutine, test) the caller's context represents.
type Session struct {
	Env      *Environment
	Settings *Settings
	History  *History

	mu     sync.Mutex
	bucket map[Method]map[string][]*BufferedNode
}

// NewSession returns a fresh Session with a default Environment, an empty
// Settings overlay, empty History, and an empty buffer bucket.
func NewSession() *Session {
	return &Session{
		Env:      NewEnvironment(),
		Settings: NewSettings(),
		History:  NewHistory(),
		bucket:   map[Method]map[string][]*BufferedNode{},
	}
}

type sessionContextKey struct{}

// NewContext returns a copy of ctx carrying s, retrievable with
// FromContext.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext returns the Session carried by ctx, or a fresh one if none
// is present. Because the returned Session is not
// re-attached to ctx when one had to be created, callers that want
// buffering to coalesce across multiple calls must create and carry a
// Session explicitly via NewContext up front.
func FromContext(ctx context.Context) *Session {
	if ctx != nil {
		if s, ok := ctx.Value(sessionContextKey{}).(*Session); ok {
			return s
		}
	}
	return NewSession()
}

// Clear resets the Session's History and buffer bucket, mirroring
// pipeline.clear() in the original design.
func (s *Session) Clear() {
	s.History.Clear()
	s.mu.Lock()
	s.bucket = map[Method]map[string][]*BufferedNode{}
	s.mu.Unlock()
}

func (s *Session) bucketFor(method Method) map[string][]*BufferedNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bucket[method]
	if !ok {
		b = map[string][]*BufferedNode{}
		s.bucket[method] = b
	}
	return b
}

func (s *Session) addToBucket(method Method, initialURI string, bn *BufferedNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bucket[method]
	if !ok {
		b = map[string][]*BufferedNode{}
		s.bucket[method] = b
	}
	b[initialURI] = append(b[initialURI], bn)
}

// drainBucket removes and returns the entire bucket for method.
func (s *Session) drainBucket(method Method) map[string][]*BufferedNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucket[method]
	delete(s.bucket, method)
	return b
}
