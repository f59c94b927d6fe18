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

// Method names one of the four pipeline operations a Stage may hook into.
type Method string

const (
	MethodGet     Method = "get"
	MethodSet     Method = "set"
	MethodDelete  Method = "delete"
	MethodPublish Method = "publish"
)

// History is the append-only log of every Node seen by any send() within
// a Session, keyed by Method. It is Session-scoped (see session.go)
// rather than goroutine-local, per the concurrency note in doc.go.
type History struct {
	mu  sync.Mutex
	log map[Method][]*Node
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{log: map[Method][]*Node{}}
}

// Log appends nodes to the per-method history.
func (h *History) Log(method Method, nodes ...*Node) {
	if len(nodes) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log[method] = append(h.log[method], nodes...)
}

// List returns the nodes logged for method, oldest first.
func (h *History) List(method Method) []*Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Node(nil), h.log[method]...)
}

// Len returns the number of nodes logged for method.
func (h *History) Len(method Method) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.log[method])
}

// Clear discards all logged nodes for every method.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.log = map[Method][]*Node{}
}
