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

// Signal is a minimal observer-pattern broadcast point, independent of the
// settings watch hook, that the pipeline engine fires after a successful
// response pass. Recovered from cio/events.py, which the distilled spec
// dropped.
type Signal struct {
	mu        sync.Mutex
	listeners []func(*Node)
}

// Connect registers fn to be called whenever the signal fires. Like
// settings/environment listeners, fn is expected to be registered at
// initialization time.
func (sig *Signal) Connect(fn func(*Node)) {
	sig.mu.Lock()
	defer sig.mu.Unlock()
	sig.listeners = append(sig.listeners, fn)
}

// Fire calls every registered listener with node. A panicking listener is
// logged and swallowed; it never aborts the pipeline response pass that
// triggered the signal.
func (sig *Signal) Fire(node *Node) {
	sig.mu.Lock()
	listeners := append([]func(*Node){}, sig.listeners...)
	sig.mu.Unlock()

	for _, fn := range listeners {
		fn := fn
		callListenerSafely(func() { fn(node) })
	}
}

// Process-wide lifecycle signals, fired by the pipeline after a
// successful set/publish/delete response pass, one Fire call per node in
// the response.
var (
	OnSet     = &Signal{}
	OnPublish = &Signal{}
	OnDelete  = &Signal{}
)
