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

/*
Package cio implements a content-retrieval engine that addresses content by
opaque URIs and multiplexes reads and writes through an ordered,
interceptor-style pipeline of cache, metadata, plugin, and storage stages.

# Overview

Content is addressed with a URI of the form

	scheme://namespace@path.ext?query#version

A Node carries one addressed piece of content through the Pipeline: an
ordered list of Stages, each optionally contributing a request hook (run
forward, in configured order) and a response hook (run backward, in
reverse configured order). The default stage order is

	Cache -> Meta -> Plugin -> Storage -> NamespaceFallback

Reads obtained through the public API are lazy by default: Get returns a
BufferedNode immediately, and the underlying lookup is deferred until the
caller actually reads its content or URI. All BufferedNodes sharing the
same initial URI, read within the same Session, are coalesced into a
single batched pipeline pass on first access ("flush").

# Historical Background

This module reimplements the design of 5monkeys/content-io (cio), a Python
content-addressable retrieval library, as an idiomatic Go module. Concrete
storage engines, concrete cache engines, and concrete plugins are treated
as external collaborators behind the StorageBackend, CacheBackend, and
Plugin interfaces; this module ships minimal in-memory reference
implementations of each so the engine is runnable and testable standalone.

# Concurrency model

Environment, the Settings overlay, pipeline History, and the buffered-node
bucket are scoped to a Session rather than to a goroutine: true
goroutine-local storage has no idiomatic equivalent in Go, so callers that
need the "one thread sees one pending buffer" behavior of the original
carry a *Session explicitly via context.Context (see NewContext and
FromContext). The plugin registry, storage backend, cache backend, base
settings, and listener registry are process-wide singletons, exactly as
in the original design.
*/
package cio
