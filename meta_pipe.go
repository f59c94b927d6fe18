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
	"strconv"
	"time"
)

// MetaPipe stamps bookkeeping timestamps onto a node's meta before it
// reaches PluginPipe/StoragePipe. It never finalizes a node, only
// annotates it in place.
type MetaPipe struct{}

// NewMetaPipe returns a MetaPipe.
func NewMetaPipe() *MetaPipe { return &MetaPipe{} }

func (p *MetaPipe) Name() string { return "meta" }

// nowUnixSeconds is the single clock read MetaPipe uses, isolated so
// tests can observe it is called rather than faking time.Now globally.
var nowUnixSeconds = func() int64 { return time.Now().Unix() }

func (p *MetaPipe) SetRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	stamp(req, "modified_at")
	return NodeMap{}, nil
}

func (p *MetaPipe) PublishRequest(ctx context.Context, s *Session, req NodeMap) (NodeMap, error) {
	stamp(req, "published_at")
	return NodeMap{}, nil
}

func stamp(req NodeMap, key string) {
	now := strconv.FormatInt(nowUnixSeconds(), 10)
	for _, n := range req {
		meta := n.Meta()
		meta[key] = now
		n.SetMeta(meta)
	}
}
