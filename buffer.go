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

// BufferedNode is a lazily-resolved handle returned by a Get call made
// with lazy=true. Reading its Content or current URI triggers flush,
// which coalesces every BufferedNode outstanding for the same Method on
// the owning Session into a single Pipeline.send pass, rather than one
// pass per Get call. Fields that are already known before resolution
// (Initial, InitialURI, Meta) are served straight from the wrapped Node
// without flushing.
type BufferedNode struct {
	mu sync.Mutex

	ctx      context.Context
	session  *Session
	pipeline *Pipeline
	method   Method

	node     *Node
	flushed  bool
	flushErr error
}

// newBufferedNode wraps node and registers it in session's per-method
// bucket, keyed by node's InitialURI so siblings sharing it coalesce at
// flush time.
func newBufferedNode(ctx context.Context, p *Pipeline, session *Session, method Method, node *Node) *BufferedNode {
	bn := &BufferedNode{ctx: ctx, session: session, pipeline: p, method: method, node: node}
	session.addToBucket(method, node.InitialURI().String(), bn)
	return bn
}

// InitialURI returns the URI the caller originally asked for, before any
// stage rewrote it. Never triggers a flush.
func (bn *BufferedNode) InitialURI() *URI {
	return bn.node.InitialURI()
}

// Initial returns the content the caller originally supplied (for Get,
// its default; nil when none was given). Never triggers a flush.
func (bn *BufferedNode) Initial() Content {
	return bn.node.Initial()
}

// Meta returns the wrapped Node's metadata as of the last flush, or the
// metadata it was constructed with if never flushed. Never triggers a
// flush on its own.
func (bn *BufferedNode) Meta() map[string]string {
	return bn.node.Meta()
}

// NamespaceURI mirrors Node.NamespaceURI over the wrapped Node's history
// as of the last flush. Never triggers a flush on its own.
func (bn *BufferedNode) NamespaceURI() *URI {
	return bn.node.NamespaceURI()
}

// URI triggers a flush and then returns the resolved Node's current URI.
func (bn *BufferedNode) URI() (*URI, error) {
	if err := bn.flush(); err != nil {
		return nil, err
	}
	return bn.node.URI(), nil
}

// Content triggers a flush and then returns the resolved Node's content.
func (bn *BufferedNode) Content() (Content, error) {
	if err := bn.flush(); err != nil {
		return nil, err
	}
	return bn.node.Content(), nil
}

// Node triggers a flush and returns the fully resolved underlying Node.
func (bn *BufferedNode) Node() (*Node, error) {
	if err := bn.flush(); err != nil {
		return nil, err
	}
	return bn.node, nil
}

// flush resolves bn if it has not already been resolved, running one
// Pipeline.send pass shared with every other BufferedNode currently
// buffered on the Session for the same Method. A send error is recorded
// on every BufferedNode in the batch and returned to each caller that
// subsequently flushes it.
func (bn *BufferedNode) flush() error {
	bn.mu.Lock()
	if bn.flushed {
		err := bn.flushErr
		bn.mu.Unlock()
		return err
	}
	bn.mu.Unlock()

	groups := bn.session.drainBucket(bn.method)
	if len(groups) == 0 {
		return nil
	}

	representatives := make(NodeMap, len(groups))
	repKeyByGroup := make(map[string]string, len(groups))
	for initialURI, siblings := range groups {
		if len(siblings) == 0 {
			continue
		}
		rep := siblings[0].node
		key := rep.InitialURI().String()
		representatives[key] = rep
		repKeyByGroup[initialURI] = key
	}

	FlushBatchSize.WithLabelValues(string(bn.method)).Observe(float64(len(groups)))
	resp, sendErr := bn.pipeline.send(bn.ctx, bn.method, bn.session, representatives)

	for initialURI, siblings := range groups {
		var resolved *Node
		var ok bool
		if sendErr == nil {
			resolved, ok = resp[repKeyByGroup[initialURI]]
		}
		for _, sib := range siblings {
			sib.mu.Lock()
			if sendErr != nil {
				sib.flushErr = sendErr
			} else if ok {
				sib.node.SetContent(resolved.Content())
				sib.node.SetMeta(resolved.Meta())
			}
			sib.flushed = true
			sib.mu.Unlock()
		}
	}

	if sendErr != nil {
		return sendErr
	}
	bn.mu.Lock()
	err := bn.flushErr
	bn.mu.Unlock()
	return err
}
