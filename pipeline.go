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
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Pipeline is an ordered chain of Stages. A send runs the request hooks
// forward through the chain, then the response hooks backward, exactly
// mirroring the teacher's TemplateCache chain-of-responsibility shape
// generalized from a single cache layer to an arbitrary stage list.
type Pipeline struct {
	stages []Stage
}

// NewPipeline returns a Pipeline running stages in the given order for
// the request pass, and the reverse order for the response pass.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// DefaultPipeline is the process-wide pipeline used by the package-level
// Get/Set/Delete/Publish convenience functions, wired to the reference
// cache/meta/plugin/storage/namespace-fallback stages in the order
// DefaultSettings["PIPES"] names.
var DefaultPipeline = NewPipeline(
	NewCachePipe(),
	NewMetaPipe(),
	NewPluginPipe(),
	NewStoragePipe(),
	NewNamespaceFallbackPipe(),
)

// Buffer registers node for lazy resolution against the pipeline and
// returns a handle that resolves on first access to Content or URI,
// coalescing with any other BufferedNode outstanding for the same
// Method on session.
func (p *Pipeline) Buffer(ctx context.Context, session *Session, method Method, node *Node) *BufferedNode {
	return newBufferedNode(ctx, p, session, method, node)
}

// Send runs method eagerly for nodes and returns the resolved Nodes in
// the order given. It is the non-lazy counterpart to Buffer; Get uses
// Buffer, Set/Delete/Publish use Send directly since their callers
// already hold the content they are submitting. An error from any stage
// hook aborts the send before the response chain runs, per §7: the
// response chain is not run on failure.
func (p *Pipeline) Send(ctx context.Context, session *Session, method Method, nodes ...*Node) ([]*Node, error) {
	req := make(NodeMap, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		key := n.InitialURI().String()
		req[key] = n
		order = append(order, key)
	}
	resp, err := p.send(ctx, method, session, req)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(nodes))
	for _, key := range order {
		if n, ok := resp[key]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// send is the engine's core: forward request pass, then backward
// response pass, logging into session.History and emitting metrics for
// both passes. req is keyed by each node's InitialURI string, which is
// preserved across rewrites so the reverse pass and flush() can match
// responses back to their requester.
func (p *Pipeline) send(ctx context.Context, method Method, session *Session, req NodeMap) (NodeMap, error) {
	start := time.Now()

	// Forward pass: run each stage's request hook in turn, recording the
	// stage alongside whatever it finalized (removed from further
	// processing) without merging it into the running response yet. The
	// reverse pass below folds each stage's finalized set back in only
	// after that stage's own response hook has run, so a node a cache hit
	// finalizes on the first forward stage passes through no response
	// hook at all, and only rejoins the response after the stages ahead
	// of it (e.g. plugin rendering) are done reprocessing what is still
	// pending.
	type stageFinal struct {
		stage     Stage
		finalized NodeMap
	}
	chain := make([]stageFinal, 0, len(p.stages))

	pending := req
	for _, stage := range p.stages {
		var done NodeMap
		if len(pending) > 0 {
			var err error
			done, err = runRequestHook(ctx, session, method, stage, pending)
			if err != nil {
				return nil, err
			}
			for k := range done {
				delete(pending, k)
			}
		}
		chain = append(chain, stageFinal{stage: stage, finalized: done})
		if len(pending) == 0 {
			break
		}
	}

	// response starts as whatever is left unresolved after the forward
	// pass; each stage's finalized set is merged back in only once its
	// own response hook has had a chance to run over it.
	resp := pending
	for i := len(chain) - 1; i >= 0; i-- {
		entry := chain[i]
		if len(resp) > 0 {
			var err error
			resp, err = runResponseHook(ctx, session, method, entry.stage, resp)
			if err != nil {
				return nil, err
			}
		}
		if len(entry.finalized) > 0 {
			if resp == nil {
				resp = make(NodeMap, len(entry.finalized))
			}
			for k, v := range entry.finalized {
				resp[k] = v
			}
		}
	}

	session.History.Log(method, resp.Values()...)
	fireLifecycleSignal(method, resp)
	SendTotal.WithLabelValues(string(method)).Inc()
	SendDurationSeconds.WithLabelValues(string(method)).Observe(time.Since(start).Seconds())
	NodesProcessedTotal.WithLabelValues(string(method)).Add(float64(len(resp)))

	return resp, nil
}

func runRequestHook(ctx context.Context, session *Session, method Method, stage Stage, req NodeMap) (NodeMap, error) {
	switch method {
	case MethodGet:
		if h, ok := stage.(GetRequestHook); ok {
			return h.GetRequest(ctx, session, req)
		}
	case MethodSet:
		if h, ok := stage.(SetRequestHook); ok {
			return h.SetRequest(ctx, session, req)
		}
	case MethodDelete:
		if h, ok := stage.(DeleteRequestHook); ok {
			return h.DeleteRequest(ctx, session, req)
		}
	case MethodPublish:
		if h, ok := stage.(PublishRequestHook); ok {
			return h.PublishRequest(ctx, session, req)
		}
	}
	return NodeMap{}, nil
}

func runResponseHook(ctx context.Context, session *Session, method Method, stage Stage, resp NodeMap) (NodeMap, error) {
	switch method {
	case MethodGet:
		if h, ok := stage.(GetResponseHook); ok {
			return h.GetResponse(ctx, session, resp)
		}
	case MethodSet:
		if h, ok := stage.(SetResponseHook); ok {
			return h.SetResponse(ctx, session, resp)
		}
	case MethodDelete:
		if h, ok := stage.(DeleteResponseHook); ok {
			return h.DeleteResponse(ctx, session, resp)
		}
	case MethodPublish:
		if h, ok := stage.(PublishResponseHook); ok {
			return h.PublishResponse(ctx, session, resp)
		}
	}
	return resp, nil
}

// Validate checks that every stage name in settings' PIPES setting
// names a Stage actually present on p, collecting every unresolved name
// into a single error instead of stopping at the first. Intended to run
// once at startup against an application's configured PIPES list, before
// any traffic is sent through DefaultPipeline.
func (p *Pipeline) Validate(settings *Settings) error {
	known := make(map[string]bool, len(p.stages))
	for _, s := range p.stages {
		known[s.Name()] = true
	}

	raw, _ := settings.Get("PIPES")
	names, _ := raw.([]string)

	var result *multierror.Error
	for _, name := range names {
		if !known[name] {
			result = multierror.Append(result, fmt.Errorf("pipeline: unknown stage %q in PIPES", name))
		}
	}
	return result.ErrorOrNil()
}

func fireLifecycleSignal(method Method, resp NodeMap) {
	var sig *Signal
	switch method {
	case MethodSet:
		sig = OnSet
	case MethodPublish:
		sig = OnPublish
	case MethodDelete:
		sig = OnDelete
	default:
		return
	}
	for _, n := range resp {
		sig.Fire(n)
	}
}
