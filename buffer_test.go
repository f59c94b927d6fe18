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
	"testing"
)

// countingSendStage counts how many times its GetRequest ran and how many
// distinct request nodes it saw across all calls, standing in for the whole
// pipeline to verify BufferedNode.flush's batching behavior in isolation.
type countingSendStage struct {
	calls int
	seen  int
}

func (s *countingSendStage) Name() string { return "counting-send" }

func (s *countingSendStage) GetRequest(ctx context.Context, sess *Session, req NodeMap) (NodeMap, error) {
	s.calls++
	out := make(NodeMap, len(req))
	for k, v := range req {
		s.seen++
		out[k] = v
	}
	return out, nil
}

// Invariant 6: a single flush performs at most one storage batch per
// distinct initial_uri in its bucket — here, two distinct initial URIs
// buffered on the same session trigger exactly one GetRequest call that
// sees both.
func TestFlushCoalescesAcrossDistinctInitialURIs(t *testing.T) {
	stage := &countingSendStage{}
	p := NewPipeline(stage)
	session := NewSession()
	ctx := context.Background()

	a := p.Buffer(ctx, session, MethodGet, NewNode(MustParse("buffer/a"), NewContent("a"), nil))
	b := p.Buffer(ctx, session, MethodGet, NewNode(MustParse("buffer/b"), NewContent("b"), nil))

	if _, err := a.Content(); err != nil {
		t.Fatalf("a.Content() returned error: %v", err)
	}
	if _, err := b.Content(); err != nil {
		t.Fatalf("b.Content() returned error: %v", err)
	}

	if stage.calls != 1 {
		t.Fatalf("expected exactly one batched send, got %d", stage.calls)
	}
	if stage.seen != 2 {
		t.Fatalf("expected both distinct initial URIs in the one batch, got %d", stage.seen)
	}
}

// Two BufferedNodes sharing the same initial URI coalesce into a single
// representative; the loser never reaches the stage at all.
func TestFlushCoalescesSiblingsOfSameInitialURI(t *testing.T) {
	stage := &countingSendStage{}
	p := NewPipeline(stage)
	session := NewSession()
	ctx := context.Background()

	first := p.Buffer(ctx, session, MethodGet, NewNode(MustParse("buffer/shared"), NewContent("first"), nil))
	second := p.Buffer(ctx, session, MethodGet, NewNode(MustParse("buffer/shared"), NewContent("second"), nil))

	firstContent, err := first.Content()
	if err != nil {
		t.Fatalf("first.Content() returned error: %v", err)
	}
	secondContent, err := second.Content()
	if err != nil {
		t.Fatalf("second.Content() returned error: %v", err)
	}

	if stage.calls != 1 || stage.seen != 1 {
		t.Fatalf("expected one batch containing one representative, got calls=%d seen=%d", stage.calls, stage.seen)
	}
	if *firstContent != "first" || *secondContent != "first" {
		t.Fatalf("expected both siblings to report the representative's content, got first=%v second=%v", *firstContent, *secondContent)
	}
}

// A send error is recorded on every BufferedNode in the failed batch, not
// just the one that triggered the flush.
type erroringStage struct{}

func (erroringStage) Name() string { return "erroring" }

func (erroringStage) GetRequest(ctx context.Context, sess *Session, req NodeMap) (NodeMap, error) {
	return nil, ErrPersistence
}

func TestFlushErrorPropagatesToEverySibling(t *testing.T) {
	p := NewPipeline(erroringStage{})
	session := NewSession()
	ctx := context.Background()

	a := p.Buffer(ctx, session, MethodGet, NewNode(MustParse("buffer/err-a"), NewContent("a"), nil))
	b := p.Buffer(ctx, session, MethodGet, NewNode(MustParse("buffer/err-b"), NewContent("b"), nil))

	if _, err := a.Content(); err == nil {
		t.Fatalf("expected a.Content() to return an error")
	}
	if _, err := b.Content(); err == nil {
		t.Fatalf("expected b.Content() to return an error")
	}
}

func TestBufferedNodeInitialFieldsNeverFlush(t *testing.T) {
	stage := &countingSendStage{}
	p := NewPipeline(stage)
	session := NewSession()
	ctx := context.Background()

	bn := p.Buffer(ctx, session, MethodGet, NewNode(MustParse("buffer/lazy"), NewContent("fallback"), nil))

	if bn.InitialURI().String() != "buffer/lazy" {
		t.Fatalf("expected initial uri buffer/lazy, got %q", bn.InitialURI().String())
	}
	if *bn.Initial() != "fallback" {
		t.Fatalf("expected initial content fallback, got %v", *bn.Initial())
	}
	if stage.calls != 0 {
		t.Fatalf("expected reading initial fields not to trigger a flush, got %d calls", stage.calls)
	}
}
