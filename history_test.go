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

import "testing"

func TestHistoryLogSeparatesByMethod(t *testing.T) {
	h := NewHistory()
	n := NewNode(MustParse("history/one"), NewContent("x"), nil)

	h.Log(MethodGet, n)
	h.Log(MethodSet, n, n)

	if h.Len(MethodGet) != 1 {
		t.Fatalf("expected 1 get entry, got %d", h.Len(MethodGet))
	}
	if h.Len(MethodSet) != 2 {
		t.Fatalf("expected 2 set entries, got %d", h.Len(MethodSet))
	}
	if h.Len(MethodDelete) != 0 {
		t.Fatalf("expected 0 delete entries, got %d", h.Len(MethodDelete))
	}
}

func TestHistoryListReturnsACopy(t *testing.T) {
	h := NewHistory()
	n := NewNode(MustParse("history/two"), NewContent("x"), nil)
	h.Log(MethodPublish, n)

	list := h.List(MethodPublish)
	list[0] = nil

	if h.List(MethodPublish)[0] == nil {
		t.Fatalf("expected List to return an independent copy")
	}
}

func TestHistoryClearDiscardsEveryMethod(t *testing.T) {
	h := NewHistory()
	n := NewNode(MustParse("history/three"), NewContent("x"), nil)
	h.Log(MethodGet, n)
	h.Log(MethodDelete, n)

	h.Clear()

	if h.Len(MethodGet) != 0 || h.Len(MethodDelete) != 0 {
		t.Fatalf("expected Clear to empty every method's log")
	}
}
