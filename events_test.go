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

func TestSignalFiresEveryListener(t *testing.T) {
	sig := &Signal{}
	var a, b int
	sig.Connect(func(*Node) { a++ })
	sig.Connect(func(*Node) { b++ })

	sig.Fire(NewNode(MustParse("events/one"), NewContent("x"), nil))

	if a != 1 || b != 1 {
		t.Fatalf("expected both listeners fired once, got a=%d b=%d", a, b)
	}
}

func TestSignalPanickingListenerDoesNotAbortOthers(t *testing.T) {
	sig := &Signal{}
	ran := false
	sig.Connect(func(*Node) { panic("boom") })
	sig.Connect(func(*Node) { ran = true })

	sig.Fire(NewNode(MustParse("events/two"), NewContent("x"), nil))

	if !ran {
		t.Fatalf("expected listener after a panicking one to still run")
	}
}

func TestOnSetFiresAfterSuccessfulSet(t *testing.T) {
	var fired *Node
	OnSet.Connect(func(n *Node) { fired = n })

	ctx := newTestContext()
	if _, err := Set(ctx, "i18n://sv-se@events/onset.txt", "x", false, nil); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if fired == nil {
		t.Fatalf("expected OnSet to fire with the resulting node")
	}
}
