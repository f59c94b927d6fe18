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

// Invariant 7: environment pushes and pops nest strictly; popping the
// last remaining frame is an error.
func TestEnvironmentPopUnderflowIsAnError(t *testing.T) {
	e := NewEnvironment()
	if err := e.Pop(); err != ErrEnvironmentUnderflow {
		t.Fatalf("expected ErrEnvironmentUnderflow popping the sole frame, got %v", err)
	}
}

func TestEnvironmentPushPopNesting(t *testing.T) {
	e := NewEnvironment()
	base := e.Active()

	e.Push(EnvironmentFrame{I18n: []string{"en-us"}})
	if got := e.Active().I18n; len(got) != 1 || got[0] != "en-us" {
		t.Fatalf("expected active frame en-us, got %v", got)
	}

	if err := e.Pop(); err != nil {
		t.Fatalf("Pop returned error: %v", err)
	}
	if got := e.Active(); len(got.I18n) != len(base.I18n) || got.I18n[0] != base.I18n[0] {
		t.Fatalf("expected pop to restore base frame, got %v", got)
	}
}

func TestEnvironmentCloneIsIndependent(t *testing.T) {
	e := NewEnvironment()
	clone := e.Clone()

	e.Push(EnvironmentFrame{I18n: []string{"en-us"}})
	if len(clone.Active().I18n) != 1 || clone.Active().I18n[0] != "sv-se" {
		t.Fatalf("expected clone unaffected by later pushes on the original, got %v", clone.Active())
	}
}
