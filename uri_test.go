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

func TestParseRoundtrip(t *testing.T) {
	cases := []string{
		"i18n://sv-se@label/email.txt",
		"i18n://sv-se@label/email.md#1",
		"label/email",
		"en-uk@label/surname.txt",
		"page/title#2",
		"i18n://sv-se@label/email.txt?foo=bar&baz=qux",
	}

	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			u, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", s, err)
			}
			u2, err := Parse(u.String())
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", u.String(), err)
			}
			if !u.Equal(u2) {
				t.Fatalf("roundtrip mismatch: %q != %q", u.String(), u2.String())
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	u := MustParse("label/email")
	if u.Scheme != DefaultScheme {
		t.Fatalf("expected default scheme %q, got %q", DefaultScheme, u.Scheme)
	}
	if u.Namespace != "" {
		t.Fatalf("expected empty namespace, got %q", u.Namespace)
	}
	if u.Path != "label/email" {
		t.Fatalf("expected path %q, got %q", "label/email", u.Path)
	}
}

func TestParseExtensionOnly(t *testing.T) {
	u := MustParse("i18n://sv-se@.txt")
	if u.Path != "txt" || u.Ext != "" {
		t.Fatalf("expected extension promoted to path, got path=%q ext=%q", u.Path, u.Ext)
	}
}

func TestParseExtensionWithSlashIsNotExt(t *testing.T) {
	u := MustParse("i18n://sv-se@a.b/c")
	if u.Ext != "" {
		t.Fatalf("expected no extension when candidate contains '/', got %q", u.Ext)
	}
	if u.Path != "a.b/c" {
		t.Fatalf("expected full path preserved, got %q", u.Path)
	}
}

func TestParseQueryOrderingAndDuplicates(t *testing.T) {
	u := MustParse("i18n://sv-se@label/email.txt?a=1&b=2&a=3")
	if u.Query.Get("a") != "3" {
		t.Fatalf("expected last occurrence to win, got %q", u.Query.Get("a"))
	}
	if got := u.Query.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected insertion-ordered keys [a b], got %v", got)
	}
}

func TestCloneReplacesOnlyGivenParts(t *testing.T) {
	u := MustParse("i18n://sv-se@label/email.txt#1")
	clone := u.Clone(WithExt("md"), WithoutVersion())
	if clone.Ext != "md" {
		t.Fatalf("expected ext md, got %q", clone.Ext)
	}
	if clone.Version != "" {
		t.Fatalf("expected version cleared, got %q", clone.Version)
	}
	if clone.Namespace != "sv-se" || clone.Path != "label/email" {
		t.Fatalf("expected other parts unchanged, got %+v", clone)
	}
	if u.Ext != "txt" || u.Version != "1" {
		t.Fatalf("original URI must remain immutable, got %+v", u)
	}
}

func TestCacheKeyIgnoresExtAndVersion(t *testing.T) {
	base := MustParse("i18n://sv-se@label/email")
	variants := []*URI{
		base.Clone(WithExt("txt"), WithVersion("1")),
		base.Clone(WithExt("md"), WithVersion("draft")),
		base.Clone(),
	}
	want := base.CacheKey()
	for _, v := range variants {
		if v.CacheKey() != want {
			t.Fatalf("expected cache key %q for %q, got %q", want, v.String(), v.CacheKey())
		}
	}
}

func TestHasParts(t *testing.T) {
	u := MustParse("i18n://sv-se@label/email.txt#1")
	if !u.HasParts("namespace", "path", "ext", "version") {
		t.Fatalf("expected all parts present")
	}
	if u.HasParts("namespace", "path", "ext", "version", "query") {
		t.Fatalf("expected query to be absent")
	}
}
