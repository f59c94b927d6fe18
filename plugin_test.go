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

func TestTextPluginRendersContentVerbatim(t *testing.T) {
	p := &TextPlugin{BasePlugin{ext: "txt"}}
	n := NewNode(MustParse("plugin/text"), NewContent("plain text"), nil)

	rendered, err := p.Render(n, nil)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if *rendered != "plain text" {
		t.Fatalf("expected verbatim content, got %v", *rendered)
	}
}

func TestMarkdownPluginRendersHeadingAndEmphasis(t *testing.T) {
	p := NewMarkdownPlugin()
	n := NewNode(MustParse("plugin/md"), NewContent("# Title\n\nSome **bold** and *italic* text."), nil)

	rendered, err := p.Render(n, nil)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	got := *rendered
	if !contains(got, "<h1>Title</h1>") {
		t.Fatalf("expected an h1 heading, got %q", got)
	}
	if !contains(got, "<strong>bold</strong>") {
		t.Fatalf("expected bold emphasis, got %q", got)
	}
	if !contains(got, "<em>italic</em>") {
		t.Fatalf("expected italic emphasis, got %q", got)
	}
}

func TestImagePluginSaveStampsSizeAndRendersImgTag(t *testing.T) {
	p := NewImagePlugin()
	n := NewNode(MustParse("plugin/img.png"), NewContent("binary-bytes"), nil)
	n.SetMeta(map[string]string{"alt": "a photo"})

	if err := p.Save(n); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if n.Meta()["size"] == "" {
		t.Fatalf("expected Save to stamp meta[size]")
	}

	rendered, err := p.Render(n, nil)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !contains(*rendered, `alt="a photo"`) {
		t.Fatalf("expected alt attribute in rendered img tag, got %q", *rendered)
	}
}

func TestPluginRegistryResolveFallsBackToDefaultExt(t *testing.T) {
	settings := NewSettings()
	settings.Set("DEFAULT_EXT", "txt")

	p, err := defaultPluginRegistry.Resolve(settings, MustParse("plugin/no-ext"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if p.Ext() != "txt" {
		t.Fatalf("expected txt plugin for an extensionless uri, got %q", p.Ext())
	}
}

func TestPluginRegistryResolveHonorsPluginsMapping(t *testing.T) {
	settings := NewSettings()
	settings.Set("PLUGINS", map[string]string{"post": "md"})

	p, err := defaultPluginRegistry.Resolve(settings, MustParse("plugin/entry.post"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if p.Ext() != "md" {
		t.Fatalf("expected PLUGINS mapping post->md honored, got %q", p.Ext())
	}
}

func TestPluginRegistryResolveUnknownExt(t *testing.T) {
	settings := NewSettings()
	if _, err := defaultPluginRegistry.Resolve(settings, MustParse("plugin/entry.bogus")); err == nil {
		t.Fatalf("expected error for an unregistered extension")
	}
}
