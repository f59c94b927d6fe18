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
	"fmt"
	"html"
)

// ImagePlugin treats a node's content as an image URL and renders it as
// an <img> tag, carrying alt text from the node's "alt" meta key.
// Recovered from cio/plugins/img.py, which the distilled spec dropped.
type ImagePlugin struct {
	BasePlugin
}

// NewImagePlugin returns the "img" plugin.
func NewImagePlugin() *ImagePlugin {
	return &ImagePlugin{BasePlugin{ext: "img"}}
}

// Save records the content length as a "size" meta entry, mirroring the
// original's habit of stamping image metadata on save.
func (p *ImagePlugin) Save(node *Node) error {
	content := node.Content()
	if content == nil || IsEmpty(content) {
		return nil
	}
	meta := node.Meta()
	meta["size"] = fmt.Sprintf("%d", len(*content))
	node.SetMeta(meta)
	return nil
}

func (p *ImagePlugin) Render(node *Node, ctx map[string]interface{}) (*string, error) {
	content := node.Content()
	if content == nil || IsEmpty(content) {
		return nil, nil
	}
	src := FormatPermissive(*content, ctx)
	alt := node.Meta()["alt"]
	out := fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(alt))
	return &out, nil
}
