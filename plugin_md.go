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
	"html"
	"strings"
)

// MarkdownPlugin renders a deliberately small subset of Markdown:
// ATX headings, paragraphs, and **bold**/*italic* emphasis. No
// CommonMark engine exists anywhere in the corpus this module was
// built from, so rather than fabricate a dependency on one, cio carries
// its own minimal line-oriented renderer here — see DESIGN.md for the
// stdlib-justification entry.
type MarkdownPlugin struct {
	BasePlugin
}

// NewMarkdownPlugin returns the "md" plugin.
func NewMarkdownPlugin() *MarkdownPlugin {
	return &MarkdownPlugin{BasePlugin{ext: "md"}}
}

func (p *MarkdownPlugin) Render(node *Node, ctx map[string]interface{}) (*string, error) {
	rendered := node.Render(ctx)
	if rendered == nil {
		return nil, nil
	}
	out := renderMarkdown(*rendered)
	return &out, nil
}

func renderMarkdown(src string) string {
	var b strings.Builder
	lines := strings.Split(src, "\n")
	inParagraph := false

	closeParagraph := func() {
		if inParagraph {
			b.WriteString("</p>\n")
			inParagraph = false
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			closeParagraph()
			continue
		}

		if level, rest := atxHeading(trimmed); level > 0 {
			closeParagraph()
			b.WriteString("<h")
			b.WriteByte('0' + byte(level))
			b.WriteString(">")
			b.WriteString(renderInline(rest))
			b.WriteString("</h")
			b.WriteByte('0' + byte(level))
			b.WriteString(">\n")
			continue
		}

		if !inParagraph {
			b.WriteString("<p>")
			inParagraph = true
		} else {
			b.WriteString(" ")
		}
		b.WriteString(renderInline(trimmed))
	}
	closeParagraph()

	return strings.TrimSuffix(b.String(), "\n")
}

// atxHeading reports the heading level (1-6) and remaining text of an
// ATX-style "# Heading" line, or 0 if line is not a heading.
func atxHeading(line string) (int, string) {
	level := 0
	for level < len(line) && level < 6 && line[level] == '#' {
		level++
	}
	if level == 0 || level >= len(line) || line[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(line[level:])
}

// renderInline escapes HTML and then applies **bold** and *italic*
// emphasis, in that order so "**x**" is not first consumed as two
// italic markers.
func renderInline(s string) string {
	escaped := html.EscapeString(s)
	escaped = wrapEmphasis(escaped, "**", "strong")
	escaped = wrapEmphasis(escaped, "*", "em")
	return escaped
}

func wrapEmphasis(s, marker, tag string) string {
	var b strings.Builder
	open := false
	for {
		i := strings.Index(s, marker)
		if i < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		if open {
			b.WriteString("</" + tag + ">")
		} else {
			b.WriteString("<" + tag + ">")
		}
		open = !open
		s = s[i+len(marker):]
	}
	return b.String()
}
