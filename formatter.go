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
	"strings"
)

// FormatPermissive substitutes {name}, {name!conv}, {name:spec}, and
// {name!conv:spec} placeholders in template using ctx. Unknown names,
// unmatched/unadorned {} placeholders, and unknown conversions/format
// specs are left untouched in the output, braces included, since the
// template is not necessarily meant to be one: content without any known
// placeholders must render identically to its input. {{ and }} escape to
// literal braces.
//
// This is a small streaming state machine rather than a wrapper around any
// language's built-in formatting, because built-in formatters tend to
// raise (or silently swallow in incompatible ways) on unknown keys instead
// of preserving them literally.
func FormatPermissive(template string, ctx map[string]interface{}) string {
	var out strings.Builder
	i := 0
	n := len(template)

	for i < n {
		c := template[i]
		switch c {
		case '{':
			if i+1 < n && template[i+1] == '{' {
				out.WriteByte('{')
				i += 2
				continue
			}
			end := findPlaceholderEnd(template, i+1)
			if end < 0 {
				// unterminated '{': preserve literally
				out.WriteByte(c)
				i++
				continue
			}
			raw := template[i+1 : end]
			if rendered, ok := resolvePlaceholder(raw, ctx); ok {
				out.WriteString(rendered)
			} else {
				// unknown name/index/conversion/spec: preserve the whole
				// placeholder, braces included, literally
				out.WriteString(template[i : end+1])
			}
			i = end + 1
		case '}':
			if i+1 < n && template[i+1] == '}' {
				out.WriteByte('}')
				i += 2
				continue
			}
			out.WriteByte('}')
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}

// findPlaceholderEnd returns the index of the closing '}' matching the '{'
// whose contents start at from, or -1 if there is none before the end of
// the string or a nested unescaped '{'.
func findPlaceholderEnd(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			return -1
		case '}':
			return i
		}
	}
	return -1
}

// resolvePlaceholder parses "name", "name!conv", "name:spec", or
// "name!conv:spec" and looks name up in ctx. An empty name (bare "{}" or
// "{:spec}"/"{!conv}") is always unmatched: this formatter only supports
// named placeholders, never positional ones.
func resolvePlaceholder(raw string, ctx map[string]interface{}) (string, bool) {
	name := raw
	conv := ""
	spec := ""

	if i := strings.IndexByte(name, ':'); i >= 0 {
		spec = name[i+1:]
		name = name[:i]
	}
	if i := strings.IndexByte(name, '!'); i >= 0 {
		conv = name[i+1:]
		name = name[:i]
	}

	if name == "" {
		return "", false
	}

	val, ok := ctx[name]
	if !ok {
		return "", false
	}

	rendered, ok := applyConversion(val, conv)
	if !ok {
		return "", false
	}

	formatted, ok := applyFormatSpec(rendered, val, spec)
	if !ok {
		return "", false
	}
	return formatted, true
}

// applyConversion supports the two conversions that are unambiguous across
// target languages: "s" (string) and "r" (repr-like, %+v). An unknown
// conversion is reported as unresolved so the placeholder is preserved.
func applyConversion(val interface{}, conv string) (string, bool) {
	switch conv {
	case "", "s":
		return fmt.Sprintf("%v", val), true
	case "r":
		return fmt.Sprintf("%+v", val), true
	default:
		return "", false
	}
}

// applyFormatSpec supports a small, deliberately conservative set of
// numeric format specs (width and fixed-point precision, e.g. "05d",
// ".2f"); anything else is reported as unresolved.
func applyFormatSpec(rendered string, val interface{}, spec string) (string, bool) {
	if spec == "" {
		return rendered, true
	}
	switch {
	case strings.HasSuffix(spec, "f"):
		prec := strings.TrimSuffix(spec, "f")
		prec = strings.TrimPrefix(prec, ".")
		var p int
		if _, err := fmt.Sscanf(prec, "%d", &p); err != nil {
			return "", false
		}
		return fmt.Sprintf(fmt.Sprintf("%%.%df", p), val), true
	case strings.HasSuffix(spec, "d"):
		width := strings.TrimSuffix(spec, "d")
		zeroPad := strings.HasPrefix(width, "0")
		var w int
		if width != "" {
			if _, err := fmt.Sscanf(strings.TrimPrefix(width, "0"), "%d", &w); err != nil && width != "0" {
				return "", false
			}
		}
		verb := "%d"
		if zeroPad {
			verb = fmt.Sprintf("%%0%dd", w)
		} else if w > 0 {
			verb = fmt.Sprintf("%%%dd", w)
		}
		return fmt.Sprintf(verb, val), true
	default:
		return "", false
	}
}
