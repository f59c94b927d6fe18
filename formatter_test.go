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

func TestFormatPermissive(t *testing.T) {
	cases := []struct {
		name     string
		template string
		ctx      map[string]interface{}
		want     string
	}{
		{"no placeholders", "hello world", nil, "hello world"},
		{"known name", "hello {name}", map[string]interface{}{"name": "world"}, "hello world"},
		{"unknown name preserved", "hello {name}", nil, "hello {name}"},
		{"unmatched bare braces", "a {} b", nil, "a {} b"},
		{"unknown conversion preserved", "{name!x}", map[string]interface{}{"name": "world"}, "{name!x}"},
		{"unknown spec preserved", "{name:q}", map[string]interface{}{"name": "world"}, "{name:q}"},
		{"escaped braces", "{{literal}}", nil, "{literal}"},
		{"mixed known and unknown", "{a} and {b}", map[string]interface{}{"a": "1"}, "1 and {b}"},
		{"unterminated brace preserved", "a {name", nil, "a {name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatPermissive(tc.template, tc.ctx)
			if got != tc.want {
				t.Fatalf("FormatPermissive(%q) = %q, want %q", tc.template, got, tc.want)
			}
		})
	}
}
