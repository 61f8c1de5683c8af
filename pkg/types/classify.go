// Copyright 2015 CNI authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import "encoding/json"

// Shape identifies which of the three recognized plugin output shapes a
// piece of plugin stdout was classified as.
type Shape int

const (
	// ShapeEmpty means the text was empty (or all whitespace): a silent
	// success with no payload.
	ShapeEmpty Shape = iota
	ShapeAttachment
	ShapeVersionObject
	ShapePluginError
	// ShapeUnrecognizable means the text was non-empty but matched none
	// of the strict schemas above.
	ShapeUnrecognizable
)

// Classify inspects raw plugin stdout and determines which shape it is,
// trying Attachment before VersionObject (both share the cniVersion
// field, but only Attachment is expected to carry at least one of
// interfaces/ips/routes/dns) so that a bare VERSION response is never
// misclassified as an empty Attachment.
func Classify(raw string) (Shape, Attachment, VersionObject, PluginError) {
	trimmed := trimSpace(raw)
	if trimmed == "" {
		return ShapeEmpty, Attachment{}, VersionObject{}, PluginError{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return ShapeUnrecognizable, Attachment{}, VersionObject{}, PluginError{}
	}

	if hasAny(fields, "interfaces", "ips", "routes", "dns") {
		var a Attachment
		if err := json.Unmarshal([]byte(trimmed), &a); err == nil {
			return ShapeAttachment, a, VersionObject{}, PluginError{}
		}
	}

	if _, ok := fields["supportedVersions"]; ok {
		var v VersionObject
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return ShapeVersionObject, Attachment{}, v, PluginError{}
		}
	}

	if hasAny(fields, "code", "msg") {
		var e PluginError
		if err := json.Unmarshal([]byte(trimmed), &e); err == nil {
			return ShapePluginError, Attachment{}, VersionObject{}, e
		}
	}

	return ShapeUnrecognizable, Attachment{}, VersionObject{}, PluginError{}
}

func hasAny(fields map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
