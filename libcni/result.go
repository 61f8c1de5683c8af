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

package libcni

import "github.com/cni-runtime/cnirt/pkg/types"

// InvocationResult is the rolling state accumulated while walking a
// plugin chain.
type InvocationResult struct {
	Attachment      *types.Attachment
	VersionObjects  map[string]types.VersionObject
}

func newInvocationResult() InvocationResult {
	return InvocationResult{VersionObjects: make(map[string]types.VersionObject)}
}

// ErrKind enumerates the closed set of ways an invocation can fail.
type ErrKind int

const (
	PluginNotFoundByLocator ErrKind = iota
	InvokerFailed
	JSONOperationFailed
	PluginProducedError
	PluginProducedUnrecognizableOutput
	CheckNotSupported
)

func (k ErrKind) String() string {
	switch k {
	case PluginNotFoundByLocator:
		return "plugin not found by locator"
	case InvokerFailed:
		return "invoker failed"
	case JSONOperationFailed:
		return "JSON operation failed"
	case PluginProducedError:
		return "plugin produced an error"
	case PluginProducedUnrecognizableOutput:
		return "plugin produced unrecognizable output"
	case CheckNotSupported:
		return "configuration version does not support CHECK"
	default:
		return "unknown invocation error"
	}
}

// InvocationError reports why a chain walk aborted, naming the plugin
// type responsible.
type InvocationError struct {
	Kind        ErrKind
	PluginType  string
	Cause       error
	PluginError *types.PluginError
	RawOutput   string
}

func (e *InvocationError) Error() string {
	msg := "cnirt: " + e.Kind.String()
	if e.PluginType != "" {
		msg += " (plugin " + e.PluginType + ")"
	}
	return msg
}

func (e *InvocationError) Unwrap() error { return e.Cause }
