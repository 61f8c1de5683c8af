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

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cni-runtime/cnirt/pkg/invoke"
	"github.com/cni-runtime/cnirt/pkg/locate"
)

// Validate checks that every plugin in target can be located on disk and
// advertises support for target's CNI version, by invoking each plugin
// with the VERSION command. It returns the union of every capability key
// advertised (with a true value) across the chain.
func Validate(
	ctx context.Context,
	target InvocationTarget,
	executor invoke.Executor,
	locator locate.Locator,
) ([]string, error) {
	wantVersion := target.version().String()
	capSet := make(map[string]struct{})

	for _, plugin := range target.plugins() {
		result, err := Invoke(ctx, Version, InvocationArguments{}, TargetPlugin(plugin, target.version(), target.identName()), executor, locator)
		if err != nil {
			return nil, errors.Wrapf(err, "validate plugin %s", plugin.Type)
		}

		vi, ok := result.VersionObjects[plugin.Type]
		if !ok {
			return nil, errors.Errorf("plugin %s did not report a version object", plugin.Type)
		}

		supported := false
		for _, v := range vi.SupportedVersions {
			if v == wantVersion {
				supported = true
				break
			}
		}
		if !supported {
			return nil, errors.Errorf("plugin %s does not support config version %q", plugin.Type, wantVersion)
		}

		for key, value := range plugin.Capabilities {
			if enabled, ok := value.(bool); ok && enabled {
				capSet[key] = struct{}{}
			}
		}
	}

	caps := make([]string, 0, len(capSet))
	for key := range capSet {
		caps = append(caps, key)
	}
	return caps, nil
}
