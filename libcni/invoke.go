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

// Package libcni is cnirt's invocation engine: it composes the value
// objects, config model, locator and executor into a single invoke call
// that walks a plugin or plugin list, deriving each plugin's environment
// and stdin document (folding in the prior plugin's result as
// prevResult), and classifying its output into an attachment, a version
// object, or an error.
package libcni

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cni-runtime/cnirt/internal/log"
	"github.com/cni-runtime/cnirt/pkg/cniversion"
	"github.com/cni-runtime/cnirt/pkg/config"
	"github.com/cni-runtime/cnirt/pkg/invoke"
	"github.com/cni-runtime/cnirt/pkg/locate"
	"github.com/cni-runtime/cnirt/pkg/types"
)

// checkMinVersion is the CNI spec version CHECK was introduced in.
var checkMinVersion = cniversion.Version{Major: 0, Minor: 4, Patch: 0}

// Invoke walks target (a single plugin or an entire plugin list) under
// operation, deriving each plugin's environment and stdin, resolving its
// binary through locator, running it through executor, and accumulating
// a rolling InvocationResult. For DEL, a plugin list is walked in
// reverse order; every other operation walks forward. Any per-plugin
// failure aborts the walk immediately; partial progress is discarded.
func Invoke(
	ctx context.Context,
	operation Operation,
	arguments InvocationArguments,
	target InvocationTarget,
	executor invoke.Executor,
	locator locate.Locator,
) (InvocationResult, error) {
	if operation == Check && target.IsPluginList() {
		if target.version().Less(checkMinVersion) {
			return InvocationResult{}, errors.WithStack(&InvocationError{Kind: CheckNotSupported})
		}
		if target.disableCheck() {
			return newInvocationResult(), nil
		}
	}
	if operation == GC && target.disableGC() {
		return newInvocationResult(), nil
	}

	plugins := target.plugins()
	if operation == Del {
		plugins = reversed(plugins)
	}

	result := newInvocationResult()
	for _, plugin := range plugins {
		if err := invokePlugin(ctx, operation, arguments, plugin, target, &result, executor, locator); err != nil {
			return InvocationResult{}, err
		}
	}

	return result, nil
}

func invokePlugin(
	ctx context.Context,
	operation Operation,
	arguments InvocationArguments,
	plugin config.Plugin,
	target InvocationTarget,
	result *InvocationResult,
	executor invoke.Executor,
	locator locate.Locator,
) error {
	path, found := locator.Locate(plugin.Type)
	if !found {
		return errors.WithStack(&InvocationError{Kind: PluginNotFoundByLocator, PluginType: plugin.Type})
	}

	env := buildEnvironment(operation, arguments)

	previousAttachment := arguments.Attachment
	if previousAttachment == nil {
		previousAttachment = result.Attachment
	}

	stdin, err := deriveStdin(plugin, arguments, target, previousAttachment)
	if err != nil {
		return errors.WithStack(&InvocationError{Kind: JSONOperationFailed, PluginType: plugin.Type, Cause: err})
	}

	log.Debugf(logrus.Fields{"plugin": plugin.Type, "path": path, "operation": operation.String()}, "invoking plugin")

	output, err := executor.Invoke(ctx, path, env, stdin)
	if err != nil {
		return errors.WithStack(&InvocationError{Kind: InvokerFailed, PluginType: plugin.Type, Cause: err})
	}

	return applyOutput(output, plugin, result)
}

func buildEnvironment(operation Operation, arguments InvocationArguments) map[string]string {
	env := map[string]string{"CNI_COMMAND": operation.String()}

	if arguments.ContainerID != nil {
		env["CNI_CONTAINERID"] = arguments.ContainerID.String()
	}
	if arguments.NetNS != "" {
		env["CNI_NETNS"] = arguments.NetNS
	}
	if arguments.InterfaceName != nil {
		env["CNI_IFNAME"] = arguments.InterfaceName.String()
	}
	if len(arguments.Paths) > 0 {
		env["CNI_PATH"] = strings.Join(arguments.Paths, ":")
	}

	return env
}

func deriveStdin(
	plugin config.Plugin,
	arguments InvocationArguments,
	target InvocationTarget,
	previousAttachment *types.Attachment,
) (string, error) {
	doc := make(map[string]interface{}, len(plugin.PluginOptions)+6)
	for k, v := range plugin.PluginOptions {
		doc[k] = v
	}

	doc["type"] = plugin.Type
	doc["name"] = target.name()

	cniVersion := target.version()
	if arguments.CNIVersion != nil {
		cniVersion = *arguments.CNIVersion
	}
	doc["cniVersion"] = cniVersion.String()

	if plugin.Capabilities != nil {
		doc["runtimeConfig"] = plugin.Capabilities
	}
	if plugin.Args != nil {
		doc["args"] = plugin.Args
	}
	if previousAttachment != nil {
		doc["prevResult"] = previousAttachment
	}
	if arguments.ValidAttachments != nil {
		doc["cni.dev/valid-attachments"] = arguments.ValidAttachments
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func applyOutput(output string, plugin config.Plugin, result *InvocationResult) error {
	shape, attachment, versionObject, pluginError := types.Classify(output)

	switch shape {
	case types.ShapeAttachment:
		result.Attachment = &attachment
		return nil
	case types.ShapeVersionObject:
		result.VersionObjects[plugin.Type] = versionObject
		return nil
	case types.ShapePluginError:
		pe := pluginError
		return errors.WithStack(&InvocationError{Kind: PluginProducedError, PluginType: plugin.Type, PluginError: &pe})
	case types.ShapeEmpty:
		return nil
	default:
		return errors.WithStack(&InvocationError{Kind: PluginProducedUnrecognizableOutput, PluginType: plugin.Type, RawOutput: output})
	}
}
