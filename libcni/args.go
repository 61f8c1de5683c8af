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
	"github.com/cni-runtime/cnirt/pkg/cniversion"
	"github.com/cni-runtime/cnirt/pkg/config"
	"github.com/cni-runtime/cnirt/pkg/ident"
	"github.com/cni-runtime/cnirt/pkg/types"
)

// InvocationArguments carries every optional per-call argument to
// Invoke. All fields are optional; a zero-valued InvocationArguments is
// valid and simply omits every conditional environment variable and
// stdin key.
type InvocationArguments struct {
	ContainerID      *ident.ContainerID
	NetNS            string
	InterfaceName    *ident.InterfaceName
	Paths            []string
	Attachment       *types.Attachment
	ValidAttachments []types.ValidAttachment
	CNIVersion       *cniversion.Version
}

// InvocationTarget is either a single plugin (with a caller-supplied
// name and version) or an entire plugin list, from which the network
// name and version are derived.
type InvocationTarget struct {
	// exactly one of plugin or pluginList is set.
	plugin     *config.Plugin
	cniVersion cniversion.Version
	singleName ident.Name

	pluginList *config.PluginList
}

// TargetPlugin builds an InvocationTarget for a single, standalone
// plugin, using the caller-supplied network name and CNI version (since
// a standalone Plugin document carries neither).
func TargetPlugin(plugin config.Plugin, cniVersion cniversion.Version, name ident.Name) InvocationTarget {
	return InvocationTarget{plugin: &plugin, cniVersion: cniVersion, singleName: name}
}

// TargetPluginList builds an InvocationTarget for an entire plugin list.
func TargetPluginList(list config.PluginList) InvocationTarget {
	return InvocationTarget{pluginList: &list}
}

// IsPluginList reports whether this target wraps a plugin list (as
// opposed to a single plugin).
func (t InvocationTarget) IsPluginList() bool { return t.pluginList != nil }

// plugins returns the ordered plugin sequence this target will walk,
// forward order always — callers needing reverse order for DEL use
// reversed().
func (t InvocationTarget) plugins() []config.Plugin {
	if t.pluginList != nil {
		return t.pluginList.Plugins
	}
	return []config.Plugin{*t.plugin}
}

func (t InvocationTarget) name() string {
	return t.identName().String()
}

// identName returns the target's network name as an ident.Name,
// regardless of whether this target wraps a single plugin or a list.
func (t InvocationTarget) identName() ident.Name {
	if t.pluginList != nil {
		return t.pluginList.Name
	}
	return t.singleName
}

func (t InvocationTarget) version() cniversion.Version {
	if t.pluginList != nil {
		return t.pluginList.CNIVersion
	}
	return t.cniVersion
}

func (t InvocationTarget) disableCheck() bool {
	return t.pluginList != nil && t.pluginList.DisableCheck
}

func (t InvocationTarget) disableGC() bool {
	return t.pluginList != nil && t.pluginList.DisableGC
}

func reversed(plugins []config.Plugin) []config.Plugin {
	out := make([]config.Plugin, len(plugins))
	for i, p := range plugins {
		out[len(plugins)-1-i] = p
	}
	return out
}
