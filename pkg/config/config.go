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

// Package config parses and emits the CNI plugin and plugin-list
// ("conflist") JSON documents.
package config

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/cni-runtime/cnirt/pkg/cniversion"
	"github.com/cni-runtime/cnirt/pkg/ident"
)

// ErrKind enumerates the closed set of parse/emit failure modes.
type ErrKind int

const (
	FileError ErrKind = iota
	SerdeError
	RootIsNotObject
	MissingKey
	KeyOfWrongType
	EmptyArray
	MalformedName
	MalformedVersion
	OverlappingKey
)

func (k ErrKind) String() string {
	switch k {
	case FileError:
		return "file error"
	case SerdeError:
		return "JSON decoding error"
	case RootIsNotObject:
		return "root is not a JSON object"
	case MissingKey:
		return "missing required key"
	case KeyOfWrongType:
		return "key has the wrong JSON type"
	case EmptyArray:
		return "array must not be empty"
	case MalformedName:
		return "malformed name"
	case MalformedVersion:
		return "malformed version"
	case OverlappingKey:
		return "plugin_options overlaps a reserved key"
	default:
		return "unknown config error"
	}
}

// Error reports a config parse or emit failure, naming the offending
// top-level key when known.
type Error struct {
	Kind  ErrKind
	Key   string
	Cause error
}

func (e *Error) Error() string {
	msg := "cnirt: config " + e.Kind.String()
	if e.Key != "" {
		msg += " (key " + quote(e.Key) + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func quote(s string) string { return "\"" + s + "\"" }

// Plugin is a single plugin configuration: its type, optional args and
// capabilities, and every other top-level key from its source object
// preserved verbatim as PluginOptions.
type Plugin struct {
	Type           string
	Args           map[string]interface{}
	Capabilities   map[string]interface{}
	PluginOptions  map[string]interface{}
}

// PluginList is an ordered chain of plugins defining one logical
// network.
type PluginList struct {
	CNIVersion   cniversion.Version
	CNIVersions  []cniversion.Version
	Name         ident.Name
	DisableCheck bool
	DisableGC    bool
	Plugins      []Plugin
}

// ParsePluginList parses a conflist JSON document.
func ParsePluginList(document []byte) (PluginList, error) {
	var raw interface{}
	if err := json.Unmarshal(document, &raw); err != nil {
		return PluginList{}, errors.WithStack(&Error{Kind: SerdeError, Cause: err})
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return PluginList{}, errors.WithStack(&Error{Kind: RootIsNotObject})
	}
	return pluginListFromMap(obj)
}

func pluginListFromMap(obj map[string]interface{}) (PluginList, error) {
	cniVersionRaw, ok := obj["cniVersion"]
	if !ok {
		return PluginList{}, errors.WithStack(&Error{Kind: MissingKey, Key: "cniVersion"})
	}
	cniVersionStr, ok := cniVersionRaw.(string)
	if !ok {
		return PluginList{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "cniVersion"})
	}
	cniVersion, err := cniversion.Parse(cniVersionStr)
	if err != nil {
		return PluginList{}, errors.WithStack(&Error{Kind: MalformedVersion, Key: "cniVersion", Cause: err})
	}

	var cniVersions []cniversion.Version
	if listRaw, ok := obj["cniVersions"]; ok {
		list, ok := listRaw.([]interface{})
		if !ok {
			return PluginList{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "cniVersions"})
		}
		if len(list) == 0 {
			return PluginList{}, errors.WithStack(&Error{Kind: EmptyArray, Key: "cniVersions"})
		}
		cniVersions = make([]cniversion.Version, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return PluginList{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "cniVersions"})
			}
			v, err := cniversion.Parse(s)
			if err != nil {
				return PluginList{}, errors.WithStack(&Error{Kind: MalformedVersion, Key: "cniVersions", Cause: err})
			}
			cniVersions = append(cniVersions, v)
		}
	}

	nameRaw, ok := obj["name"]
	if !ok {
		return PluginList{}, errors.WithStack(&Error{Kind: MissingKey, Key: "name"})
	}
	nameStr, ok := nameRaw.(string)
	if !ok {
		return PluginList{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "name"})
	}
	name, err := ident.NewName(nameStr)
	if err != nil {
		return PluginList{}, errors.WithStack(&Error{Kind: MalformedName, Key: "name", Cause: err})
	}

	disableCheck, err := optionalBool(obj, "disableCheck")
	if err != nil {
		return PluginList{}, err
	}
	disableGC, err := optionalBool(obj, "disableGC")
	if err != nil {
		return PluginList{}, err
	}

	pluginsRaw, ok := obj["plugins"]
	if !ok {
		return PluginList{}, errors.WithStack(&Error{Kind: MissingKey, Key: "plugins"})
	}
	pluginsArr, ok := pluginsRaw.([]interface{})
	if !ok {
		return PluginList{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "plugins"})
	}
	if len(pluginsArr) == 0 {
		return PluginList{}, errors.WithStack(&Error{Kind: EmptyArray, Key: "plugins"})
	}

	plugins := make([]Plugin, 0, len(pluginsArr))
	for _, item := range pluginsArr {
		itemObj, ok := item.(map[string]interface{})
		if !ok {
			return PluginList{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "plugins"})
		}
		plugin, err := pluginFromMap(itemObj)
		if err != nil {
			return PluginList{}, err
		}
		plugins = append(plugins, plugin)
	}

	return PluginList{
		CNIVersion:   cniVersion,
		CNIVersions:  cniVersions,
		Name:         name,
		DisableCheck: disableCheck,
		DisableGC:    disableGC,
		Plugins:      plugins,
	}, nil
}

func optionalBool(obj map[string]interface{}, key string) (bool, error) {
	raw, ok := obj[key]
	if !ok {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: key})
	}
	return b, nil
}

// ParsePlugin parses a standalone plugin configuration document (not
// wrapped in a plugin list) — e.g. a single bridge/ipam conf rather than
// a conflist.
func ParsePlugin(document []byte) (Plugin, error) {
	var raw interface{}
	if err := json.Unmarshal(document, &raw); err != nil {
		return Plugin{}, errors.WithStack(&Error{Kind: SerdeError, Cause: err})
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return Plugin{}, errors.WithStack(&Error{Kind: RootIsNotObject})
	}
	return pluginFromMap(obj)
}

func pluginFromMap(obj map[string]interface{}) (Plugin, error) {
	var typ string
	var typeSeen bool
	var args, capabilities map[string]interface{}
	options := make(map[string]interface{})

	for key, value := range obj {
		switch key {
		case "type":
			s, ok := value.(string)
			if !ok {
				return Plugin{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "type"})
			}
			typ = s
			typeSeen = true
		case "args":
			m, ok := value.(map[string]interface{})
			if !ok {
				return Plugin{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "args"})
			}
			args = m
		case "capabilities":
			m, ok := value.(map[string]interface{})
			if !ok {
				return Plugin{}, errors.WithStack(&Error{Kind: KeyOfWrongType, Key: "capabilities"})
			}
			capabilities = m
		default:
			options[key] = value
		}
	}

	if !typeSeen {
		return Plugin{}, errors.WithStack(&Error{Kind: MissingKey, Key: "type"})
	}

	return Plugin{
		Type:          typ,
		Args:          args,
		Capabilities:  capabilities,
		PluginOptions: options,
	}, nil
}

// EmitPluginList serializes list back to its canonical JSON form.
func EmitPluginList(list PluginList) ([]byte, error) {
	m, err := pluginListToMap(list)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(&Error{Kind: SerdeError, Cause: err}, "emit plugin list")
	}
	return out, nil
}

func pluginListToMap(list PluginList) (map[string]interface{}, error) {
	m := make(map[string]interface{})
	m["cniVersion"] = list.CNIVersion.String()
	if len(list.CNIVersions) > 0 {
		versions := make([]string, len(list.CNIVersions))
		for i, v := range list.CNIVersions {
			versions[i] = v.String()
		}
		m["cniVersions"] = versions
	}
	m["name"] = list.Name.String()
	m["disableCheck"] = list.DisableCheck
	m["disableGC"] = list.DisableGC

	plugins := make([]map[string]interface{}, 0, len(list.Plugins))
	for _, p := range list.Plugins {
		pm, err := pluginToMap(p)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, pm)
	}
	m["plugins"] = plugins
	return m, nil
}

// EmitPlugin serializes a standalone Plugin back to its canonical JSON
// form.
func EmitPlugin(p Plugin) ([]byte, error) {
	m, err := pluginToMap(p)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(&Error{Kind: SerdeError, Cause: err}, "emit plugin")
	}
	return out, nil
}

func pluginToMap(p Plugin) (map[string]interface{}, error) {
	m := make(map[string]interface{})
	m["type"] = p.Type
	if p.Args != nil {
		m["args"] = p.Args
	}
	if p.Capabilities != nil {
		m["capabilities"] = p.Capabilities
	}

	for key, value := range p.PluginOptions {
		if key == "type" || key == "args" || key == "capabilities" {
			return nil, &Error{Kind: OverlappingKey, Key: key}
		}
		m[key] = value
	}

	return m, nil
}
