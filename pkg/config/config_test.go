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

package config

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asConfigError(t *testing.T, err error) *Error {
	t.Helper()
	var ce *Error
	require.True(t, errors.As(err, &ce), "expected a *config.Error in the chain, got %T: %v", err, err)
	return ce
}

const sampleList = `{
	"cniVersion": "1.0.0",
	"name": "mynet",
	"plugins": [
		{"type": "bridge", "bridge": "cni0", "isGateway": true},
		{"type": "portmap", "capabilities": {"portMappings": true}}
	]
}`

func TestPluginListRoundTrip(t *testing.T) {
	list, err := ParsePluginList([]byte(sampleList))
	require.NoError(t, err)

	assert.Equal(t, "mynet", list.Name.String())
	assert.Equal(t, "1.0.0", list.CNIVersion.String())
	require.Len(t, list.Plugins, 2)
	assert.Equal(t, "bridge", list.Plugins[0].Type)
	assert.Equal(t, "cni0", list.Plugins[0].PluginOptions["bridge"])
	assert.Equal(t, true, list.Plugins[0].PluginOptions["isGateway"])
	assert.Nil(t, list.Plugins[0].Capabilities)
	assert.NotNil(t, list.Plugins[1].Capabilities)

	emitted, err := EmitPluginList(list)
	require.NoError(t, err)

	reparsed, err := ParsePluginList(emitted)
	require.NoError(t, err)
	assert.Equal(t, list, reparsed)
}

func TestPluginOptionsNeverContainsReservedKeys(t *testing.T) {
	list, err := ParsePluginList([]byte(sampleList))
	require.NoError(t, err)
	for _, p := range list.Plugins {
		for _, reserved := range []string{"type", "args", "capabilities"} {
			_, present := p.PluginOptions[reserved]
			assert.Falsef(t, present, "plugin_options should never contain %q", reserved)
		}
	}
}

func TestMissingTypeFails(t *testing.T) {
	_, err := ParsePlugin([]byte(`{"bridge":"cni0"}`))
	require.Error(t, err)
	assert.Equal(t, MissingKey, asConfigError(t, err).Kind)
}

func TestWrongTypedArgsFails(t *testing.T) {
	_, err := ParsePlugin([]byte(`{"type":"bridge","args":"not-an-object"}`))
	require.Error(t, err)
	assert.Equal(t, KeyOfWrongType, asConfigError(t, err).Kind)
}

func TestRootNotObjectFails(t *testing.T) {
	_, err := ParsePluginList([]byte(`[1,2,3]`))
	require.Error(t, err)
	assert.Equal(t, RootIsNotObject, asConfigError(t, err).Kind)

	_, err = ParsePluginList([]byte(`"just a string"`))
	require.Error(t, err)
	assert.Equal(t, RootIsNotObject, asConfigError(t, err).Kind)

	_, err = ParsePlugin([]byte(`42`))
	require.Error(t, err)
	assert.Equal(t, RootIsNotObject, asConfigError(t, err).Kind)
}

func TestEmptyPluginsArrayFails(t *testing.T) {
	_, err := ParsePluginList([]byte(`{"cniVersion":"1.0.0","name":"n","plugins":[]}`))
	require.Error(t, err)
	assert.Equal(t, EmptyArray, asConfigError(t, err).Kind)
}

func TestEmptyCNIVersionsArrayFails(t *testing.T) {
	_, err := ParsePluginList([]byte(`{"cniVersion":"1.0.0","cniVersions":[],"name":"n","plugins":[{"type":"bridge"}]}`))
	require.Error(t, err)
	assert.Equal(t, EmptyArray, asConfigError(t, err).Kind)
}

func TestOverlappingKeyOnEmit(t *testing.T) {
	p := Plugin{
		Type:          "bridge",
		PluginOptions: map[string]interface{}{"args": map[string]interface{}{"x": 1}},
	}
	_, err := EmitPlugin(p)
	require.Error(t, err)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, OverlappingKey, ce.Kind)
}

func TestParsePluginPreservesUnknownKeys(t *testing.T) {
	doc := []byte(`{"type":"bridge","mtu":1500,"ipMasq":true,"nested":{"a":1}}`)
	p, err := ParsePlugin(doc)
	require.NoError(t, err)

	emitted, err := EmitPlugin(p)
	require.NoError(t, err)

	var original, roundTripped map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &original))
	require.NoError(t, json.Unmarshal(emitted, &roundTripped))
	assert.Equal(t, original, roundTripped)
}
