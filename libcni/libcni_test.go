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

package libcni_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cni-runtime/cnirt/libcni"
	"github.com/cni-runtime/cnirt/pkg/cniversion"
	"github.com/cni-runtime/cnirt/pkg/config"
	"github.com/cni-runtime/cnirt/pkg/ident"
	"github.com/cni-runtime/cnirt/pkg/locate"
	"github.com/cni-runtime/cnirt/pkg/types"
)

// recordedCall captures one executor invocation for later assertion.
type recordedCall struct {
	program string
	env     map[string]string
	stdin   map[string]interface{}
}

// scriptedExecutor is a fake invoke.Executor: it records every call it
// receives and answers with a canned output keyed by program path.
type scriptedExecutor struct {
	calls   []recordedCall
	outputs map[string]string
}

func (s *scriptedExecutor) Invoke(_ context.Context, program string, env map[string]string, stdin string) (string, error) {
	var decoded map[string]interface{}
	_ = json.Unmarshal([]byte(stdin), &decoded)
	s.calls = append(s.calls, recordedCall{program: program, env: env, stdin: decoded})
	return s.outputs[program], nil
}

var _ = Describe("Invoke", func() {
	var (
		bridgePath, portmapPath string
		locator                 locate.Locator
		list                    config.PluginList
		name                    ident.Name
	)

	BeforeEach(func() {
		bridgePath = "/opt/cni/bin/bridge"
		portmapPath = "/opt/cni/bin/portmap"
		locator = locate.MappedLocator{Paths: map[string]string{
			"bridge":  bridgePath,
			"portmap": portmapPath,
		}}

		v, err := cniversion.Parse("1.0.0")
		Expect(err).NotTo(HaveOccurred())
		name, err = ident.NewName("mynet")
		Expect(err).NotTo(HaveOccurred())

		list = config.PluginList{
			CNIVersion: v,
			Name:       name,
			Plugins: []config.Plugin{
				{Type: "bridge", PluginOptions: map[string]interface{}{"bridge": "cni0"}},
				{Type: "portmap", PluginOptions: map[string]interface{}{}},
			},
		}
	})

	Context("ADD across a two-plugin chain", func() {
		It("invokes each plugin forward, threading prevResult, with CNI_COMMAND=ADD", func() {
			exec := &scriptedExecutor{outputs: map[string]string{
				bridgePath:  `{"cniVersion":"1.0.0","interfaces":[{"name":"eth0"}],"ips":[{"address":"10.0.0.5/24"}]}`,
				portmapPath: `{"cniVersion":"1.0.0","interfaces":[{"name":"eth0"}],"ips":[{"address":"10.0.0.5/24"}]}`,
			}}

			result, err := libcni.Invoke(context.Background(), libcni.Add, libcni.InvocationArguments{}, libcni.TargetPluginList(list), exec, locator)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Attachment).NotTo(BeNil())
			Expect(result.Attachment.Interfaces).To(HaveLen(1))

			Expect(exec.calls).To(HaveLen(2))
			Expect(exec.calls[0].program).To(Equal(bridgePath))
			Expect(exec.calls[1].program).To(Equal(portmapPath))

			for _, call := range exec.calls {
				Expect(call.env["CNI_COMMAND"]).To(Equal("ADD"))
			}
			Expect(exec.calls[0].stdin).NotTo(HaveKey("prevResult"))
			Expect(exec.calls[1].stdin).To(HaveKey("prevResult"))
		})
	})

	Context("DEL across a two-plugin chain", func() {
		It("invokes plugins in reverse order", func() {
			exec := &scriptedExecutor{outputs: map[string]string{
				bridgePath:  "",
				portmapPath: "",
			}}

			result, err := libcni.Invoke(context.Background(), libcni.Del, libcni.InvocationArguments{}, libcni.TargetPluginList(list), exec, locator)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Attachment).To(BeNil())
			Expect(result.VersionObjects).To(BeEmpty())

			Expect(exec.calls).To(HaveLen(2))
			Expect(exec.calls[0].program).To(Equal(portmapPath))
			Expect(exec.calls[1].program).To(Equal(bridgePath))
			for _, call := range exec.calls {
				Expect(call.env["CNI_COMMAND"]).To(Equal("DEL"))
			}
		})
	})

	Context("when the first plugin reports a plugin error", func() {
		It("aborts the chain before invoking the second plugin", func() {
			exec := &scriptedExecutor{outputs: map[string]string{
				bridgePath: `{"cniVersion":"1.0.0","code":7,"msg":"no free addresses"}`,
			}}

			_, err := libcni.Invoke(context.Background(), libcni.Add, libcni.InvocationArguments{}, libcni.TargetPluginList(list), exec, locator)
			Expect(err).To(HaveOccurred())

			var invErr *libcni.InvocationError
			Expect(errors.As(err, &invErr)).To(BeTrue())
			Expect(invErr.Kind).To(Equal(libcni.PluginProducedError))
			Expect(invErr.PluginType).To(Equal("bridge"))
			Expect(invErr.PluginError.Code).To(BeEquivalentTo(7))

			Expect(exec.calls).To(HaveLen(1))
		})
	})

	Context("when the second plugin cannot be located", func() {
		It("fails after the first plugin already ran", func() {
			partialLocator := locate.MappedLocator{Paths: map[string]string{"bridge": bridgePath}}
			exec := &scriptedExecutor{outputs: map[string]string{
				bridgePath: `{"cniVersion":"1.0.0","interfaces":[{"name":"eth0"}]}`,
			}}

			_, err := libcni.Invoke(context.Background(), libcni.Add, libcni.InvocationArguments{}, libcni.TargetPluginList(list), exec, partialLocator)
			Expect(err).To(HaveOccurred())

			var invErr *libcni.InvocationError
			Expect(errors.As(err, &invErr)).To(BeTrue())
			Expect(invErr.Kind).To(Equal(libcni.PluginNotFoundByLocator))
			Expect(invErr.PluginType).To(Equal("portmap"))

			Expect(exec.calls).To(HaveLen(1))
		})
	})

	Context("when both plugins print nothing on DEL", func() {
		It("yields neither an attachment nor any version objects", func() {
			exec := &scriptedExecutor{outputs: map[string]string{
				bridgePath:  "",
				portmapPath: "",
			}}

			result, err := libcni.Invoke(context.Background(), libcni.Del, libcni.InvocationArguments{}, libcni.TargetPluginList(list), exec, locator)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Attachment).To(BeNil())
			Expect(result.VersionObjects).To(BeEmpty())
		})
	})

	Context("GC", func() {
		It("passes valid_attachments through with CNI_COMMAND=GC", func() {
			single := config.PluginList{CNIVersion: list.CNIVersion, Name: name, Plugins: []config.Plugin{list.Plugins[0]}}
			exec := &scriptedExecutor{outputs: map[string]string{bridgePath: ""}}

			args := libcni.InvocationArguments{
				ValidAttachments: []types.ValidAttachment{{ContainerID: "abc123", IfName: "eth0"}},
			}
			_, err := libcni.Invoke(context.Background(), libcni.GC, args, libcni.TargetPluginList(single), exec, locate.MappedLocator{Paths: map[string]string{"bridge": bridgePath}})
			Expect(err).NotTo(HaveOccurred())

			Expect(exec.calls).To(HaveLen(1))
			Expect(exec.calls[0].env["CNI_COMMAND"]).To(Equal("GC"))
			Expect(exec.calls[0].stdin).To(HaveKey("cni.dev/valid-attachments"))
		})
	})
})
