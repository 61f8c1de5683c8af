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

// Package invoke spawns a located plugin binary with a derived
// environment and stdin, under one of three privilege-elevation
// strategies, and returns whatever text the plugin printed.
package invoke

import (
	"bytes"
	"context"
	"os/exec"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cni-runtime/cnirt/internal/log"
)

// ErrPermissionDenied is returned by the elevated executors when the
// configured credentials were rejected.
var ErrPermissionDenied = errors.New("cnirt: elevation credentials were rejected")

// Executor spawns program with the given environment variables and
// delivers stdin to it, returning whichever output text the strategy
// considers authoritative.
type Executor interface {
	Invoke(ctx context.Context, program string, env map[string]string, stdin string) (string, error)
}

func envSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(env))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// DirectExecutor runs the plugin binary directly as program, under the
// exact environment given (no inheritance of CNI_* beyond the caller's
// input). CNI plugins customarily print their JSON on stdout, but some
// print it on stderr instead; DirectExecutor returns whichever stream is
// longer.
type DirectExecutor struct{}

// Invoke implements Executor.
func (DirectExecutor) Invoke(ctx context.Context, program string, env map[string]string, stdin string) (string, error) {
	log.Debugf(logrus.Fields{"program": program}, "direct executor spawning plugin")

	cmd := exec.CommandContext(ctx, program)
	cmd.Env = envSlice(env)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return "", errors.Wrapf(err, "spawn plugin %s", program)
		}
	}

	if stderr.Len() > 0 {
		log.Warnf(logrus.Fields{"program": program}, "plugin wrote to stderr: %s", stderr.String())
	}

	if stdout.Len() > stderr.Len() {
		return stdout.String(), nil
	}
	return stderr.String(), nil
}

// SuCniInvoker-equivalent: SuExecutor runs the plugin through su,
// authenticating with a password written to su's stdin.
type SuExecutor struct {
	SuPath   string
	Password string
}

// Invoke implements Executor.
func (s SuExecutor) Invoke(ctx context.Context, program string, env map[string]string, stdin string) (string, error) {
	log.Debugf(logrus.Fields{"program": program, "su": s.SuPath}, "su executor spawning plugin")

	cmd := exec.CommandContext(ctx, s.SuPath)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return "", errors.Wrap(err, "open su stdin pipe")
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(err, "spawn %s", s.SuPath)
	}

	shellLine := buildEnvString(env) + program + " ; exit\n"
	if _, err := stdinPipe.Write([]byte(s.Password + "\n")); err != nil {
		return "", errors.Wrap(err, "write su password")
	}
	if _, err := stdinPipe.Write([]byte(shellLine)); err != nil {
		return "", errors.Wrap(err, "write su shell line")
	}
	if _, err := stdinPipe.Write([]byte(stdin)); err != nil {
		return "", errors.Wrap(err, "write plugin stdin")
	}
	if err := stdinPipe.Close(); err != nil {
		return "", errors.Wrap(err, "close su stdin")
	}

	waitErr := cmd.Wait()
	if stderr.Len() > 0 {
		log.Warnf(logrus.Fields{"program": program}, "su session wrote to stderr: %s", stderr.String())
	}
	if strings.Contains(stderr.String(), "fail") {
		return "", ErrPermissionDenied
	}
	if waitErr != nil {
		if _, isExit := waitErr.(*exec.ExitError); !isExit {
			return "", errors.Wrap(waitErr, "wait for su")
		}
	}

	return stdout.String(), nil
}

// SudoExecutor runs the plugin through sudo -S, optionally feeding a
// password to sudo's stdin.
type SudoExecutor struct {
	SudoPath string
	Password *string
}

// Invoke implements Executor.
func (s SudoExecutor) Invoke(ctx context.Context, program string, env map[string]string, stdin string) (string, error) {
	log.Debugf(logrus.Fields{"program": program, "sudo": s.SudoPath}, "sudo executor spawning plugin")

	fullCommand := buildEnvString(env) + program
	cmd := exec.CommandContext(ctx, s.SudoPath, "-S", fullCommand)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return "", errors.Wrap(err, "open sudo stdin pipe")
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(err, "spawn %s", s.SudoPath)
	}

	if s.Password != nil {
		if _, err := stdinPipe.Write([]byte(*s.Password + "\n")); err != nil {
			return "", errors.Wrap(err, "write sudo password")
		}
	}
	if _, err := stdinPipe.Write([]byte(stdin)); err != nil {
		return "", errors.Wrap(err, "write plugin stdin")
	}
	if err := stdinPipe.Close(); err != nil {
		return "", errors.Wrap(err, "close sudo stdin")
	}

	waitErr := cmd.Wait()
	if stderr.Len() > 0 {
		log.Warnf(logrus.Fields{"program": program}, "sudo session wrote to stderr: %s", stderr.String())
	}
	if strings.Contains(stderr.String(), "Sorry, try again") {
		return "", ErrPermissionDenied
	}
	if waitErr != nil {
		if _, isExit := waitErr.(*exec.ExitError); !isExit {
			return "", errors.Wrap(waitErr, "wait for sudo")
		}
	}

	return stdout.String(), nil
}

// buildEnvString renders environment assignments in the
// "KEY1=VAL1 KEY2=VAL2 " form consumed by the su/sudo shell line.
// Password values are never part of env, so nothing secret can leak
// through this string.
func buildEnvString(env map[string]string) string {
	var b strings.Builder
	for _, kv := range envSlice(env) {
		b.WriteString(kv)
		b.WriteByte(' ')
	}
	return b.String()
}
