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

// Package log is cnirt's internal logging seam. It never writes to the
// embedding process's stdout/stderr unless the caller explicitly opts in
// with SetLogger, since those streams belong to whatever plugin is
// currently being invoked.
package log

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger = newSilentLogger()
)

func newSilentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger installs l as the logger used by cnirt's internal packages.
// Passing nil restores the default silent logger.
func SetLogger(l *logrus.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		logger = newSilentLogger()
		return
	}
	logger = l
}

func current() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debugf logs a debug-level diagnostic message with structured fields.
func Debugf(fields logrus.Fields, format string, args ...interface{}) {
	current().WithFields(fields).Debugf(format, args...)
}

// Warnf logs a warn-level diagnostic message with structured fields.
func Warnf(fields logrus.Fields, format string, args ...interface{}) {
	current().WithFields(fields).Warnf(format, args...)
}
