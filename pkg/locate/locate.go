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

// Package locate resolves a plugin type name to an executable path on
// disk.
package locate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cni-runtime/cnirt/internal/log"
)

// Locator resolves a plugin type to a filesystem path. Implementations
// must be side-effect-free beyond filesystem reads.
type Locator interface {
	Locate(pluginType string) (path string, found bool)
}

// MappedLocator resolves plugin types from a caller-supplied mapping.
type MappedLocator struct {
	Paths map[string]string
}

// Locate implements Locator.
func (m MappedLocator) Locate(pluginType string) (string, bool) {
	path, found := m.Paths[pluginType]
	log.Debugf(logrus.Fields{"pluginType": pluginType, "found": found}, "mapped locator lookup")
	return path, found
}

// DirectoryLocator scans a single directory, non-recursively, for an
// entry matching pluginType. When ExactName is true, the entry's file
// name must equal pluginType; otherwise the first entry whose file name
// contains pluginType as a substring wins. Iteration order is the
// filesystem's directory order.
type DirectoryLocator struct {
	Directory string
	ExactName bool
}

// Locate implements Locator.
func (d DirectoryLocator) Locate(pluginType string) (string, bool) {
	// os.ReadDir sorts by name; File.ReadDir keeps the directory's order.
	dir, err := os.Open(d.Directory)
	if err != nil {
		log.Debugf(logrus.Fields{"pluginType": pluginType, "dir": d.Directory, "error": err}, "directory locator read failed")
		return "", false
	}
	entries, err := dir.ReadDir(-1)
	dir.Close()
	if err != nil {
		log.Debugf(logrus.Fields{"pluginType": pluginType, "dir": d.Directory, "error": err}, "directory locator read failed")
		return "", false
	}

	for _, entry := range entries {
		name := entry.Name()
		if name == pluginType || (!d.ExactName && strings.Contains(name, pluginType)) {
			path := filepath.Join(d.Directory, name)
			log.Debugf(logrus.Fields{"pluginType": pluginType, "path": path}, "directory locator matched")
			return path, true
		}
	}

	log.Debugf(logrus.Fields{"pluginType": pluginType, "dir": d.Directory}, "directory locator found no match")
	return "", false
}
