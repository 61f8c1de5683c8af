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
	"github.com/sirupsen/logrus"

	"github.com/cni-runtime/cnirt/internal/log"
)

// SetLogger installs l as the logger cnirt's internal packages use for
// debug/warn diagnostics. Passing nil restores the default silent
// logger. Embedders that want visibility into plugin invocation must
// call this, since cnirt otherwise logs nothing.
func SetLogger(l *logrus.Logger) {
	log.SetLogger(l)
}
