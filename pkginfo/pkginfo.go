// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Name is used in the version banner and the outgoing User-Agent
const Name = "pv13f"

// Set at link time with -ldflags "-X github.com/penny-vault/pv13f/pkginfo.Version=..."
var (
	BuildDate  string
	CommitHash string
	Version    string
)

// VersionOrDev returns the linked version, or "dev" for local builds
func VersionOrDev() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// BuildVersionString returns a version info string suitable for printing on the command line
func BuildVersionString() string {
	return fmt.Sprintf(`%s %s %s/%s

Build Date: %s
Commit: %s
Built with: %s`, Name, VersionOrDev(), runtime.GOOS, runtime.GOARCH, BuildDate, CommitHash, runtime.Version())
}

// UserAgent identifies pv13f in outgoing HTTP requests. contact is appended
// when set; EDGAR rejects anonymous clients.
func UserAgent(contact string) string {
	agent := fmt.Sprintf("%s/%s", Name, VersionOrDev())
	if contact = strings.TrimSpace(contact); contact != "" {
		agent = fmt.Sprintf("%s %s", agent, contact)
	}
	return agent
}

// Dependencies lists the modules linked into the binary as `path="version"`.
// When prefix is non-empty only module paths starting with it are returned.
func Dependencies(prefix string) []string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return nil
	}

	return formatDependencies(buildInfo.Deps, prefix)
}

func formatDependencies(modules []*debug.Module, prefix string) []string {
	deps := make([]string, 0, len(modules))
	for _, dep := range modules {
		if !strings.HasPrefix(dep.Path, prefix) {
			continue
		}

		version := dep.Version
		if dep.Replace != nil {
			version = fmt.Sprintf("%s => %s@%s", dep.Version, dep.Replace.Path, dep.Replace.Version)
		}
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, version))
	}

	sort.Strings(deps)
	return deps
}
