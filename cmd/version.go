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
package cmd

import (
	"fmt"
	"strings"

	"github.com/penny-vault/pv13f/pkginfo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		agent, _ := cmd.Flags().GetBool("user-agent")
		deps, _ := cmd.Flags().GetBool("deps")
		prefix, _ := cmd.Flags().GetString("deps-prefix")

		switch {
		case short:
			fmt.Println(pkginfo.VersionOrDev())
		case agent:
			fmt.Println(pkginfo.UserAgent(viper.GetString("edgar.user_agent")))
		default:
			fmt.Println(pkginfo.BuildVersionString())
		}

		if deps {
			fmt.Printf("\n\n")
			fmt.Println(strings.Join(pkginfo.Dependencies(prefix), "\n"))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("deps", "d", false, "print dependencies")
	versionCmd.Flags().String("deps-prefix", "", "only print dependencies whose module path starts with this prefix")
	versionCmd.Flags().BoolP("short", "s", false, "only print version number")
	versionCmd.Flags().Bool("user-agent", false, "print the User-Agent sent to EDGAR")
}
