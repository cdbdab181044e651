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

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pv13f/library"
	"github.com/penny-vault/pv13f/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var infoDB bool

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [cik]",
	Short: "Display information about a manager or the database library",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext()

		var (
			summary string
			err     error
		)

		switch {
		case infoDB:
			myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
			if err != nil {
				log.Fatal().Err(err).Msg("could not load library info")
			}
			defer myLibrary.Close()

			summary, err = myLibrary.Summary(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("could not create library summary document")
			}
		case len(args) == 1:
			catalog := report.NewCatalog(openRepository(), scaleCorrector())
			summary, err = catalog.Summary(args[0])
			if err != nil {
				log.Fatal().Err(err).Str("CIK", args[0]).Msg("could not create entity summary document")
			}
		default:
			log.Fatal().Msg("either a CIK or --db is required")
		}

		renderMarkdown(summary)
	},
}

func renderMarkdown(doc string) {
	r, _ := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(80),
	)

	out, err := r.Render(doc)
	if err != nil {
		log.Fatal().Err(err).Msg("could not render markdown document")
	}

	fmt.Print(out)
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoDB, "db", false, "summarize the database library instead of the workspace")
}
