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
	"os"

	"github.com/penny-vault/pv13f/export"
	"github.com/penny-vault/pv13f/figi"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutDir string
	exportFigi   bool
	exportUpload bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <cik...>",
	Short: "Export holdings and merged series to parquet or Excel",
	Long: `export writes the clean holdings and merged series of each entity.

	--format parquet   <cik>-<name>-holdings.parquet and <cik>-<name>-series.parquet
	--format xlsx      <cik>-<name>.xlsx with one sheet per merge table

When backblaze credentials and a bucket are configured the files are also
uploaded to <bucket>/<cik>/.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := commandContext()

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid export format")
		}

		if err := os.MkdirAll(exportOutDir, 0755); err != nil {
			log.Fatal().Err(err).Str("Dir", exportOutDir).Msg("could not create output directory")
		}

		exporter := export.NewExporter(openRepository(), exportOutDir)
		if exportFigi {
			exporter.Enricher = figi.NewClient("")
		}

		for _, entity := range args {
			files, err := exporter.Export(ctx, entity, format)
			if err != nil {
				log.Fatal().Err(err).Str("CIK", entity).Msg("export failed")
			}

			if exportUpload {
				if err := export.Upload(ctx, entity, files); err != nil {
					log.Fatal().Err(err).Str("CIK", entity).Msg("upload failed")
				}
			}

			log.Info().Str("CIK", entity).Strs("Files", files).Msg("exported entity")
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatParquet), "output format (parquet, xlsx)")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportFigi, "figi", false, "add ticker and composite FIGI to holdings using OpenFIGI")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", true, "upload exports to backblaze when configured")
}
