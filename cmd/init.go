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
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pv13f/db"
	"github.com/penny-vault/pv13f/library"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type workspaceConfig struct {
	Dir string `toml:"dir"`
}

type edgarConfig struct {
	UserAgent string `toml:"user_agent"`
	RateLimit int    `toml:"rate_limit"`
}

type openFigiConfig struct {
	APIKey string `toml:"apikey,omitempty"`
}

type dbConfig struct {
	URL string `toml:"url,omitempty"`
}

type fileConfig struct {
	Workspace workspaceConfig `toml:"workspace"`
	Edgar     edgarConfig     `toml:"edgar"`
	OpenFigi  openFigiConfig  `toml:"openfigi"`
	DB        dbConfig        `toml:"db"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file and optionally a database library",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		config := fileConfig{
			Workspace: workspaceConfig{Dir: viper.GetString("workspace.dir")},
			Edgar:     edgarConfig{RateLimit: viper.GetInt("edgar.rate_limit")},
		}
		myLibrary := &library.Library{}

		form := huh.NewForm(
			// Where filings are kept and how to reach EDGAR
			huh.NewGroup(
				huh.NewInput().
					Title("Where should the workspace be stored?").
					Value(&config.Workspace.Dir),

				huh.NewInput().
					Title("Contact email sent to EDGAR in the User-Agent header:").
					Value(&config.Edgar.UserAgent),

				huh.NewInput().
					Title("OpenFIGI API key (optional):").
					Value(&config.OpenFigi.APIKey),
			),

			// Optional database library
			huh.NewGroup(
				huh.NewInput().
					Title("Give the library a name:").
					Value(&myLibrary.Name),

				huh.NewInput().
					Title("Who owns the library?").
					Value(&myLibrary.Owner),

				huh.NewInput().
					Title("Provide the DSN for your PostgreSQL database, or leave empty to skip (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&myLibrary.DBUrl).
					Validate(func(dsn string) error {
						if dsn == "" {
							return nil
						}
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		if err := os.MkdirAll(config.Workspace.Dir, 0755); err != nil {
			log.Fatal().Err(err).Str("Dir", config.Workspace.Dir).Msg("could not create workspace directory")
		}

		if myLibrary.DBUrl != "" {
			config.DB.URL = myLibrary.DBUrl

			log.Info().Msg("creating database tables")

			err = db.Migrate(myLibrary.DBUrl)
			if err != nil {
				log.Fatal().Err(err).Msg("error running database migration")
			}

			log.Info().Msg("database tables created")
			log.Info().Msg("Saving library name and owner to database")

			// save library name and owner to database
			if err := myLibrary.Connect(ctx); err != nil {
				log.Fatal().Err(err).Msg("could not connect to database")
			}
			defer myLibrary.Close()

			err = myLibrary.SaveDB(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("error saving library settings to database")
			}
		}

		// save settings to config file
		configFN := cfgFile
		if configFN == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				log.Fatal().Err(err).Msg("could not determine user home directory")
			}
			configFN = filepath.Join(home, ".pv13f.toml")
		}

		log.Info().Str("ConfigFile", configFN).Msg("Saving settings to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pv13f has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
