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
	"strings"

	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/server"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pv13f",
	Short: "pv13f turns SEC 13F filings into per-manager holdings time series",
	Long: `pv13f is a command line utility for building a workspace of institutional
holdings from SEC Form 13F filings. Each submission is parsed into a table of
holdings, amendments are folded into their quarter, issuers are given a stable
canonical name and the full history of every manager is pivoted into
time series keyed by issuer name, CUSIP or canonical name.

Filings may be read from a local directory or downloaded from EDGAR. The
resulting workspace can be explored from the command line, served over HTTP,
exported to parquet or Excel, or published to a PostgreSQL library.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pv13f.toml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("workspace", "", "workspace directory (default is $HOME/.pv13f/output)")
	rootCmd.PersistentFlags().String("db-url", "", "library database connection string")

	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for log-level failed")
	}

	if err := viper.BindPFlag("workspace.dir", rootCmd.PersistentFlags().Lookup("workspace")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for workspace failed")
	}

	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db-url failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	viper.SetDefault("workspace.dir", filepath.Join(home, ".pv13f", "output"))
	viper.SetDefault("log.level", "info")
	viper.SetDefault("scale.jump_threshold", report.DefaultJumpThreshold)
	viper.SetDefault("scale.fallback_quarter", report.DefaultFallbackQuarter)
	viper.SetDefault("edgar.rate_limit", 10)
	viper.SetDefault("server.listen", server.DefaultListen)

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".pv13f" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pv13f")
	}

	viper.SetEnvPrefix("PV13F")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}

	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		log.Warn().Str("Level", viper.GetString("log.level")).Msg("unknown log level; using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// commandContext carries the global logger so library code can reach it
// through zerolog.Ctx
func commandContext() context.Context {
	return log.Logger.WithContext(context.Background())
}

func openRepository() *workspace.FileRepository {
	return workspace.NewOsRepository(viper.GetString("workspace.dir"))
}

func scaleCorrector() report.ScaleCorrector {
	return report.ScaleCorrector{
		JumpThreshold:   viper.GetFloat64("scale.jump_threshold"),
		FallbackQuarter: viper.GetString("scale.fallback_quarter"),
	}
}
