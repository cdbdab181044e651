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
	"strconv"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	reportKey     string
	reportQuarter string
	reportN       int
)

func reportCatalog() *report.Catalog {
	return report.NewCatalog(openRepository(), scaleCorrector())
}

func reportMergeKey() data.MergeKey {
	key, err := data.ParseMergeKey(reportKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid merge key")
	}
	return key
}

var topCmd = &cobra.Command{
	Use:   "top <cik>",
	Short: "Show the largest positions of one quarter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		catalog := reportCatalog()

		quarter := reportQuarter
		if quarter == "" {
			quarters, err := catalog.Quarters(args[0], false)
			if err != nil {
				log.Fatal().Err(err).Str("CIK", args[0]).Msg("could not list quarters")
			}
			if len(quarters) == 0 {
				log.Fatal().Str("CIK", args[0]).Msg("entity has no quarters")
			}
			quarter = quarters[0]
		}

		positions, err := catalog.TopHoldings(args[0], reportMergeKey(), quarter, reportN)
		if err != nil {
			log.Fatal().Err(err).Str("CIK", args[0]).Str("Quarter", quarter).Msg("could not compute top holdings")
		}

		rows := make([][]string, 0, len(positions))
		for idx, position := range positions {
			rows = append(rows, []string{strconv.Itoa(idx + 1), position.Key, formatValue(&position.Value)})
		}

		printTable(fmt.Sprintf("%s top holdings %s", args[0], quarter), []string{"#", reportKey, "Portfolio %"}, rows, 2)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <cik> <from-quarter> <to-quarter>",
	Short: "Compare position sizes between two quarters",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		changes, err := reportCatalog().Compare(args[0], reportMergeKey(), args[1], args[2], reportN)
		if err != nil {
			log.Fatal().Err(err).Str("CIK", args[0]).Msg("could not compare quarters")
		}

		rows := make([][]string, 0, len(changes))
		for _, change := range changes {
			rows = append(rows, []string{change.Key, formatValue(&change.From), formatValue(&change.To),
				formatValue(&change.Ratio)})
		}

		printTable(fmt.Sprintf("%s %s vs %s", args[0], args[1], args[2]),
			[]string{reportKey, args[1], args[2], "Ratio"}, rows, 1)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <cik>",
	Short: "Follow the current top positions through every quarter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		history, err := reportCatalog().History(args[0], reportMergeKey(), reportN)
		if err != nil {
			log.Fatal().Err(err).Str("CIK", args[0]).Msg("could not build history")
		}

		headers := append([]string{reportKey}, history.Quarters...)
		rows := make([][]string, 0, len(history.Rows))
		for _, row := range history.Rows {
			cells := []string{row.Key}
			for _, v := range row.Values {
				cells = append(cells, formatValue(v))
			}
			rows = append(rows, cells)
		}

		printTable(args[0]+" portfolio % history", headers, rows, 1)
	},
}

var totalCmd = &cobra.Command{
	Use:   "total <cik>",
	Short: "Show the total reported portfolio value per quarter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		points, transition, err := reportCatalog().TotalValue(args[0], reportMergeKey())
		if err != nil {
			log.Fatal().Err(err).Str("CIK", args[0]).Msg("could not compute total value")
		}

		rows := make([][]string, 0, len(points))
		for _, point := range points {
			rows = append(rows, []string{point.Quarter, formatValue(point.Value)})
		}

		printTable(fmt.Sprintf("%s total value (scaled x1000 through %s)", args[0], transition),
			[]string{"Quarter", "Value"}, rows, 1)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{topCmd, compareCmd, historyCmd, totalCmd} {
		cmd.Flags().StringVarP(&reportKey, "key", "k", string(data.ByCanonical), "merge key (nameOfIssuer, cusip, name)")
		rootCmd.AddCommand(cmd)
	}

	topCmd.Flags().StringVarP(&reportQuarter, "quarter", "q", "", "quarter to report (default is the most recent)")
	for _, cmd := range []*cobra.Command{topCmd, compareCmd, historyCmd} {
		cmd.Flags().IntVarP(&reportN, "num", "n", report.DefaultTopN, "number of positions")
	}
}
