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
package report_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/workspace"
)

var _ = Describe("Catalog", func() {
	var (
		repo    *workspace.FileRepository
		catalog *report.Catalog
	)

	BeforeEach(func() {
		repo = workspace.NewFileRepository(afero.NewMemMapFs(), "/output")
		catalog = report.NewCatalog(repo, report.NewScaleCorrector())

		for _, filing := range []*data.Filing{
			{CIK: "0000123456", CompanyName: "OLD NAME LLC", FiledDate: "2001-05-15", PeriodOfReport: "2001-03-31", Quarter: "2001-q1"},
			{CIK: "0000123456", CompanyName: "NEW NAME LLC", FiledDate: "2001-08-14", PeriodOfReport: "2001-06-30", Quarter: "2001-q2"},
		} {
			Expect(workspace.WriteFiling(repo, filing)).To(Succeed())
		}

		for _, quarter := range []string{"2001-q1", "2001-q2"} {
			Expect(workspace.WriteHoldings(repo, "0000123456", workspace.StageClean, quarter, data.Holdings{
				{NameOfIssuer: "ACME CORP", TitleOfClass: "COM", Cusip: "000000001", Value: 10, PortfolioPercent: 100},
			})).To(Succeed())
		}

		Expect(workspace.WriteSeries(repo, "0000123456", &data.Series{
			Key:      data.ByIssuer,
			Target:   data.Proportion,
			Quarters: []string{"2001-q2", "2001-q1"},
			Rows:     []*data.SeriesRow{{Key: "ACME CORP", Values: []*float64{ptr(100), ptr(100)}}},
		})).To(Succeed())

		Expect(workspace.WriteSeries(repo, "0000123456", &data.Series{
			Key:      data.ByIssuer,
			Target:   data.Value,
			Quarters: []string{"2001-q2", "2001-q1"},
			Rows:     []*data.SeriesRow{{Key: "ACME CORP", Values: []*float64{ptr(10), ptr(10)}}},
		})).To(Succeed())
	})

	It("lists entities with their latest name", func() {
		entities, err := catalog.Entities()
		Expect(err).NotTo(HaveOccurred())
		Expect(entities).To(Equal([]*report.Entity{
			{CIK: "0000123456", Name: "NEW NAME LLC", Quarters: []string{"2001-q1", "2001-q2"}},
		}))
	})

	It("orders quarters either way", func() {
		Expect(catalog.Quarters("0000123456", false)).To(Equal([]string{"2001-q2", "2001-q1"}))
	})

	It("reports unknown entities", func() {
		_, err := catalog.Quarters("0000999999", true)
		Expect(err).To(MatchError(workspace.ErrEntityNotFound))
	})

	It("reports series that were never merged", func() {
		_, err := catalog.Series("0000123456", data.ByCusip, data.Value)
		Expect(err).To(MatchError(report.ErrNoData))
	})

	It("answers chart queries from the merged series", func() {
		top, err := catalog.TopHoldings("0000123456", data.ByIssuer, "2001-q2", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(top).To(HaveLen(1))

		changes, err := catalog.Compare("0000123456", data.ByIssuer, "2001-q1", "2001-q2", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(changes[0].Ratio).To(Equal(1.0))

		history, err := catalog.History("0000123456", data.ByIssuer, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(history.Quarters).To(Equal([]string{"2001-q1", "2001-q2"}))

		pts, _, err := catalog.TotalValue("0000123456", data.ByIssuer)
		Expect(err).NotTo(HaveOccurred())
		Expect(values(pts)).To(Equal([]any{10_000.0, 10_000.0}))
	})

	It("summarizes an entity", func() {
		summary, err := catalog.Summary("0000123456")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(HavePrefix("# NEW NAME LLC"))
		Expect(summary).To(ContainSubstring("Filings: 2"))
		Expect(summary).To(ContainSubstring("Coverage: 2001-q1 - 2001-q2"))
		Expect(summary).To(ContainSubstring("2001-q2 filed 2001-08-14"))
	})
})
