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
package export_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xuri/excelize/v2"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/export"
	"github.com/penny-vault/pv13f/figi"
	"github.com/penny-vault/pv13f/pipeline"
	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/workspace"
)

const entity = "0000123456"

type fakeEnricher struct {
	assets map[string]*figi.OpenFigiAsset
	asked  []string
}

func (enricher *fakeEnricher) LookupCUSIPs(ctx context.Context, cusips []string) (map[string]*figi.OpenFigiAsset, error) {
	enricher.asked = append(enricher.asked, cusips...)
	return enricher.assets, nil
}

func readParquet[T any](fn string) []T {
	fr, err := local.NewLocalFileReader(fn)
	Expect(err).NotTo(HaveOccurred())
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), 4)
	Expect(err).NotTo(HaveOccurred())
	defer pr.ReadStop()

	rows := make([]T, int(pr.GetNumRows()))
	Expect(pr.Read(&rows)).To(Succeed())
	return rows
}

func seedWorkspace(ctx context.Context, repo workspace.Repository) {
	q1 := &data.Filing{
		CIK:            entity,
		CompanyName:    "Example Capital Management, LLC",
		FiledDate:      "2023-05-15",
		PeriodOfReport: "2023-03-31",
		Quarter:        "2023-q1",
	}
	q2 := &data.Filing{
		CIK:            entity,
		CompanyName:    "Example Capital Management, LLC",
		FiledDate:      "2023-08-14",
		PeriodOfReport: "2023-06-30",
		Quarter:        "2023-q2",
	}
	Expect(workspace.WriteFiling(repo, q1)).To(Succeed())
	Expect(workspace.WriteFiling(repo, q2)).To(Succeed())

	first := data.Holdings{
		{NameOfIssuer: "APPLE INC", TitleOfClass: "COM", Cusip: "037833100", Value: 300, Shares: 10,
			VotingSole: data.NewOptionalInt(10)},
		{NameOfIssuer: "MICROSOFT CORP", TitleOfClass: "COM", Cusip: "594918104", Value: 100, Shares: 5},
	}
	first.ComputePortfolioPercent()
	Expect(workspace.WriteHoldings(repo, entity, workspace.StageRaw, q1.ArtifactName(), first)).To(Succeed())

	second := data.Holdings{
		{NameOfIssuer: "APPLE INC", TitleOfClass: "COM", Cusip: "037833100", Value: 400, Shares: 12},
	}
	second.ComputePortfolioPercent()
	Expect(workspace.WriteHoldings(repo, entity, workspace.StageRaw, q2.ArtifactName(), second)).To(Succeed())

	Expect(pipeline.Rebuild(ctx, repo, entity)).To(Succeed())
}

var _ = Describe("Exporter", func() {
	var (
		ctx      context.Context
		repo     *workspace.FileRepository
		exporter *export.Exporter
		outDir   string
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = workspace.NewFileRepository(afero.NewMemMapFs(), "/workspace")
		outDir = GinkgoT().TempDir()
		exporter = export.NewExporter(repo, outDir)
	})

	Context("with a merged entity", func() {
		BeforeEach(func() {
			seedWorkspace(ctx, repo)
		})

		It("names files after the CIK and company", func() {
			Expect(exporter.BaseName(entity)).To(Equal(entity + "-example-capital-management-llc"))
		})

		It("writes holdings and series parquet files", func() {
			files, err := exporter.Export(ctx, entity, export.FormatParquet)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(Equal([]string{
				filepath.Join(outDir, entity+"-example-capital-management-llc-holdings.parquet"),
				filepath.Join(outDir, entity+"-example-capital-management-llc-series.parquet"),
			}))

			holdings := readParquet[export.HoldingRow](files[0])
			Expect(holdings).To(HaveLen(3))
			Expect(holdings[0].Quarter).To(Equal("2023-q1"))
			Expect(holdings[0].NameOfIssuer).To(Equal("APPLE INC"))
			Expect(holdings[0].CIK).To(Equal(entity))
			Expect(holdings[0].PortfolioPercent).To(BeNumerically("~", 75.0))
			Expect(holdings[0].VotingSole).NotTo(BeNil())
			Expect(*holdings[0].VotingSole).To(Equal(int64(10)))
			Expect(holdings[1].VotingSole).To(BeNil())
			Expect(holdings[2].Quarter).To(Equal("2023-q2"))
			Expect(holdings[2].Ticker).To(BeEmpty())

			series := readParquet[export.SeriesRow](files[1])
			Expect(series).To(HaveLen(27))
			Expect(series).To(ContainElement(export.SeriesRow{
				MergeKey: "cusip",
				Target:   "value",
				Key:      "594918104",
				Quarter:  "2023-q1",
				Value:    100,
			}))
		})

		It("tags holdings with tickers when an enricher is set", func() {
			enricher := &fakeEnricher{assets: map[string]*figi.OpenFigiAsset{
				"037833100": {Ticker: "AAPL", CompositeFIGI: "BBG000B9XRY4"},
			}}
			exporter.Enricher = enricher

			files, err := exporter.Parquet(ctx, entity)
			Expect(err).NotTo(HaveOccurred())
			Expect(enricher.asked).To(Equal([]string{"037833100", "594918104"}))

			holdings := readParquet[export.HoldingRow](files[0])
			Expect(holdings[0].Ticker).To(Equal("AAPL"))
			Expect(holdings[0].CompositeFigi).To(Equal("BBG000B9XRY4"))
			Expect(holdings[1].Ticker).To(BeEmpty())
		})

		It("writes a workbook with one sheet per merge table", func() {
			files, err := exporter.Export(ctx, entity, export.FormatXLSX)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(1))

			f, err := excelize.OpenFile(files[0])
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			Expect(f.GetSheetList()).To(HaveLen(9))
			Expect(f.GetSheetList()).NotTo(ContainElement("Sheet1"))

			rows, err := f.GetRows("nameOfIssuer_to_value")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([][]string{
				{"nameOfIssuer", "2023-q2", "2023-q1"},
				{"APPLE INC", "400", "300"},
				{"MICROSOFT CORP", "", "100"},
			}))
		})
	})

	It("fails for an entity that is not merged", func() {
		Expect(workspace.WriteFiling(repo, &data.Filing{
			CIK: entity, CompanyName: "Example", FiledDate: "2023-05-15", Quarter: "2023-q1",
		})).To(Succeed())

		_, err := exporter.Parquet(ctx, entity)
		Expect(err).To(MatchError(report.ErrNoData))
	})

	It("fails for an unknown entity", func() {
		_, err := exporter.Workbook(ctx, "0000999999")
		Expect(err).To(MatchError(workspace.ErrEntityNotFound))
	})

	It("rejects an unknown format", func() {
		_, err := export.ParseFormat("csv")
		Expect(err).To(MatchError(export.ErrUnknownFormat))
	})
})
