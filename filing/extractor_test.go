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
package filing_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/filing"
)

func percentSum(holdings data.Holdings) float64 {
	var sum float64
	for _, h := range holdings {
		sum += h.PortfolioPercent
	}
	return sum
}

func issuers(holdings data.Holdings) []string {
	names := make([]string, 0, len(holdings))
	for _, h := range holdings {
		names = append(names, h.NameOfIssuer)
	}
	return names
}

var _ = Describe("FixedWidthExtractor", func() {
	var (
		ctx       context.Context
		extractor filing.FixedWidthExtractor
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("parses a marker style table", func() {
		holdings, err := extractor.Extract(ctx, markerTable(
			row{"ZETA INC", "COM", "000000003", "6,000", "600"},
			row{"ACME CORP", "COM", "000000001", "1,000", "1,100"},
			row{"BETA CO", "CL A", "000000002", "3,000", "300"},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(issuers(holdings)).To(Equal([]string{"ACME CORP", "BETA CO", "ZETA INC"}))
		Expect(holdings[0].Value).To(Equal(int64(1000)))
		Expect(holdings[0].Shares).To(Equal(int64(1100)))
		Expect(holdings[1].TitleOfClass).To(Equal("CL A"))
		Expect(holdings[0].PortfolioPercent).To(BeNumerically("~", 10.0, 1e-9))
		Expect(holdings[2].PortfolioPercent).To(BeNumerically("~", 60.0, 1e-9))
		Expect(percentSum(holdings)).To(BeNumerically("~", 100.0, 1e-9))
		Expect(holdings[0].VotingSole.Valid).To(BeFalse())
		Expect(holdings[0].OtherManager).To(BeEmpty())
	})

	It("parses an underscore style table", func() {
		holdings, err := extractor.Extract(ctx, underscoreTable(
			row{"ACME CORP", "COM", "000000001", "2,500", "250"},
			row{"BETA CO", "COM", "000000002", "7,500", "750"},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(issuers(holdings)).To(Equal([]string{"ACME CORP", "BETA CO"}))
		Expect(holdings[0].TitleOfClass).To(Equal("COM"))
		Expect(holdings[0].Cusip).To(Equal("000000001"))
		Expect(holdings[1].Value).To(Equal(int64(7500)))
		Expect(holdings[0].PortfolioPercent).To(BeNumerically("~", 25.0, 1e-9))
	})

	It("prefers a marker ruler over an earlier underscore ruler", func() {
		table := strings.Replace(markerTable(row{"ACME CORP", "COM", "000000001", "1,000", "100"}),
			"<CAPTION>", "<CAPTION>\n"+strings.Repeat("_", 20)+" "+strings.Repeat("_", 30), 1)
		holdings, err := extractor.Extract(ctx, table)
		Expect(err).NotTo(HaveOccurred())
		Expect(holdings).To(HaveLen(1))
		Expect(holdings[0].Cusip).To(Equal("000000001"))
	})

	It("skips bad rows without aborting the table", func() {
		table := markerTable(
			row{"ACME CORP", "COM", "000000001", "1,000", "100"},
			row{"BAD VALUE INC", "COM", "000000004", "N/A", "100"},
			row{"NO CUSIP INC", "COM", "", "500", "50"},
			row{"BAD SHARES INC", "COM", "000000005", "500", "12.5"},
			row{"BETA CO", "COM", "000000002", "3,000", "300"},
		)
		table = strings.Replace(table, "</TABLE>", "TOTAL\n</TABLE>", 1)

		holdings, err := extractor.Extract(ctx, table)
		Expect(err).NotTo(HaveOccurred())
		Expect(issuers(holdings)).To(Equal([]string{"ACME CORP", "BETA CO"}))
		Expect(percentSum(holdings)).To(BeNumerically("~", 100.0, 1e-9))
	})

	It("skips rows with negative amounts", func() {
		holdings, err := extractor.Extract(ctx, markerTable(
			row{"ACME CORP", "COM", "000000001", "1,000", "100"},
			row{"SHORT CO", "COM", "000000006", "-500", "50"},
			row{"SOLD INC", "COM", "000000007", "500", "-50"},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(issuers(holdings)).To(Equal([]string{"ACME CORP"}))
		Expect(holdings[0].PortfolioPercent).To(BeNumerically("~", 100.0, 1e-9))
	})

	It("is idempotent", func() {
		table := markerTable(
			row{"ACME CORP", "COM", "000000001", "1,000", "100"},
			row{"BETA CO", "COM", "000000002", "3,000", "300"},
		)
		first, err := extractor.Extract(ctx, table)
		Expect(err).NotTo(HaveOccurred())
		second, err := extractor.Extract(ctx, table)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("guards the percentage when every value is zero", func() {
		holdings, err := extractor.Extract(ctx, markerTable(
			row{"ACME CORP", "COM", "000000001", "0", "100"},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(holdings[0].PortfolioPercent).To(BeZero())
	})

	It("fails without a ruler", func() {
		_, err := extractor.Extract(ctx, "<TABLE>\nACME CORP  COM  000000001  1000  100\n</TABLE>")
		Expect(err).To(MatchError(filing.ErrUnsupportedColumnLayout))
	})

	It("fails when the ruler defines fewer than six boundaries", func() {
		_, err := extractor.Extract(ctx, "<TABLE>\n<S>       <C>       <C>\nACME CORP COM       000000001\n</TABLE>")
		Expect(err).To(MatchError(filing.ErrUnsupportedColumnLayout))
	})

	It("reports a table without usable rows", func() {
		_, err := extractor.Extract(ctx, markerTable(row{"ACME CORP", "COM", "000000001", "N/A", "100"}))
		Expect(err).To(MatchError(filing.ErrNoHoldings))
	})
})

var _ = Describe("XMLExtractor", func() {
	var (
		ctx       context.Context
		extractor filing.XMLExtractor
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	payload := func(entries ...string) string {
		return "<informationTable xmlns=\"http://www.sec.gov/edgar/document/thirteenf/informationtable\">\n" +
			strings.Join(entries, "\n") + "\n</informationTable>"
	}

	It("parses every entry", func() {
		holdings, err := extractor.Extract(ctx, payload(
			infoTable("MICROSOFT CORP", "COM", "594918104", "750", "75"),
			infoTable("APPLE INC", "COM", "037833100", "250", "25"),
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(issuers(holdings)).To(Equal([]string{"APPLE INC", "MICROSOFT CORP"}))

		apple := holdings[0]
		Expect(apple.Cusip).To(Equal("037833100"))
		Expect(apple.Value).To(Equal(int64(250)))
		Expect(apple.Shares).To(Equal(int64(25)))
		Expect(apple.ShareType).To(Equal("SH"))
		Expect(apple.InvestmentDiscretion).To(Equal("SOLE"))
		Expect(apple.OtherManager).To(BeEmpty())
		Expect(apple.VotingSole).To(Equal(data.NewOptionalInt(25)))
		Expect(apple.VotingShared).To(Equal(data.NewOptionalInt(0)))
		Expect(apple.PortfolioPercent).To(BeNumerically("~", 25.0, 1e-9))
		Expect(percentSum(holdings)).To(BeNumerically("~", 100.0, 1e-9))
	})

	It("reads the optional delegated manager", func() {
		entry := strings.Replace(infoTable("APPLE INC", "COM", "037833100", "250", "25"),
			"<investmentDiscretion>SOLE</investmentDiscretion>",
			"<investmentDiscretion>DFND</investmentDiscretion>\n<otherManager>1,2</otherManager>", 1)
		holdings, err := extractor.Extract(ctx, payload(entry,
			infoTable("MICROSOFT CORP", "COM", "594918104", "750", "75")))
		Expect(err).NotTo(HaveOccurred())
		Expect(holdings[0].OtherManager).To(Equal("1,2"))
		Expect(holdings[0].InvestmentDiscretion).To(Equal("DFND"))
		Expect(holdings[1].OtherManager).To(BeEmpty())
	})

	It("ignores the charset named in the XML declaration", func() {
		for _, charset := range []string{"ISO-8859-1", "us-ascii", "windows-1252"} {
			holdings, err := extractor.Extract(ctx, "<?xml version=\"1.0\" encoding=\""+charset+"\"?>\n"+payload(
				infoTable("APPLE INC", "COM", "037833100", "250", "25"),
				infoTable("MICROSOFT CORP", "COM", "594918104", "750", "75"),
			))
			Expect(err).NotTo(HaveOccurred(), charset)
			Expect(issuers(holdings)).To(Equal([]string{"APPLE INC", "MICROSOFT CORP"}))
		}
	})

	It("rejects a table with a single entry", func() {
		holdings, err := extractor.Extract(ctx, payload(
			infoTable("APPLE INC", "COM", "037833100", "250", "25"),
		))
		Expect(err).To(MatchError(filing.ErrDegenerateRecordSet))
		Expect(holdings).To(BeNil())
	})

	// the fixed-width parser drops bad rows one at a time, the XML parser
	// rejects the whole table
	It("rejects the whole document when a single entry is irregular", func() {
		broken := strings.Replace(infoTable("BROKEN CORP", "COM", "000000009", "10", "1"),
			"<votingAuthority>", "<votingAuth>", 1)
		broken = strings.Replace(broken, "</votingAuthority>", "</votingAuth>", 1)

		holdings, err := extractor.Extract(ctx, payload(
			infoTable("APPLE INC", "COM", "037833100", "250", "25"),
			broken,
			infoTable("MICROSOFT CORP", "COM", "594918104", "750", "75"),
		))
		Expect(err).To(MatchError(filing.ErrDegenerateRecordSet))
		Expect(holdings).To(BeNil())
	})

	It("rejects the whole document when an amount is not numeric", func() {
		holdings, err := extractor.Extract(ctx, payload(
			infoTable("APPLE INC", "COM", "037833100", "250", "25"),
			infoTable("MICROSOFT CORP", "COM", "594918104", "n/a", "75"),
		))
		Expect(err).To(MatchError(filing.ErrDegenerateRecordSet))
		Expect(holdings).To(BeNil())
	})

	It("rejects a table without entries", func() {
		_, err := extractor.Extract(ctx, payload())
		Expect(err).To(MatchError(filing.ErrDegenerateRecordSet))
	})

	It("rejects an unexpected root element", func() {
		_, err := extractor.Extract(ctx, "<edgarSubmission></edgarSubmission>")
		Expect(err).To(MatchError(filing.ErrDegenerateRecordSet))
	})
})

var _ = Describe("Extract", func() {
	It("dispatches XML submissions", func() {
		text := xmlSubmission("0000123456", "20230331", "20230515",
			infoTable("APPLE INC", "COM", "037833100", "250", "25"),
			infoTable("MICROSOFT CORP", "COM", "594918104", "750", "75"))
		holdings, err := filing.Extract(context.Background(), text)
		Expect(err).NotTo(HaveOccurred())
		Expect(holdings).To(HaveLen(2))
		Expect(holdings[0].ShareType).To(Equal("SH"))
	})

	It("dispatches text submissions", func() {
		text := textSubmission("0000123456", "20010331", "20010515",
			markerTable(row{"ACME CORP", "COM", "000000001", "1,000", "100"}))
		holdings, err := filing.Extract(context.Background(), text)
		Expect(err).NotTo(HaveOccurred())
		Expect(holdings).To(HaveLen(1))
		Expect(holdings[0].PortfolioPercent).To(BeNumerically("~", 100.0, 1e-9))
	})

	It("selects the extractor by encoding", func() {
		Expect(filing.ExtractorFor(filing.EncodingXML)).To(BeAssignableToTypeOf(filing.XMLExtractor{}))
		Expect(filing.ExtractorFor(filing.EncodingText)).To(BeAssignableToTypeOf(filing.FixedWidthExtractor{}))
	})
})
