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
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/filing"
)

var _ = Describe("Metadata", func() {
	It("extracts the header fields", func() {
		meta, err := filing.ExtractMetadata(header("0000123456", "20010331", "20010515"))
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.CIK).To(Equal("0000123456"))
		Expect(meta.AccessionNumber).To(Equal("0000950123-01-000001"))
		Expect(meta.CompanyName).To(Equal("EXAMPLE CAPITAL MANAGEMENT LLC"))
		Expect(meta.FiledDate).To(Equal("2001-05-15"))
		Expect(meta.PeriodOfReport).To(Equal("2001-03-31"))
		Expect(meta.Quarter).To(Equal("2001-q1"))
		Expect(meta.ArtifactName()).To(Equal("2001-q1_2001-05-15"))
		Expect(filing.CheckMetadata(meta)).To(Succeed())
	})

	It("leaves missing fields empty without failing the others", func() {
		text := strings.Replace(header("0000123456", "20010331", "20010515"), "ACCESSION NUMBER", "ACC NO", 1)
		meta, err := filing.ExtractMetadata(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(meta.AccessionNumber).To(BeEmpty())
		Expect(meta.CIK).To(Equal("0000123456"))
	})

	It("rejects dates that are not eight digits", func() {
		_, err := filing.ExtractMetadata(header("0000123456", "2001033", "20010515"))
		Expect(err).To(MatchError(filing.ErrInvalidDate))
	})

	It("rejects a period month outside 1-12", func() {
		_, err := filing.ExtractMetadata(header("0000123456", "20011331", "20010515"))
		Expect(err).To(MatchError(filing.ErrInvalidPeriod))
	})

	It("requires an entity, a period and a filed date", func() {
		Expect(filing.CheckMetadata(&data.Filing{Quarter: "2001-q1", FiledDate: "2001-05-15"})).
			To(MatchError(filing.ErrMissingEntity))
		Expect(filing.CheckMetadata(&data.Filing{CIK: "1", FiledDate: "2001-05-15"})).
			To(MatchError(filing.ErrInvalidPeriod))
		Expect(filing.CheckMetadata(&data.Filing{CIK: "1", Quarter: "2001-q1"})).
			To(MatchError(filing.ErrInvalidDate))
	})

	DescribeTable("derives the quarter from the period month",
		func(date, quarter string) {
			Expect(filing.QuarterFromDate(date)).To(Equal(quarter))
		},
		Entry("january", "2019-01-31", "2019-q1"),
		Entry("march", "2019-03-31", "2019-q1"),
		Entry("april", "2019-04-30", "2019-q2"),
		Entry("september", "2019-09-30", "2019-q3"),
		Entry("december", "2019-12-31", "2019-q4"),
	)
})
