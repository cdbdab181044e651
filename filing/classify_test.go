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

	"github.com/penny-vault/pv13f/filing"
)

var _ = Describe("Classify", func() {
	It("selects the last XML region", func() {
		text := xmlSubmission("0000123456", "20230331", "20230515", infoTable("APPLE INC", "COM", "037833100", "100", "10"))
		payload, err := filing.Classify(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Encoding).To(Equal(filing.EncodingXML))
		Expect(payload.Encoding.String()).To(Equal("XML"))
		Expect(payload.Text).To(HavePrefix("<informationTable"))
		Expect(payload.Text).NotTo(ContainSubstring("edgarSubmission"))
	})

	It("selects the last table of the last document for text filings", func() {
		table := markerTable(row{"ACME CORP", "COM", "000000001", "1,000", "100"})
		payload, err := filing.Classify(textSubmission("0000123456", "20010331", "20010515", table))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Encoding).To(Equal(filing.EncodingText))
		Expect(payload.Encoding.String()).To(Equal("TXT"))
		Expect(payload.Text).To(Equal(table))
		Expect(payload.Text).NotTo(ContainSubstring("cover page"))
	})

	It("fails when no delimiters are present", func() {
		_, err := filing.Classify(header("0000123456", "20010331", "20010515") + "\nplain text")
		Expect(err).To(MatchError(filing.ErrMalformedDocument))
	})

	It("fails when the last document has no table", func() {
		text := strings.Join([]string{"<DOCUMENT>", "no table here", "</DOCUMENT>"}, "\n")
		_, err := filing.Classify(text)
		Expect(err).To(MatchError(filing.ErrMalformedDocument))
	})

	It("fails on an unterminated XML region", func() {
		_, err := filing.Classify("<DOCUMENT>\n<XML>\n<informationTable>\n</DOCUMENT>")
		Expect(err).To(MatchError(filing.ErrMalformedDocument))
	})
})
