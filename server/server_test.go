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
package server_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/server"
	"github.com/penny-vault/pv13f/workspace"
)

const entity = "0000123456"

type row struct {
	name, class, cusip, value, shares string
}

func submission(period, filed string, rows ...row) string {
	lines := []string{
		"<SEC-DOCUMENT>",
		"<SEC-HEADER>",
		"ACCESSION NUMBER:\t\t0000950123-23-" + filed,
		"CONFORMED PERIOD OF REPORT:\t" + period,
		"FILED AS OF DATE:\t\t" + filed,
		"\t\tCOMPANY CONFORMED NAME:\t\t\tEXAMPLE CAPITAL MANAGEMENT LLC",
		"\t\tCENTRAL INDEX KEY:\t\t\t" + entity,
		"</SEC-HEADER>",
		"<DOCUMENT>",
		"<TYPE>13F-HR",
		"<TEXT>",
		"<TABLE>",
		fmt.Sprintf("%-20s%-10s%-11s%-9s%-9s%s", "<S>", "<C>", "<C>", "<C>", "<C>", "<C>"),
	}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%-20s%-10s%-11s%-9s%-9s%s", r.name, r.class, r.cusip, r.value, r.shares, "SOLE"))
	}
	lines = append(lines, "</TABLE>", "</TEXT>", "</DOCUMENT>", "</SEC-DOCUMENT>")
	return strings.Join(lines, "\n")
}

func importBody(docs map[string]string) string {
	type document struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}

	req := struct {
		Documents []document `json:"documents"`
	}{}
	for _, name := range []string{"q1.txt", "q2.txt", "bad.txt"} {
		if content, ok := docs[name]; ok {
			req.Documents = append(req.Documents, document{Filename: name, Content: content})
		}
	}

	body, err := json.Marshal(req)
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

func decode(rec *httptest.ResponseRecorder, v any) {
	Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
}

var _ = Describe("Server", func() {
	var (
		handler http.Handler
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		repo := workspace.NewFileRepository(afero.NewMemMapFs(), "/workspace")
		handler = server.New(repo, report.NewScaleCorrector()).Routes()
	})

	It("rejects an empty import", func() {
		rec := do(http.MethodPost, "/imports", `{"documents":[]}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects malformed json", func() {
		rec := do(http.MethodPost, "/imports", `{"documents":`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists no entities in an empty workspace", func() {
		rec := do(http.MethodGet, "/entities", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))
	})

	Context("after an import", func() {
		BeforeEach(func() {
			rec := do(http.MethodPost, "/imports", importBody(map[string]string{
				"q1.txt": submission("20230331", "20230515",
					row{"APPLE INC", "COM", "037833100", "300", "10"},
					row{"MICROSOFT CORP", "COM", "594918104", "100", "5"}),
				"q2.txt": submission("20230630", "20230814",
					row{"APPLE INC", "COM", "037833100", "400", "12"},
					row{"MICROSOFT CORP", "COM", "594918104", "400", "4"}),
				"bad.txt": "not a filing",
			}))
			Expect(rec.Code).To(Equal(http.StatusCreated))

			resp := struct {
				RunID    string   `json:"run_id"`
				Entities []string `json:"entities"`
				Outcomes []struct {
					Filename string `json:"filename"`
					Holdings int    `json:"holdings"`
					Error    string `json:"error"`
				} `json:"outcomes"`
			}{}
			decode(rec, &resp)
			Expect(resp.RunID).NotTo(BeEmpty())
			Expect(resp.Entities).To(Equal([]string{entity}))
			Expect(resp.Outcomes).To(HaveLen(3))
			Expect(resp.Outcomes[0].Holdings).To(Equal(2))
			Expect(resp.Outcomes[2].Error).NotTo(BeEmpty())
		})

		It("lists the entity", func() {
			rec := do(http.MethodGet, "/entities", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var entities []report.Entity
			decode(rec, &entities)
			Expect(entities).To(Equal([]report.Entity{{
				CIK:      entity,
				Name:     "EXAMPLE CAPITAL MANAGEMENT LLC",
				Quarters: []string{"2023-q1", "2023-q2"},
			}}))
		})

		It("summarizes the entity", func() {
			rec := do(http.MethodGet, "/entities/"+entity, "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			resp := map[string]any{}
			decode(rec, &resp)
			Expect(resp["name"]).To(Equal("EXAMPLE CAPITAL MANAGEMENT LLC"))
			Expect(resp["summary"]).To(ContainSubstring("# EXAMPLE CAPITAL MANAGEMENT LLC"))
		})

		It("orders quarters", func() {
			rec := do(http.MethodGet, "/entities/"+entity+"/quarters?order=asc", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var quarters []string
			decode(rec, &quarters)
			Expect(quarters).To(Equal([]string{"2023-q1", "2023-q2"}))

			rec = do(http.MethodGet, "/entities/"+entity+"/quarters", "")
			decode(rec, &quarters)
			Expect(quarters).To(Equal([]string{"2023-q2", "2023-q1"}))
		})

		It("returns a merged series", func() {
			rec := do(http.MethodGet, "/entities/"+entity+"/series/cusip/value", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			resp := struct {
				MergeKey string   `json:"merge_key"`
				Quarters []string `json:"quarters"`
				Rows     []struct {
					Key    string     `json:"key"`
					Values []*float64 `json:"values"`
				} `json:"rows"`
			}{}
			decode(rec, &resp)
			Expect(resp.MergeKey).To(Equal("cusip"))
			Expect(resp.Quarters).To(Equal([]string{"2023-q2", "2023-q1"}))
			Expect(resp.Rows).To(HaveLen(2))
			Expect(resp.Rows[0].Key).To(Equal("037833100"))
			Expect(*resp.Rows[0].Values[0]).To(Equal(400.0))
			Expect(*resp.Rows[0].Values[1]).To(Equal(300.0))
		})

		It("returns the top holdings of the latest quarter", func() {
			rec := do(http.MethodGet, "/entities/"+entity+"/top?n=1", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var positions []report.Position
			decode(rec, &positions)
			Expect(positions).To(Equal([]report.Position{{Key: "APPLE INC", Value: 50}}))
		})

		It("compares two quarters", func() {
			rec := do(http.MethodGet, "/entities/"+entity+"/compare?from=2023-q1&to=2023-q2", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var changes []report.Change
			decode(rec, &changes)
			Expect(changes).To(HaveLen(2))
			Expect(changes[0].Key).To(Equal("MICROSOFT CORP"))
			Expect(changes[0].Ratio).To(BeNumerically("~", 2.0))
		})

		It("follows the top holdings over time", func() {
			rec := do(http.MethodGet, "/entities/"+entity+"/history?n=2", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var history report.History
			decode(rec, &history)
			Expect(history.Quarters).To(Equal([]string{"2023-q1", "2023-q2"}))
			Expect(history.Rows).To(HaveLen(2))
		})

		It("sums the portfolio value per quarter", func() {
			rec := do(http.MethodGet, "/entities/"+entity+"/total-value?key=cusip", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			resp := struct {
				Points []report.Point `json:"points"`
			}{}
			decode(rec, &resp)
			Expect(resp.Points).To(HaveLen(2))
			Expect(*resp.Points[0].Value).To(Equal(400.0))
			Expect(*resp.Points[1].Value).To(Equal(800.0))
		})

		DescribeTable("maps errors to status codes",
			func(path string, status int) {
				rec := do(http.MethodGet, path, "")
				Expect(rec.Code).To(Equal(status))

				resp := map[string]string{}
				decode(rec, &resp)
				Expect(resp["error"]).NotTo(BeEmpty())
			},
			Entry("unknown entity", "/entities/0000999999/top", http.StatusNotFound),
			Entry("invalid entity", "/entities/abc/quarters", http.StatusBadRequest),
			Entry("unknown quarter", "/entities/"+entity+"/top?quarter=2019-q1", http.StatusNotFound),
			Entry("malformed quarter", "/entities/"+entity+"/top?quarter=2019-q9", http.StatusBadRequest),
			Entry("same quarter", "/entities/"+entity+"/compare?from=2023-q1&to=2023-q1", http.StatusBadRequest),
			Entry("missing compare bound", "/entities/"+entity+"/compare?from=2023-q1", http.StatusBadRequest),
			Entry("non-numeric n", "/entities/"+entity+"/top?n=ten", http.StatusBadRequest),
			Entry("unknown merge key", "/entities/"+entity+"/history?key=ticker", http.StatusBadRequest),
			Entry("unknown target", "/entities/"+entity+"/series/cusip/weight", http.StatusBadRequest),
			Entry("bad order", "/entities/"+entity+"/quarters?order=up", http.StatusBadRequest),
		)
	})
})
