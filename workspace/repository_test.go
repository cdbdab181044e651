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
package workspace_test

import (
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/workspace"
)

func writeString(repo workspace.Repository, entity string, stage workspace.Stage, name, content string) {
	err := repo.WriteStage(entity, stage, name, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
	Expect(err).NotTo(HaveOccurred())
}

func readString(repo workspace.Repository, entity string, stage workspace.Stage, name string) string {
	fh, err := repo.ReadStage(entity, stage, name)
	Expect(err).NotTo(HaveOccurred())
	defer fh.Close()
	content, err := io.ReadAll(fh)
	Expect(err).NotTo(HaveOccurred())
	return string(content)
}

func ptr(v float64) *float64 {
	return &v
}

var _ = Describe("FileRepository", func() {
	var (
		fs   afero.Fs
		repo *workspace.FileRepository
	)

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		repo = workspace.NewFileRepository(fs, "/output")
	})

	It("lays artifacts out by entity and stage", func() {
		writeString(repo, "0000123456", workspace.StageRaw, "2001-q1_2001-05-15", "a,b\n")
		Expect(afero.Exists(fs, "/output/0000123456/raw/2001-q1_2001-05-15.csv")).To(BeTrue())

		writeString(repo, "0000123456", workspace.StageMeta, "2001-q1_2001-05-15", "{}")
		Expect(afero.Exists(fs, "/output/0000123456/meta/2001-q1_2001-05-15.json")).To(BeTrue())
	})

	It("lists only entity directories", func() {
		Expect(repo.ListEntities()).To(BeEmpty())

		writeString(repo, "0000222222", workspace.StageRaw, "2001-q1_2001-05-15", "")
		writeString(repo, "0000111111", workspace.StageRaw, "2001-q1_2001-05-15", "")
		Expect(fs.MkdirAll("/output/notes", 0o755)).To(Succeed())
		Expect(afero.WriteFile(fs, "/output/12345", []byte("file"), 0o644)).To(Succeed())

		Expect(repo.ListEntities()).To(Equal([]string{"0000111111", "0000222222"}))
	})

	It("lists stage artifacts sorted without extensions", func() {
		writeString(repo, "0000123456", workspace.StageRaw, "2001-q2_2001-08-14", "")
		writeString(repo, "0000123456", workspace.StageRaw, "2001-q1_2001-06-01", "")
		writeString(repo, "0000123456", workspace.StageRaw, "2001-q1_2001-05-15", "")
		Expect(afero.WriteFile(fs, "/output/0000123456/raw/notes.txt", []byte("x"), 0o644)).To(Succeed())

		Expect(repo.ListStage("0000123456", workspace.StageRaw)).To(Equal([]string{
			"2001-q1_2001-05-15", "2001-q1_2001-06-01", "2001-q2_2001-08-14",
		}))
		Expect(repo.ListStage("0000123456", workspace.StageClean)).To(BeEmpty())
	})

	It("replaces artifacts and leaves nothing behind when a write fails", func() {
		writeString(repo, "0000123456", workspace.StageClean, "2001-q1", "first")
		writeString(repo, "0000123456", workspace.StageClean, "2001-q1", "second")
		Expect(readString(repo, "0000123456", workspace.StageClean, "2001-q1")).To(Equal("second"))

		boom := errors.New("boom")
		err := repo.WriteStage("0000123456", workspace.StageClean, "2001-q1", func(w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(readString(repo, "0000123456", workspace.StageClean, "2001-q1")).To(Equal("second"))

		infos, err := afero.ReadDir(fs, "/output/0000123456/clean")
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(HaveLen(1))
	})

	It("reports missing artifacts", func() {
		_, err := repo.ReadStage("0000123456", workspace.StageClean, "2001-q1")
		Expect(err).To(MatchError(workspace.ErrArtifactNotFound))
	})

	It("rejects entity identifiers that would escape the root", func() {
		_, err := repo.ListStage("../etc", workspace.StageRaw)
		Expect(err).To(MatchError(workspace.ErrInvalidEntity))
	})

	It("deletes an entity", func() {
		writeString(repo, "0000123456", workspace.StageMeta, "2001-q1_2001-05-15", "{}")
		Expect(repo.EntityExists("0000123456")).To(BeTrue())
		Expect(repo.DeleteEntity("0000123456")).To(Succeed())
		Expect(repo.EntityExists("0000123456")).To(BeFalse())
	})
})

var _ = Describe("Codecs", func() {
	var repo *workspace.FileRepository

	BeforeEach(func() {
		repo = workspace.NewFileRepository(afero.NewMemMapFs(), "/output")
	})

	It("stores filing metadata as json", func() {
		filing := &data.Filing{
			CIK:             "0000123456",
			AccessionNumber: "0000950123-01-000001",
			CompanyName:     "EXAMPLE CAPITAL",
			FiledDate:       "2001-05-15",
			PeriodOfReport:  "2001-03-31",
			Quarter:         "2001-q1",
		}
		Expect(workspace.WriteFiling(repo, filing)).To(Succeed())
		Expect(readString(repo, "0000123456", workspace.StageMeta, "2001-q1_2001-05-15")).
			To(ContainSubstring(`"company_conformed_name": "EXAMPLE CAPITAL"`))

		filings, err := workspace.ReadFilings(repo, "0000123456")
		Expect(err).NotTo(HaveOccurred())
		Expect(filings).To(ConsistOf(filing))
	})

	It("writes the full holdings column set", func() {
		holdings := data.Holdings{
			{NameOfIssuer: "ACME, CORP", TitleOfClass: "COM", Cusip: "000000001", Value: 10, Shares: 1, PortfolioPercent: 100},
		}
		Expect(workspace.WriteHoldings(repo, "0000123456", workspace.StageRaw, "2001-q1_2001-05-15", holdings)).To(Succeed())

		content := readString(repo, "0000123456", workspace.StageRaw, "2001-q1_2001-05-15")
		headerLine := strings.SplitN(content, "\n", 2)[0]
		Expect(headerLine).To(Equal("nameOfIssuer,titleOfClass,cusip,value,shrsOrPrnAmt_sshPrnamt," +
			"shrsOrPrnAmt_sshPrnamtType,investmentDiscretion,otherManager," +
			"votingAuthority_Sole,votingAuthority_Shared,votingAuthority_None,portfolio %"))

		read, err := workspace.ReadHoldings(repo, "0000123456", workspace.StageRaw, "2001-q1_2001-05-15")
		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(HaveLen(1))
		Expect(read[0].NameOfIssuer).To(Equal("ACME, CORP"))
		Expect(read[0].VotingSole.Valid).To(BeFalse())
	})

	It("streams holdings", func() {
		holdings := data.Holdings{
			{NameOfIssuer: "ACME CORP", Cusip: "000000001", Value: 10},
			{NameOfIssuer: "BETA CO", Cusip: "000000002", Value: 30},
		}
		Expect(workspace.WriteHoldings(repo, "0000123456", workspace.StageClean, "2001-q1", holdings)).To(Succeed())

		names := []string{}
		err := workspace.StreamHoldings(repo, "0000123456", workspace.StageClean, "2001-q1", func(h data.Holding) {
			names = append(names, h.NameOfIssuer)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(Equal([]string{"ACME CORP", "BETA CO"}))
	})

	It("stores wide series with empty cells for absent values", func() {
		series := &data.Series{
			Key:      data.ByIssuer,
			Target:   data.Value,
			Quarters: []string{"2001-q2", "2001-q1"},
			Rows: []*data.SeriesRow{
				{Key: "ACME CORP", Values: []*float64{ptr(12), nil}},
				{Key: "BETA CO", Values: []*float64{ptr(2.5), ptr(3)}},
			},
		}
		Expect(workspace.WriteSeries(repo, "0000123456", series)).To(Succeed())
		Expect(readString(repo, "0000123456", workspace.StageMerge, "nameOfIssuer_to_value")).To(Equal(
			"nameOfIssuer,2001-q2,2001-q1\nACME CORP,12,\nBETA CO,2.5,3\n"))

		read, err := workspace.ReadSeries(repo, "0000123456", data.ByIssuer, data.Value)
		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(series))
	})
})
