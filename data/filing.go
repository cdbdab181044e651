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
package data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Filing is the header information of one 13F submission. Dates are ISO
// formatted (YYYY-MM-DD).
type Filing struct {
	CIK             string `json:"central_index_key" db:"cik"`
	AccessionNumber string `json:"accession_number" db:"accession_number"`
	CompanyName     string `json:"company_conformed_name" db:"company_name"`
	FiledDate       string `json:"filed_as_of_date" db:"filed_date"`
	PeriodOfReport  string `json:"conformed_period_of_report" db:"period_of_report"`
	Quarter         string `json:"quarter" db:"quarter"`
}

func (filing *Filing) MarshalZerologObject(e *zerolog.Event) {
	e.Str("CIK", filing.CIK)
	e.Str("AccessionNumber", filing.AccessionNumber)
	e.Str("CompanyName", filing.CompanyName)
	e.Str("FiledDate", filing.FiledDate)
	e.Str("PeriodOfReport", filing.PeriodOfReport)
	e.Str("Quarter", filing.Quarter)
}

// ArtifactName is the name shared by the meta and raw artifacts of a filing
func (filing *Filing) ArtifactName() string {
	return filing.Quarter + "_" + filing.FiledDate
}

// SaveDB upserts the filing into the filings table
func (filing *Filing) SaveDB(ctx context.Context, tx pgx.Tx) error {
	filed, err := time.Parse("2006-01-02", filing.FiledDate)
	if err != nil {
		return err
	}

	period, err := time.Parse("2006-01-02", filing.PeriodOfReport)
	if err != nil {
		return err
	}

	sql := `INSERT INTO filings (
		"cik",
		"quarter",
		"filed_date",
		"accession_number",
		"company_name",
		"period_of_report"
	) VALUES (
		$1, $2, $3, $4, $5, $6
	) ON CONFLICT ON CONSTRAINT filings_pkey DO UPDATE SET
		accession_number = EXCLUDED.accession_number,
		company_name = EXCLUDED.company_name,
		period_of_report = EXCLUDED.period_of_report,
		published_at = now()`

	_, err = tx.Exec(ctx, sql, filing.CIK, filing.Quarter, filed, filing.AccessionNumber,
		filing.CompanyName, period)
	if err != nil {
		log.Error().Err(err).Object("Filing", filing).Msg("save filing to DB failed")
		return err
	}

	return nil
}
