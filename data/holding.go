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
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// Holding is a single reported security position. The share type, discretion,
// manager and voting columns are only reported by XML filings and stay empty
// for legacy text filings.
type Holding struct {
	NameOfIssuer         string      `csv:"nameOfIssuer" json:"name_of_issuer"`
	TitleOfClass         string      `csv:"titleOfClass" json:"title_of_class"`
	Cusip                string      `csv:"cusip" json:"cusip"`
	Value                int64       `csv:"value" json:"value"`
	Shares               int64       `csv:"shrsOrPrnAmt_sshPrnamt" json:"shares"`
	ShareType            string      `csv:"shrsOrPrnAmt_sshPrnamtType" json:"share_type"`
	InvestmentDiscretion string      `csv:"investmentDiscretion" json:"investment_discretion"`
	OtherManager         string      `csv:"otherManager" json:"other_manager"`
	VotingSole           OptionalInt `csv:"votingAuthority_Sole" json:"voting_sole"`
	VotingShared         OptionalInt `csv:"votingAuthority_Shared" json:"voting_shared"`
	VotingNone           OptionalInt `csv:"votingAuthority_None" json:"voting_none"`
	PortfolioPercent     float64     `csv:"portfolio %" json:"portfolio_percent"`
}

// OptionalInt is an integer column that may be blank
type OptionalInt struct {
	Value int64
	Valid bool
}

func NewOptionalInt(v int64) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

func (o OptionalInt) MarshalCSV() (string, error) {
	if !o.Valid {
		return "", nil
	}
	return strconv.FormatInt(o.Value, 10), nil
}

func (o *OptionalInt) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*o = OptionalInt{}
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// pandas writes integer columns holding blanks as floats
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		v = int64(f)
	}

	*o = OptionalInt{Value: v, Valid: true}
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(o.Value, 10)), nil
}

// Ptr returns nil for a blank value, used when writing nullable columns
func (o OptionalInt) Ptr() *int64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// Holdings is the table of positions reported by one filing (raw) or one
// quarter (clean)
type Holdings []*Holding

// TotalValue sums the reported value of every holding
func (holdings Holdings) TotalValue() int64 {
	var total int64
	for _, h := range holdings {
		total += h.Value
	}
	return total
}

// ComputePortfolioPercent sets each holding's share of the table's total
// value. When the total is zero every percentage is zero.
func (holdings Holdings) ComputePortfolioPercent() {
	total := holdings.TotalValue()
	for _, h := range holdings {
		if total == 0 {
			h.PortfolioPercent = 0
			continue
		}
		h.PortfolioPercent = 100 * float64(h.Value) / float64(total)
	}
}

// SortByIssuer orders the table alphabetically by issuer name
func (holdings Holdings) SortByIssuer() {
	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].NameOfIssuer < holdings[j].NameOfIssuer
	})
}

// DedupByIssuer keeps a single row per issuer name; when a name repeats, the
// last row wins
func (holdings Holdings) DedupByIssuer() Holdings {
	last := make(map[string]int, len(holdings))
	for idx, h := range holdings {
		last[h.NameOfIssuer] = idx
	}

	deduped := make(Holdings, 0, len(last))
	for idx, h := range holdings {
		if last[h.NameOfIssuer] == idx {
			deduped = append(deduped, h)
		}
	}

	return deduped
}

// SaveDB replaces the holdings of one entity and quarter in the holdings table
func (holdings Holdings) SaveDB(ctx context.Context, tx pgx.Tx, cik, quarter string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM holdings WHERE cik = $1 AND quarter = $2`, cik, quarter); err != nil {
		log.Error().Err(err).Str("CIK", cik).Str("Quarter", quarter).Msg("clearing holdings failed")
		return err
	}

	sql := `INSERT INTO holdings (
		"cik",
		"quarter",
		"name_of_issuer",
		"title_of_class",
		"cusip",
		"value",
		"shares",
		"share_type",
		"investment_discretion",
		"other_manager",
		"voting_sole",
		"voting_shared",
		"voting_none",
		"portfolio_percent"
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	)`

	batch := &pgx.Batch{}
	for _, h := range holdings {
		batch.Queue(sql, cik, quarter, h.NameOfIssuer, h.TitleOfClass, h.Cusip, h.Value, h.Shares,
			h.ShareType, h.InvestmentDiscretion, h.OtherManager, h.VotingSole.Ptr(),
			h.VotingShared.Ptr(), h.VotingNone.Ptr(), h.PortfolioPercent)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		log.Error().Err(err).Str("CIK", cik).Str("Quarter", quarter).Int("NumHoldings", len(holdings)).
			Msg("save holdings to DB failed")
		return err
	}

	return nil
}
