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
package filing

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/penny-vault/pv13f/data"
	"github.com/rs/zerolog"
)

// Elements are matched on their local name so namespace prefixes such as
// ns1:infoTable are accepted. Pointers distinguish a missing element from an
// empty one.
type informationTable struct {
	XMLName xml.Name
	Entries []infoTableEntry `xml:"infoTable"`
}

type infoTableEntry struct {
	NameOfIssuer         *string          `xml:"nameOfIssuer"`
	TitleOfClass         *string          `xml:"titleOfClass"`
	Cusip                *string          `xml:"cusip"`
	Value                *string          `xml:"value"`
	ShrsOrPrnAmt         *shrsOrPrnAmt    `xml:"shrsOrPrnAmt"`
	InvestmentDiscretion *string          `xml:"investmentDiscretion"`
	OtherManager         *string          `xml:"otherManager"`
	VotingAuthority      *votingAuthority `xml:"votingAuthority"`
}

type shrsOrPrnAmt struct {
	Amount *string `xml:"sshPrnamt"`
	Type   *string `xml:"sshPrnamtType"`
}

type votingAuthority struct {
	Sole   *string `xml:"Sole"`
	Shared *string `xml:"Shared"`
	None   *string `xml:"None"`
}

// XMLExtractor parses the XML information table. Unlike the fixed-width
// extractor it is all or nothing: if a single entry lacks a required element
// or carries a non-numeric amount the whole document is rejected with
// ErrDegenerateRecordSet. A table with a single entry is rejected too.
type XMLExtractor struct{}

func (XMLExtractor) Extract(ctx context.Context, payload string) (data.Holdings, error) {
	logger := zerolog.Ctx(ctx)

	// the payload is already text, whatever charset the declaration names
	dec := xml.NewDecoder(strings.NewReader(payload))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	table := informationTable{}
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerateRecordSet, err)
	}

	if table.XMLName.Local != "informationTable" {
		return nil, fmt.Errorf("%w: root element is %q", ErrDegenerateRecordSet, table.XMLName.Local)
	}

	if len(table.Entries) == 0 {
		return nil, fmt.Errorf("%w: no infoTable entries", ErrDegenerateRecordSet)
	}

	if len(table.Entries) == 1 {
		return nil, fmt.Errorf("%w: single infoTable entry", ErrDegenerateRecordSet)
	}

	holdings := make(data.Holdings, 0, len(table.Entries))
	for idx, entry := range table.Entries {
		holding, err := entry.holding()
		if err != nil {
			logger.Debug().Err(err).Int("Entry", idx).Msg("rejecting information table")
			return nil, fmt.Errorf("%w: entry %d: %w", ErrDegenerateRecordSet, idx, err)
		}
		holdings = append(holdings, holding)
	}

	return finalize(holdings), nil
}

func (entry *infoTableEntry) holding() (*data.Holding, error) {
	if entry.NameOfIssuer == nil || entry.TitleOfClass == nil || entry.Cusip == nil ||
		entry.Value == nil || entry.InvestmentDiscretion == nil {
		return nil, fmt.Errorf("missing required element")
	}

	if entry.ShrsOrPrnAmt == nil || entry.ShrsOrPrnAmt.Amount == nil || entry.ShrsOrPrnAmt.Type == nil {
		return nil, fmt.Errorf("missing shrsOrPrnAmt")
	}

	if entry.VotingAuthority == nil || entry.VotingAuthority.Sole == nil ||
		entry.VotingAuthority.Shared == nil || entry.VotingAuthority.None == nil {
		return nil, fmt.Errorf("missing votingAuthority")
	}

	value, err := parseAmount(*entry.Value)
	if err != nil {
		return nil, err
	}

	shares, err := parseAmount(*entry.ShrsOrPrnAmt.Amount)
	if err != nil {
		return nil, err
	}

	sole, err := parseAmount(*entry.VotingAuthority.Sole)
	if err != nil {
		return nil, err
	}

	shared, err := parseAmount(*entry.VotingAuthority.Shared)
	if err != nil {
		return nil, err
	}

	none, err := parseAmount(*entry.VotingAuthority.None)
	if err != nil {
		return nil, err
	}

	otherManager := ""
	if entry.OtherManager != nil {
		otherManager = strings.TrimSpace(*entry.OtherManager)
	}

	return &data.Holding{
		NameOfIssuer:         strings.TrimSpace(*entry.NameOfIssuer),
		TitleOfClass:         strings.TrimSpace(*entry.TitleOfClass),
		Cusip:                strings.TrimSpace(*entry.Cusip),
		Value:                value,
		Shares:               shares,
		ShareType:            strings.TrimSpace(*entry.ShrsOrPrnAmt.Type),
		InvestmentDiscretion: strings.TrimSpace(*entry.InvestmentDiscretion),
		OtherManager:         otherManager,
		VotingSole:           data.NewOptionalInt(sole),
		VotingShared:         data.NewOptionalInt(shared),
		VotingNone:           data.NewOptionalInt(none),
	}, nil
}

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not an integer", s)
	}
	return v, nil
}
