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

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// IdentityArtifact is the name of the mapping artifact of an entity
const IdentityArtifact = "nameOfIssuer_titleOfClass_cusip"

// Identity maps one observed (issuer name, title of class, cusip) triple to
// the canonical issuer name of its cusip
type Identity struct {
	NameOfIssuer string `csv:"nameOfIssuer" json:"name_of_issuer" db:"name_of_issuer"`
	TitleOfClass string `csv:"titleOfClass" json:"title_of_class" db:"title_of_class"`
	Cusip        string `csv:"cusip" json:"cusip" db:"cusip"`
	Name         string `csv:"name" json:"name" db:"name"`
}

type Identities []*Identity

// CanonicalNames returns issuer name -> canonical name. An issuer name that
// appears with several cusips resolves to the first row in table order.
func (identities Identities) CanonicalNames() map[string]string {
	names := make(map[string]string, len(identities))
	for _, row := range identities {
		if _, ok := names[row.NameOfIssuer]; !ok {
			names[row.NameOfIssuer] = row.Name
		}
	}
	return names
}

// SaveDB replaces the identity mapping of an entity in the identities table
func (identities Identities) SaveDB(ctx context.Context, tx pgx.Tx, cik string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM identities WHERE cik = $1`, cik); err != nil {
		log.Error().Err(err).Str("CIK", cik).Msg("clearing identities failed")
		return err
	}

	rows := make([][]any, 0, len(identities))
	for _, row := range identities {
		rows = append(rows, []any{cik, row.NameOfIssuer, row.TitleOfClass, row.Cusip, row.Name})
	}

	_, err := tx.CopyFrom(ctx, pgx.Identifier{"identities"},
		[]string{"cik", "name_of_issuer", "title_of_class", "cusip", "name"},
		pgx.CopyFromRows(rows))
	if err != nil {
		log.Error().Err(err).Str("CIK", cik).Msg("save identities to DB failed")
		return err
	}

	return nil
}
