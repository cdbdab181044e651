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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats is the library state shown by Summary
type Stats struct {
	Name          string
	DBUrl         string
	NumFilings    int
	TotalHoldings int
	LastUpdated   time.Time
	Entities      []*PublishedEntity
}

// Stats queries the database for the figures shown in the summary
func (myLibrary *Library) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Name:  myLibrary.Name,
		DBUrl: myLibrary.DBUrl,
	}

	var err error
	if stats.NumFilings, err = myLibrary.NumFilings(ctx); err != nil {
		return nil, err
	}

	if stats.TotalHoldings, err = myLibrary.TotalHoldings(ctx); err != nil {
		return nil, err
	}

	if stats.LastUpdated, err = myLibrary.LastUpdated(ctx); err != nil {
		return nil, err
	}

	if stats.Entities, err = myLibrary.Entities(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	stats, err := myLibrary.Stats(ctx)
	if err != nil {
		return "", err
	}
	return stats.Markdown(), nil
}

func (stats *Stats) Markdown() string {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s\n", stats.Name))
	builder.WriteString("## Details\n\n")
	builder.WriteString(fmt.Sprintf("Database: %s\n\n", stats.DBUrl))

	builder.WriteString(p.Sprintf("  * Entities: %d\n", len(stats.Entities)))
	builder.WriteString(p.Sprintf("  * Filings: %d\n", stats.NumFilings))
	builder.WriteString(p.Sprintf("  * Holdings: %d\n\n", stats.TotalHoldings))

	if stats.LastUpdated.Equal(time.Time{}) {
		builder.WriteString("Last Updated: Never\n\n")
	} else {
		age := timeago.English.Format(stats.LastUpdated)
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, stats.LastUpdated.Local().Format("01/02/2006")))
	}

	builder.WriteString("## Entities\n\n")
	for _, entity := range stats.Entities {
		builder.WriteString(p.Sprintf("  * %s %s (%s - %s, %d filings)\n", entity.CIK, entity.CompanyName,
			entity.FirstQuarter, entity.LastQuarter, entity.NumFilings))
	}

	return builder.String()
}
