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
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary renders a markdown overview of one entity
func (catalog *Catalog) Summary(entity string) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	name, err := catalog.CompanyName(entity)
	if err != nil {
		return "", err
	}

	if name == "" {
		name = entity
	}

	builder.WriteString(fmt.Sprintf("# %s\n\n", name))
	builder.WriteString(fmt.Sprintf("CIK: %s\n\n", entity))

	filings, err := workspace.ReadFilings(catalog.Repo, entity)
	if err != nil {
		return "", err
	}

	quarters, err := catalog.Quarters(entity, true)
	if err != nil {
		return "", err
	}

	builder.WriteString("## Details\n\n")
	builder.WriteString(p.Sprintf("  * Filings: %d\n", len(filings)))
	builder.WriteString(p.Sprintf("  * Quarters: %d\n", len(quarters)))
	if len(quarters) > 0 {
		builder.WriteString(fmt.Sprintf("  * Coverage: %s - %s\n", quarters[0], quarters[len(quarters)-1]))
	}

	if len(quarters) > 0 {
		latest := quarters[len(quarters)-1]
		holdings, err := workspace.ReadHoldings(catalog.Repo, entity, workspace.StageClean, latest)
		if err != nil {
			return "", err
		}
		builder.WriteString(p.Sprintf("  * Holdings in %s: %d\n", latest, len(holdings)))

		points, _, err := catalog.TotalValue(entity, data.ByIssuer)
		if err == nil && len(points) > 0 && points[len(points)-1].Value != nil {
			builder.WriteString(p.Sprintf("  * Total Value: $%.0f\n", *points[len(points)-1].Value))
		}
	}
	builder.WriteString("\n")

	if len(filings) == 0 {
		builder.WriteString("Last Filed: Never\n\n")
	} else {
		last := filings[0]
		for _, filing := range filings[1:] {
			if filing.FiledDate > last.FiledDate {
				last = filing
			}
		}
		if filed, err := time.Parse("2006-01-02", last.FiledDate); err == nil {
			builder.WriteString(fmt.Sprintf("Last Filed: %s (%s)\n\n", timeago.English.Format(filed), filed.Format("01/02/2006")))
		}
	}

	builder.WriteString("## Filings\n\n")
	for _, filing := range filings {
		builder.WriteString(fmt.Sprintf("  * %s filed %s [%s]\n", filing.Quarter, filing.FiledDate, filing.AccessionNumber))
	}

	return builder.String(), nil
}
