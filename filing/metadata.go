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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/penny-vault/pv13f/data"
)

var (
	accessionPattern = regexp.MustCompile(`ACCESSION NUMBER:\s*(\d[\d-]*)`)
	periodPattern    = regexp.MustCompile(`CONFORMED PERIOD OF REPORT:\s*(\d+)`)
	filedPattern     = regexp.MustCompile(`FILED AS OF DATE:\s*(\d+)`)
	companyPattern   = regexp.MustCompile(`COMPANY CONFORMED NAME:\s*(.+)`)
	cikPattern       = regexp.MustCompile(`CENTRAL INDEX KEY:\s*(\d+)`)
)

// Document is one raw submission as handed to the importer
type Document struct {
	Filename string
	Text     string
}

// ExtractMetadata searches the submission header for the filer identity and
// reporting period. Each field is searched independently; a missing field is
// left empty. A date that is present but not 8 digits long fails with
// ErrInvalidDate and a period month outside 1-12 fails with ErrInvalidPeriod.
func ExtractMetadata(text string) (*data.Filing, error) {
	filing := &data.Filing{
		CIK:             findField(cikPattern, text),
		AccessionNumber: findField(accessionPattern, text),
		CompanyName:     findField(companyPattern, text),
	}

	var err error
	if filing.FiledDate, err = isoDate(findField(filedPattern, text)); err != nil {
		return filing, err
	}

	if filing.PeriodOfReport, err = isoDate(findField(periodPattern, text)); err != nil {
		return filing, err
	}

	if filing.PeriodOfReport != "" {
		if filing.Quarter, err = QuarterFromDate(filing.PeriodOfReport); err != nil {
			return filing, err
		}
	}

	return filing, nil
}

// CheckMetadata verifies that a filing carries everything needed to place
// its artifacts in a workspace
func CheckMetadata(filing *data.Filing) error {
	switch {
	case filing.CIK == "":
		return ErrMissingEntity
	case filing.Quarter == "":
		return fmt.Errorf("%w: period of report not found", ErrInvalidPeriod)
	case filing.FiledDate == "":
		return fmt.Errorf("%w: filed date not found", ErrInvalidDate)
	}
	return nil
}

// QuarterFromDate converts an ISO date to its quarter key
func QuarterFromDate(date string) (string, error) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, date)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, date)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, date)
	}

	quarter, ok := data.QuarterForMonth(year, month)
	if !ok {
		return "", fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}

	return quarter, nil
}

func findField(pattern *regexp.Regexp, text string) string {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// isoDate turns YYYYMMDD into YYYY-MM-DD
func isoDate(compact string) (string, error) {
	if compact == "" {
		return "", nil
	}

	if len(compact) != 8 {
		return "", fmt.Errorf("%w: %q is not YYYYMMDD", ErrInvalidDate, compact)
	}

	return compact[:4] + "-" + compact[4:6] + "-" + compact[6:], nil
}
