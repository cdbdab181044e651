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
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pv13f/filing"
	"github.com/penny-vault/pv13f/pkginfo"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	EdgarSubmissionsURL = "https://data.sec.gov/submissions"
	EdgarArchiveURL     = "https://www.sec.gov/Archives/edgar/data"

	// EDGAR allows 10 requests per second per client
	defaultEdgarRateLimit = 10
	defaultEdgarWorkers   = 4
)

var edgarForms = map[string]bool{
	"13F-HR":   true,
	"13F-HR/A": true,
}

// Edgar downloads 13F submissions straight from the SEC
type Edgar struct {
	SubmissionsURL string
	ArchiveURL     string
	UserAgent      string
	RateLimit      float64
	Workers        int
}

func NewEdgar() *Edgar {
	return &Edgar{
		SubmissionsURL: EdgarSubmissionsURL,
		ArchiveURL:     EdgarArchiveURL,
	}
}

func (edgar *Edgar) Name() string {
	return "edgar"
}

func (edgar *Edgar) ConfigDescription() map[string]string {
	return map[string]string{
		"edgar.user_agent": "Contact information sent in the User-Agent header (e.g. 'Jane Doe jane@example.com'):",
		"edgar.rate_limit": "What is the maximum number of requests per second?",
	}
}

func (edgar *Edgar) Description() string {
	return `Download 13F-HR filings and amendments from the SEC EDGAR archive. The first argument is the central index key of the filer; any further arguments restrict the download to those accession numbers. The SEC requires a User-Agent that identifies you, set it with edgar.user_agent.`
}

// edgarFilings is the columnar filing index used by the submissions API
type edgarFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
}

type edgarSubmissions struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent edgarFilings `json:"recent"`
		Files  []struct {
			Name string `json:"name"`
		} `json:"files"`
	} `json:"filings"`
}

type edgarFiling struct {
	AccessionNumber string
	FilingDate      string
	Form            string
}

func (edgar *Edgar) userAgent() string {
	if edgar.UserAgent != "" {
		return edgar.UserAgent
	}
	return pkginfo.UserAgent(viper.GetString("edgar.user_agent"))
}

func (edgar *Edgar) limiter() *rate.Limiter {
	limit := edgar.RateLimit
	if limit <= 0 {
		limit = viper.GetFloat64("edgar.rate_limit")
	}
	if limit <= 0 {
		limit = defaultEdgarRateLimit
	}
	return rate.NewLimiter(rate.Limit(limit), 1)
}

func (edgar *Edgar) client() *resty.Client {
	return resty.New().SetHeader("User-Agent", edgar.userAgent())
}

func (edgar *Edgar) Documents(ctx context.Context, args []string) ([]filing.Document, error) {
	logger := zerolog.Ctx(ctx)

	if len(args) == 0 {
		return nil, fmt.Errorf("%w: central index key is required", ErrMissingArgument)
	}

	if !workspace.IsEntityID(args[0]) || len(args[0]) > 10 {
		return nil, fmt.Errorf("%w: %q", workspace.ErrInvalidEntity, args[0])
	}
	cik := strings.Repeat("0", 10-len(args[0])) + args[0]

	client := edgar.client()
	limiter := edgar.limiter()

	filings, err := edgar.listFilings(ctx, client, limiter, cik)
	if err != nil {
		return nil, err
	}

	if len(args) > 1 {
		wanted := make(map[string]bool, len(args)-1)
		for _, accession := range args[1:] {
			wanted[accession] = true
		}

		selected := make([]*edgarFiling, 0, len(wanted))
		for _, entry := range filings {
			if wanted[entry.AccessionNumber] {
				selected = append(selected, entry)
			}
		}
		filings = selected
	}

	logger.Info().Str("CIK", cik).Int("NumFilings", len(filings)).Msg("downloading 13F submissions from EDGAR")

	workers := edgar.Workers
	if workers <= 0 {
		workers = defaultEdgarWorkers
	}

	docs := make([]filing.Document, len(filings))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for idx, entry := range filings {
		group.Go(func() error {
			doc, err := edgar.download(groupCtx, client, limiter, cik, entry)
			if err != nil {
				return err
			}
			docs[idx] = doc
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// listFilings returns every 13F-HR and amendment of the filer, oldest first
func (edgar *Edgar) listFilings(ctx context.Context, client *resty.Client, limiter *rate.Limiter, cik string) ([]*edgarFiling, error) {
	submissions := edgarSubmissions{}
	if err := edgar.getJSON(ctx, client, limiter, fmt.Sprintf("%s/CIK%s.json", edgar.SubmissionsURL, cik), &submissions); err != nil {
		return nil, err
	}

	indexes := []edgarFilings{submissions.Filings.Recent}
	for _, file := range submissions.Filings.Files {
		older := edgarFilings{}
		if err := edgar.getJSON(ctx, client, limiter, fmt.Sprintf("%s/%s", edgar.SubmissionsURL, file.Name), &older); err != nil {
			return nil, err
		}
		indexes = append(indexes, older)
	}

	filings := make([]*edgarFiling, 0)
	seen := make(map[string]bool)
	for _, index := range indexes {
		for idx, form := range index.Form {
			if !edgarForms[form] || idx >= len(index.AccessionNumber) || seen[index.AccessionNumber[idx]] {
				continue
			}

			filingDate := ""
			if idx < len(index.FilingDate) {
				filingDate = index.FilingDate[idx]
			}

			seen[index.AccessionNumber[idx]] = true
			filings = append(filings, &edgarFiling{
				AccessionNumber: index.AccessionNumber[idx],
				FilingDate:      filingDate,
				Form:            form,
			})
		}
	}

	sort.SliceStable(filings, func(i, j int) bool {
		if filings[i].FilingDate != filings[j].FilingDate {
			return filings[i].FilingDate < filings[j].FilingDate
		}
		return filings[i].AccessionNumber < filings[j].AccessionNumber
	})

	return filings, nil
}

func (edgar *Edgar) getJSON(ctx context.Context, client *resty.Client, limiter *rate.Limiter, url string, result any) error {
	logger := zerolog.Ctx(ctx)

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		logger.Error().Err(err).Str("URL", url).Msg("EDGAR request failed")
		return err
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("URL", url).Msg("EDGAR returned an invalid HTTP response")
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return json.Unmarshal(resp.Body(), result)
}

func (edgar *Edgar) download(ctx context.Context, client *resty.Client, limiter *rate.Limiter, cik string, entry *edgarFiling) (filing.Document, error) {
	logger := zerolog.Ctx(ctx)

	if err := limiter.Wait(ctx); err != nil {
		return filing.Document{}, err
	}

	url := fmt.Sprintf("%s/%s/%s/%s.txt", edgar.ArchiveURL, strings.TrimLeft(cik, "0"),
		strings.ReplaceAll(entry.AccessionNumber, "-", ""), entry.AccessionNumber)

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		logger.Error().Err(err).Str("URL", url).Msg("EDGAR request failed")
		return filing.Document{}, err
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("URL", url).Msg("EDGAR returned an invalid HTTP response")
		return filing.Document{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	logger.Debug().Str("AccessionNumber", entry.AccessionNumber).Str("Form", entry.Form).
		Int("Size", len(resp.Body())).Msg("downloaded submission")

	return filing.Document{
		Filename: entry.AccessionNumber + ".txt",
		Text:     resp.String(),
	}, nil
}
