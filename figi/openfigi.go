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
package figi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const (
	OpenFigiMappingURL string = "https://api.openfigi.com/v3/mapping"

	// jobs per request; anonymous clients are limited to 10
	batchSizeWithKey    = 100
	batchSizeAnonymous  = 10
	cusipIDType         = "ID_CUSIP"
	defaultMarketSector = "Equity"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

type MappingResponse struct {
	Data    []*OpenFigiAsset `json:"data"`
	Error   string           `json:"error"`
	Warning string           `json:"warning"`
}

type OpenFigiAsset struct {
	Figi                string `json:"figi"`
	SecurityType        string `json:"securityType"`
	MarketSector        string `json:"marketSector"`
	Ticker              string `json:"ticker"`
	Name                string `json:"name"`
	ExchangeCode        string `json:"exchCode"`
	ShareClassFIGI      string `json:"shareClassFIGI"`
	CompositeFIGI       string `json:"compositeFIGI"`
	SecurityType2       string `json:"securityType2"`
	SecurityDescription string `json:"securityDescription"`
}

type OpenFigiQuery struct {
	IdType                  string `json:"idType"`
	IdValue                 string `json:"idValue"`
	ExchangeCode            string `json:"exchCode,omitempty"`
	MarketSectorDescription string `json:"marketSecDes,omitempty"`
}

// Client maps CUSIPs to FIGIs with the OpenFIGI API. Results, including
// CUSIPs that could not be mapped, are cached for the life of the process.
type Client struct {
	URL    string
	APIKey string

	cache   *Cache
	limiter *rate.Limiter
	resty   *resty.Client
}

func NewClient(apiKey string) *Client {
	if apiKey == "" {
		apiKey = viper.GetString("openfigi.apikey")
	}

	return &Client{
		URL:     OpenFigiMappingURL,
		APIKey:  apiKey,
		cache:   CacheInstance(),
		limiter: rateLimit(apiKey),
		resty:   resty.New(),
	}
}

// WithCache replaces the process wide cache
func (client *Client) WithCache(cache *Cache) *Client {
	client.cache = cache
	return client
}

// the API allows 25 requests per 6 seconds with a key and 25 per minute
// without one
func rateLimit(apiKey string) *rate.Limiter {
	dur := (time.Second * 60) / 25
	if apiKey != "" {
		dur = (time.Second * 6) / 25
	}
	return rate.NewLimiter(rate.Every(dur), 10)
}

func (client *Client) batchSize() int {
	if client.APIKey != "" {
		return batchSizeWithKey
	}
	return batchSizeAnonymous
}

func (client *Client) mapFigis(ctx context.Context, query []*OpenFigiQuery) ([]*MappingResponse, error) {
	logger := zerolog.Ctx(ctx)

	req := client.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(query)

	if client.APIKey != "" {
		req.SetHeader("X-OPENFIGI-APIKEY", client.APIKey)
	}

	resp, err := req.Post(client.URL)
	logger.Debug().Str("URL", client.URL).Int("NumCUSIPs", len(query)).Msg("map CUSIPs to FIGIs")

	if err != nil {
		logger.Error().Err(err).Msg("OpenFigi api called errored out")
		return nil, err
	}

	if resp.StatusCode() >= 400 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Body", string(resp.Body())).Msg("openfigi api call returned invalid status code")
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	mappingResponse := make([]*MappingResponse, 0, len(query))
	if err := json.Unmarshal(resp.Body(), &mappingResponse); err != nil {
		return nil, err
	}

	return mappingResponse, nil
}

// LookupCUSIPs returns the first listing OpenFIGI reports for each CUSIP.
// CUSIPs without a match are absent from the result.
func (client *Client) LookupCUSIPs(ctx context.Context, cusips []string) (map[string]*OpenFigiAsset, error) {
	result := make(map[string]*OpenFigiAsset, len(cusips))

	pending := make([]string, 0, len(cusips))
	queued := make(map[string]bool, len(cusips))
	for _, cusip := range cusips {
		if cusip == "" || queued[cusip] {
			continue
		}
		queued[cusip] = true

		if asset, ok := client.cache.Get(cusip); ok {
			if asset != nil {
				result[cusip] = asset
			}
			continue
		}
		pending = append(pending, cusip)
	}

	batch := client.batchSize()
	for start := 0; start < len(pending); start += batch {
		end := min(start+batch, len(pending))
		chunk := pending[start:end]

		query := make([]*OpenFigiQuery, 0, len(chunk))
		for _, cusip := range chunk {
			query = append(query, &OpenFigiQuery{
				IdType:                  cusipIDType,
				IdValue:                 cusip,
				MarketSectorDescription: defaultMarketSector,
			})
		}

		if err := client.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		responses, err := client.mapFigis(ctx, query)
		if err != nil {
			return nil, err
		}

		// responses are in the same order as the query
		for idx, cusip := range chunk {
			var asset *OpenFigiAsset
			if idx < len(responses) && responses[idx] != nil && len(responses[idx].Data) > 0 {
				asset = responses[idx].Data[0]
				result[cusip] = asset
			}
			client.cache.Set(cusip, asset)
		}
	}

	return result, nil
}
