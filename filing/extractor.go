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

	"github.com/penny-vault/pv13f/data"
)

// RecordExtractor turns a classified payload into a holdings table. The
// returned table has portfolio percentages computed and is sorted by issuer
// name.
type RecordExtractor interface {
	Extract(ctx context.Context, payload string) (data.Holdings, error)
}

// ExtractorFor selects the extractor matching the payload encoding
func ExtractorFor(enc Encoding) RecordExtractor {
	if enc == EncodingXML {
		return XMLExtractor{}
	}
	return FixedWidthExtractor{}
}

// Extract classifies a full submission and extracts its holdings
func Extract(ctx context.Context, text string) (data.Holdings, error) {
	payload, err := Classify(text)
	if err != nil {
		return nil, err
	}
	return ExtractorFor(payload.Encoding).Extract(ctx, payload.Text)
}

func finalize(holdings data.Holdings) data.Holdings {
	holdings.ComputePortfolioPercent()
	holdings.SortByIssuer()
	return holdings
}
