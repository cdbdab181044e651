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

import "errors"

// Every error below causes the document to be skipped; the rest of the batch
// is still processed.
var (
	ErrMalformedDocument       = errors.New("malformed document")
	ErrMissingEntity           = errors.New("central index key not found")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidPeriod           = errors.New("invalid period of report")
	ErrUnsupportedColumnLayout = errors.New("unsupported column layout")
	ErrDegenerateRecordSet     = errors.New("degenerate record set")
	ErrNoHoldings              = errors.New("no holdings extracted")
)
