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
	"strings"
)

type Encoding int

const (
	EncodingText Encoding = iota
	EncodingXML
)

func (enc Encoding) String() string {
	if enc == EncodingXML {
		return "XML"
	}
	return "TXT"
}

// Payload is the part of a submission that holds the information table
type Payload struct {
	Encoding Encoding
	Text     string
}

// Classify decides whether the submission carries an XML information table
// or a legacy fixed-width table and cuts out the relevant region. Submissions
// may embed several exhibits; the holdings table is always the last one.
func Classify(text string) (Payload, error) {
	if strings.Contains(text, "<XML>") {
		region, ok := lastRegion(text, "<XML>", "</XML>", false)
		if !ok {
			return Payload{}, fmt.Errorf("%w: unterminated <XML> region", ErrMalformedDocument)
		}
		return Payload{Encoding: EncodingXML, Text: strings.TrimSpace(region)}, nil
	}

	document, ok := lastRegion(text, "<DOCUMENT>", "</DOCUMENT>", true)
	if !ok {
		return Payload{}, fmt.Errorf("%w: no <DOCUMENT> region", ErrMalformedDocument)
	}

	table, ok := lastRegion(document, "<TABLE>", "</TABLE>", true)
	if !ok {
		return Payload{}, fmt.Errorf("%w: no <TABLE> region", ErrMalformedDocument)
	}

	return Payload{Encoding: EncodingText, Text: table}, nil
}

// lastRegion returns the text between the last open and the last close
// delimiter. When inclusive is set the delimiters are part of the result.
func lastRegion(text, open, close string, inclusive bool) (string, bool) {
	start := strings.LastIndex(text, open)
	end := strings.LastIndex(text, close)
	if start < 0 || end < 0 || end < start+len(open) {
		return "", false
	}

	if inclusive {
		return text[start : end+len(close)], true
	}
	return text[start+len(open) : end], true
}
