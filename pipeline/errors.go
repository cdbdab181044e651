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
package pipeline

import "errors"

// These indicate a stage was run before the stage it depends on and are
// returned to the caller rather than skipped.
var (
	ErrMissingRawData   = errors.New("entity has no raw holdings")
	ErrMissingCleanData = errors.New("entity has no clean holdings")
	ErrMissingMapping   = errors.New("entity has no identity mapping")
)
