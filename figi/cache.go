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
	"github.com/alphadose/haxmap"
)

var (
	figiCache *Cache
)

func init() {
	figiCache = NewCache()
}

// Cache remembers OpenFIGI answers by CUSIP. A nil asset records a CUSIP
// that OpenFIGI could not map so it is not requested again.
type Cache struct {
	assets *haxmap.Map[string, *OpenFigiAsset]
}

func NewCache() *Cache {
	return &Cache{
		assets: haxmap.New[string, *OpenFigiAsset](),
	}
}

// CacheInstance returns the process wide cache
func CacheInstance() *Cache {
	return figiCache
}

func (cache *Cache) Get(cusip string) (*OpenFigiAsset, bool) {
	return cache.assets.Get(cusip)
}

func (cache *Cache) Set(cusip string, asset *OpenFigiAsset) {
	cache.assets.Set(cusip, asset)
}

func (cache *Cache) Len() int {
	return int(cache.assets.Len())
}
