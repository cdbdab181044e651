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
	"errors"
	"fmt"
	"sort"

	"github.com/penny-vault/pv13f/filing"
	"github.com/spf13/afero"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrMissingArgument  = errors.New("missing argument")
	ErrStatus           = errors.New("status code is invalid")
)

// Provider is a source of raw 13F submissions
type Provider interface {
	Name() string
	ConfigDescription() map[string]string
	Description() string

	// Documents retrieves the submissions selected by args. The meaning of
	// args is provider specific.
	Documents(ctx context.Context, args []string) ([]filing.Document, error)
}

var Map = map[string]Provider{
	"directory": NewDirectory(afero.NewOsFs()),
	"edgar":     NewEdgar(),
}

func Lookup(name string) (Provider, error) {
	provider, ok := Map[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return provider, nil
}

// Names returns the registered provider names sorted
func Names() []string {
	names := make([]string, 0, len(Map))
	for name := range Map {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
