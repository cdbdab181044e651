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
	"os"
	"path/filepath"
	"strings"

	"github.com/penny-vault/pv13f/filing"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Directory reads submissions that were downloaded by hand
type Directory struct {
	Fs afero.Fs
}

func NewDirectory(fs afero.Fs) *Directory {
	return &Directory{
		Fs: fs,
	}
}

func (directory *Directory) Name() string {
	return "directory"
}

func (directory *Directory) ConfigDescription() map[string]string {
	return map[string]string{}
}

func (directory *Directory) Description() string {
	return `Read full submission text files (the .txt files in the EDGAR archive) from the local disk. Each argument is a file or a directory; directories are searched recursively and every file that is not hidden is imported.`
}

func (directory *Directory) Documents(ctx context.Context, args []string) ([]filing.Document, error) {
	logger := zerolog.Ctx(ctx)

	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one path is required", ErrMissingArgument)
	}

	docs := make([]filing.Document, 0)
	for _, root := range args {
		err := afero.Walk(directory.Fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if strings.HasPrefix(info.Name(), ".") && path != root {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if info.IsDir() {
				return nil
			}

			content, err := afero.ReadFile(directory.Fs, path)
			if err != nil {
				return err
			}

			logger.Debug().Str("FileName", path).Int64("Size", info.Size()).Msg("read submission")
			docs = append(docs, filing.Document{
				Filename: path,
				Text:     string(content),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return docs, nil
}
