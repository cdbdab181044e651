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
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrEntityNotFound   = errors.New("entity not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidEntity    = errors.New("invalid entity identifier")
)

type Stage string

const (
	StageMeta    Stage = "meta"
	StageRaw     Stage = "raw"
	StageClean   Stage = "clean"
	StageMapping Stage = "mapping"
	StageMerge   Stage = "merge"
)

var Stages = []Stage{StageMeta, StageRaw, StageClean, StageMapping, StageMerge}

// Ext is the file extension of artifacts in the stage
func (stage Stage) Ext() string {
	if stage == StageMeta {
		return ".json"
	}
	return ".csv"
}

// Repository stores the artifacts of every pipeline stage, one directory
// per entity. Artifact names never include the extension.
type Repository interface {
	ListEntities() ([]string, error)
	EntityExists(entity string) (bool, error)
	ListStage(entity string, stage Stage) ([]string, error)
	ReadStage(entity string, stage Stage, name string) (io.ReadCloser, error)
	WriteStage(entity string, stage Stage, name string, write func(io.Writer) error) error
	DeleteEntity(entity string) error
}

// FileRepository lays artifacts out as {root}/{entity}/{stage}/{name}{ext}
type FileRepository struct {
	Fs   afero.Fs
	Root string
}

func NewFileRepository(fs afero.Fs, root string) *FileRepository {
	return &FileRepository{
		Fs:   fs,
		Root: root,
	}
}

// NewOsRepository opens a workspace on the local disk
func NewOsRepository(root string) *FileRepository {
	return NewFileRepository(afero.NewOsFs(), root)
}

func (repo *FileRepository) entityDir(entity string) (string, error) {
	if !IsEntityID(entity) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntity, entity)
	}
	return filepath.Join(repo.Root, entity), nil
}

// ListEntities returns the directories under the root whose name is a
// central index key, sorted
func (repo *FileRepository) ListEntities() ([]string, error) {
	infos, err := afero.ReadDir(repo.Fs, repo.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	entities := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() && IsEntityID(info.Name()) {
			entities = append(entities, info.Name())
		}
	}

	sort.Strings(entities)
	return entities, nil
}

func (repo *FileRepository) EntityExists(entity string) (bool, error) {
	dir, err := repo.entityDir(entity)
	if err != nil {
		return false, err
	}
	return afero.DirExists(repo.Fs, dir)
}

// ListStage returns the artifact names in a stage sorted lexicographically.
// A missing stage directory is an empty stage.
func (repo *FileRepository) ListStage(entity string, stage Stage) ([]string, error) {
	dir, err := repo.entityDir(entity)
	if err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(repo.Fs, filepath.Join(dir, string(stage)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != stage.Ext() {
			continue
		}
		names = append(names, strings.TrimSuffix(name, stage.Ext()))
	}

	sort.Strings(names)
	return names, nil
}

func (repo *FileRepository) ReadStage(entity string, stage Stage, name string) (io.ReadCloser, error) {
	dir, err := repo.entityDir(entity)
	if err != nil {
		return nil, err
	}

	fh, err := repo.Fs.Open(filepath.Join(dir, string(stage), name+stage.Ext()))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s/%s", ErrArtifactNotFound, entity, stage, name)
		}
		return nil, err
	}

	return fh, nil
}

// WriteStage replaces an artifact. The content is written to a temporary
// file first so a failed write never leaves a truncated artifact behind.
func (repo *FileRepository) WriteStage(entity string, stage Stage, name string, write func(io.Writer) error) error {
	dir, err := repo.entityDir(entity)
	if err != nil {
		return err
	}

	stageDir := filepath.Join(dir, string(stage))
	if err := repo.Fs.MkdirAll(stageDir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(repo.Fs, stageDir, ".pv13f-*")
	if err != nil {
		return err
	}

	if err := write(tmp); err != nil {
		tmp.Close()
		_ = repo.Fs.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = repo.Fs.Remove(tmp.Name())
		return err
	}

	dest := filepath.Join(stageDir, name+stage.Ext())
	if err := repo.Fs.Rename(tmp.Name(), dest); err != nil {
		log.Error().Err(err).Str("FileName", dest).Msg("could not move artifact into place")
		_ = repo.Fs.Remove(tmp.Name())
		return err
	}

	return nil
}

func (repo *FileRepository) DeleteEntity(entity string) error {
	dir, err := repo.entityDir(entity)
	if err != nil {
		return err
	}
	return repo.Fs.RemoveAll(dir)
}

// IsEntityID reports whether s looks like a central index key
func IsEntityID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
