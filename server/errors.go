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
package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, workspace.ErrEntityNotFound),
		errors.Is(err, workspace.ErrArtifactNotFound),
		errors.Is(err, report.ErrQuarterNotFound),
		errors.Is(err, report.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, workspace.ErrInvalidEntity),
		errors.Is(err, report.ErrSameQuarter),
		errors.Is(err, data.ErrUnknownMergeKey),
		errors.Is(err, data.ErrUnknownTarget),
		errors.Is(err, data.ErrInvalidQuarter),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	logger := zerolog.Ctx(r.Context())
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("Path", r.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("Status", status).Str("Path", r.URL.Path).Msg("request rejected")
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}
