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
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/filing"
	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/workspace"
)

type analyticsQuery struct {
	Quarter string `json:"quarter" validate:"omitempty,quarter"`
	From    string `json:"from" validate:"omitempty,quarter"`
	To      string `json:"to" validate:"omitempty,quarter"`
	Key     string `json:"key" validate:"mergekey"`
	N       int    `json:"n" validate:"gte=1,lte=1000"`
	Order   string `json:"order" validate:"oneof=asc desc"`
}

type summaryResponse struct {
	CIK      string   `json:"cik"`
	Name     string   `json:"name"`
	Quarters []string `json:"quarters"`
	Summary  string   `json:"summary"`
}

type seriesRowResponse struct {
	Key    string     `json:"key"`
	Values []*float64 `json:"values"`
}

type seriesResponse struct {
	MergeKey string               `json:"merge_key"`
	Target   string               `json:"target"`
	Quarters []string             `json:"quarters"`
	Rows     []*seriesRowResponse `json:"rows"`
}

type totalValueResponse struct {
	Transition string         `json:"transition"`
	Points     []report.Point `json:"points"`
}

type importDocument struct {
	Filename string `json:"filename" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type importRequest struct {
	Documents []*importDocument `json:"documents" validate:"required,min=1,dive,required"`
}

type outcomeResponse struct {
	Filename string `json:"filename"`
	CIK      string `json:"cik,omitempty"`
	Quarter  string `json:"quarter,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Holdings int    `json:"holdings"`
	Error    string `json:"error,omitempty"`
}

type importResponse struct {
	RunID      string             `json:"run_id"`
	Entities   []string           `json:"entities"`
	Outcomes   []*outcomeResponse `json:"outcomes"`
	DurationMs int64              `json:"duration_ms"`
}

func (srv *Server) parseQuery(r *http.Request) (*analyticsQuery, error) {
	values := r.URL.Query()
	query := &analyticsQuery{
		Quarter: values.Get("quarter"),
		From:    values.Get("from"),
		To:      values.Get("to"),
		Key:     values.Get("key"),
		N:       report.DefaultTopN,
		Order:   values.Get("order"),
	}

	if query.Key == "" {
		query.Key = string(data.ByCanonical)
	}

	if query.Order == "" {
		query.Order = "desc"
	}

	if n := values.Get("n"); n != "" {
		var err error
		if query.N, err = strconv.Atoi(n); err != nil {
			return nil, fmt.Errorf("%w: n must be an integer", ErrInvalidRequest)
		}
	}

	if err := srv.validate.Struct(query); err != nil {
		return nil, err
	}

	return query, nil
}

func entityParam(r *http.Request) (string, error) {
	cik := chi.URLParam(r, "cik")
	if !workspace.IsEntityID(cik) {
		return "", fmt.Errorf("%w: %q", workspace.ErrInvalidEntity, cik)
	}
	return cik, nil
}

func (srv *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := srv.Catalog.Entities()
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, entities)
}

func (srv *Server) entitySummary(w http.ResponseWriter, r *http.Request) {
	cik, err := entityParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name, err := srv.Catalog.CompanyName(cik)
	if err != nil {
		respondError(w, r, err)
		return
	}

	quarters, err := srv.Catalog.Quarters(cik, true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary, err := srv.Catalog.Summary(cik)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, summaryResponse{
		CIK:      cik,
		Name:     name,
		Quarters: quarters,
		Summary:  summary,
	})
}

func (srv *Server) quarters(w http.ResponseWriter, r *http.Request) {
	cik, err := entityParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query, err := srv.parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	quarters, err := srv.Catalog.Quarters(cik, query.Order == "asc")
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, quarters)
}

func (srv *Server) series(w http.ResponseWriter, r *http.Request) {
	cik, err := entityParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	key, err := data.ParseMergeKey(chi.URLParam(r, "mergeKey"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	target, err := data.ParseTarget(chi.URLParam(r, "target"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	series, err := srv.Catalog.Series(cik, key, target)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := seriesResponse{
		MergeKey: string(series.Key),
		Target:   string(series.Target),
		Quarters: series.Quarters,
		Rows:     make([]*seriesRowResponse, 0, len(series.Rows)),
	}
	for _, row := range series.Rows {
		resp.Rows = append(resp.Rows, &seriesRowResponse{Key: row.Key, Values: row.Values})
	}

	render.JSON(w, r, resp)
}

func (srv *Server) top(w http.ResponseWriter, r *http.Request) {
	cik, err := entityParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query, err := srv.parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	quarter := query.Quarter
	if quarter == "" {
		quarters, err := srv.Catalog.Quarters(cik, false)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if len(quarters) == 0 {
			respondError(w, r, fmt.Errorf("%w: %s has no quarters", report.ErrNoData, cik))
			return
		}
		quarter = quarters[0]
	}

	positions, err := srv.Catalog.TopHoldings(cik, data.MergeKey(query.Key), quarter, query.N)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, positions)
}

func (srv *Server) compare(w http.ResponseWriter, r *http.Request) {
	cik, err := entityParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query, err := srv.parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if query.From == "" || query.To == "" {
		respondError(w, r, fmt.Errorf("%w: from and to are required", ErrInvalidRequest))
		return
	}

	changes, err := srv.Catalog.Compare(cik, data.MergeKey(query.Key), query.From, query.To, query.N)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, changes)
}

func (srv *Server) history(w http.ResponseWriter, r *http.Request) {
	cik, err := entityParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query, err := srv.parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	history, err := srv.Catalog.History(cik, data.MergeKey(query.Key), query.N)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, history)
}

func (srv *Server) totalValue(w http.ResponseWriter, r *http.Request) {
	cik, err := entityParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query, err := srv.parseQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	points, transition, err := srv.Catalog.TotalValue(cik, data.MergeKey(query.Key))
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, r, totalValueResponse{
		Transition: transition,
		Points:     points,
	})
}

func (srv *Server) importDocuments(w http.ResponseWriter, r *http.Request) {
	req := importRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	if err := srv.validate.Struct(&req); err != nil {
		respondError(w, r, err)
		return
	}

	docs := make([]filing.Document, 0, len(req.Documents))
	for _, doc := range req.Documents {
		docs = append(docs, filing.Document{Filename: doc.Filename, Text: doc.Content})
	}

	srv.importMu.Lock()
	result, err := srv.Importer.Import(r.Context(), docs)
	srv.importMu.Unlock()

	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := importResponse{
		RunID:      result.RunID.String(),
		Entities:   result.Entities,
		Outcomes:   make([]*outcomeResponse, 0, len(result.Outcomes)),
		DurationMs: result.Duration.Milliseconds(),
	}
	for _, outcome := range result.Outcomes {
		item := &outcomeResponse{
			Filename: outcome.Filename,
			CIK:      outcome.CIK,
			Quarter:  outcome.Quarter,
			Encoding: outcome.Encoding,
			Holdings: outcome.Holdings,
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, item)
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}
