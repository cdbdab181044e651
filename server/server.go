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
	"context"
	"errors"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/penny-vault/pv13f/data"
	"github.com/penny-vault/pv13f/pipeline"
	"github.com/penny-vault/pv13f/report"
	"github.com/penny-vault/pv13f/workspace"
	"github.com/rs/zerolog"
)

const (
	DefaultListen  = ":8013"
	maxImportBytes = 64 * 1024 * 1024
)

// Server exposes the workspace read model and batch imports over HTTP
type Server struct {
	Catalog  *report.Catalog
	Importer *pipeline.Importer

	validate *validator.Validate

	// the pipeline allows a single import per entity at a time; imports are
	// serialized as a whole
	importMu sync.Mutex
}

func New(repo workspace.Repository, corrector report.ScaleCorrector) *Server {
	v := validator.New()
	if err := v.RegisterValidation("quarter", isQuarter); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("mergekey", isMergeKey); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		Catalog:  report.NewCatalog(repo, corrector),
		Importer: pipeline.NewImporter(repo),
		validate: v,
	}
}

func isQuarter(fl validator.FieldLevel) bool {
	_, _, err := data.ParseQuarter(fl.Field().String())
	return err == nil
}

func isMergeKey(fl validator.FieldLevel) bool {
	_, err := data.ParseMergeKey(fl.Field().String())
	return err == nil
}

// Routes builds the router
func (srv *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/entities", func(r chi.Router) {
		r.Get("/", srv.listEntities)

		r.Route("/{cik}", func(r chi.Router) {
			r.Get("/", srv.entitySummary)
			r.Get("/quarters", srv.quarters)
			r.Get("/series/{mergeKey}/{target}", srv.series)
			r.Get("/top", srv.top)
			r.Get("/compare", srv.compare)
			r.Get("/history", srv.history)
			r.Get("/total-value", srv.totalValue)
		})
	})

	r.With(middleware.RequestSize(maxImportBytes)).Post("/imports", srv.importDocuments)

	return r
}

// ListenAndServe runs the server until ctx is cancelled
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	logger := zerolog.Ctx(ctx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info().Str("Addr", addr).Msg("listening")
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}

		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
