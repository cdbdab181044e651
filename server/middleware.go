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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// requestLogger attaches a logger tagged with a fresh request id to the
// request context and logs the request once it completes
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()

		base := zerolog.Ctx(r.Context())
		if base.GetLevel() == zerolog.Disabled {
			base = &log.Logger
		}

		logger := base.With().Str("RequestID", requestID).Logger()
		ctx := logger.WithContext(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info().
			Str("Method", r.Method).
			Str("Path", r.URL.Path).
			Int("Status", ww.Status()).
			Int("Bytes", ww.BytesWritten()).
			Dur("Duration", time.Since(start)).
			Msg("request")
	})
}
