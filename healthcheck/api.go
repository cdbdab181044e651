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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Check pings a healthchecks.io check around a batch run. A check without a
// ping URL is disabled and every ping is a no-op.
type Check struct {
	PingURL string

	client *resty.Client
}

// New creates a check; an empty pingURL selects healthchecks.ping_url from
// the configuration
func New(pingURL string) *Check {
	if pingURL == "" {
		pingURL = viper.GetString("healthchecks.ping_url")
	}

	return &Check{
		PingURL: strings.TrimSuffix(pingURL, "/"),
		client:  resty.New(),
	}
}

func (check *Check) Enabled() bool {
	return check.PingURL != ""
}

// Start signals that a run has begun
func (check *Check) Start(ctx context.Context) error {
	return check.ping(ctx, "/start", "")
}

// Success signals that a run finished; msg is attached to the ping
func (check *Check) Success(ctx context.Context, msg string) error {
	return check.ping(ctx, "", msg)
}

// Fail signals that a run failed; msg is attached to the ping
func (check *Check) Fail(ctx context.Context, msg string) error {
	return check.ping(ctx, "/fail", msg)
}

func (check *Check) ping(ctx context.Context, suffix, msg string) error {
	if !check.Enabled() {
		return nil
	}

	resp, err := check.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(msg).
		Post(check.PingURL + suffix)

	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("Url", check.PingURL+suffix).Msg("healthcheck ping failed")
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
