/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import "github.com/tomoncle/bunrepo/database"

const loggerName = "REPOSITORY"

type options struct {
	observer Observer
	logger   database.Logger
}

// Option configures a repository at construction.
type Option func(*options)

// WithObserver installs the lifecycle observer. Use Observers to install
// several.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// WithLogger replaces the default REPOSITORY logger.
func WithLogger(l database.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.observer == nil {
		o.observer = noopObserver{}
	}
	if o.logger == nil {
		o.logger = database.NewLogger(loggerName)
	}
	return o
}
