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


// Package database opens and supervises Bun connections to MySQL,
// PostgreSQL or SQLite. It loads connection settings with viper, installs
// query hooks for logging, slow query detection, Prometheus metrics and
// OpenTelemetry tracing, classifies driver errors and exposes a process-wide
// connection through GetDB.
package database
