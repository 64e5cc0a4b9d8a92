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


package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/imdario/mergo"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. DB_CONNECTION_HOST.
const EnvPrefix = "DB"

// LoadConfig reads a YAML, TOML or JSON file into a Config. Every key can be
// overridden from the environment. An empty path loads from the environment
// and defaults only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setConnectionDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read database config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode database config: %w", err)
	}
	return cfg, nil
}

// setConnectionDefaults registers every connection key so that AutomaticEnv
// sees it during Unmarshal even when the file does not mention it.
func setConnectionDefaults(v *viper.Viper) {
	def := reflect.ValueOf(DefaultConnectionConfig()).Elem()
	typ := def.Type()
	for i := 0; i < typ.NumField(); i++ {
		key := typ.Field(i).Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		v.SetDefault("connection."+key, def.Field(i).Interface())
	}
}

// ApplyDefaults fills the zero-valued fields of cfg from
// DefaultConnectionConfig. Boolean switches are left as given.
func ApplyDefaults(cfg *ConnectionConfig) error {
	if cfg == nil {
		return fmt.Errorf("database configuration cannot be empty")
	}
	defaults := DefaultConnectionConfig()
	defaults.EnableReconnect = false
	if err := mergo.Merge(cfg, defaults); err != nil {
		return fmt.Errorf("failed to apply connection defaults: %w", err)
	}
	return nil
}
