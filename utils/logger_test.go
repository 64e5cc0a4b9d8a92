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


package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.TraceLevel, ParseLogLevel("TRACE"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warning "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestNewLogger_Registry(t *testing.T) {
	a := NewLogger("REGISTRY")
	b := NewLogger("REGISTRY")
	assert.Same(t, a, b)

	assert.True(t, SetLoggerLevel("REGISTRY", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("MISSING", "error"))
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&ConsoleFormatter{LoggerName: "TEST", NameWidth: 6})
	l.WithField("b", 2).WithField("a", 1).Info("hello")

	line := buf.String()
	assert.Contains(t, line, "   INFO")
	assert.Contains(t, line, "  TEST")
	assert.Contains(t, line, ": hello a=1 b=2\n")
}

func TestJSONLogFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{LoggerName: "TEST"})
	l.WithField("err", assert.AnError).Warn("boom")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "TEST", rec["logger"])
	assert.Equal(t, "boom", rec["message"])
	assert.Equal(t, assert.AnError.Error(), rec["fields"].(map[string]interface{})["err"])
}

func TestDotPathCompact(t *testing.T) {
	assert.Equal(t, "repository.base.go", dotPathCompact("repository/base.go", 30))
	assert.Equal(t, "r.base.go", dotPathCompact("repository/base.go", 10))
	assert.Equal(t, "base.go", dotPathCompact("repository/base.go", 7))
	assert.Equal(t, "", dotPathCompact("repository/base.go", 0))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("BUNREPO_TEST_STR", "value")
	t.Setenv("BUNREPO_TEST_BOOL", "true")
	t.Setenv("BUNREPO_TEST_BAD", "maybe")

	assert.Equal(t, "value", EnvDefaultString("BUNREPO_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefaultString("BUNREPO_TEST_UNSET", "def"))
	assert.True(t, EnvDefaultBool("BUNREPO_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("BUNREPO_TEST_BAD", true))
}
