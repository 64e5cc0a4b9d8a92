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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "exist_index",
	ExistColumnErr:              "exist_column",
	NoTableErr:                  "no_table",
	ExistTableErr:               "exist_table",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_constraint_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
}

func (e SQLError) String() string {
	if s, ok := sqlErrorNames[e]; ok {
		return s
	}
	return sqlErrorNames[UnknownErr]
}

var mysqlErrors = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

// SQLSTATE codes reported by PostgreSQL.
var postgresErrors = map[pq.ErrorCode]SQLError{
	"42704": NoIndexErr,
	"42703": NoColumnErr,
	"42701": ExistColumnErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
	"42846": InvalidTypeCastErr,
}

// messagePatterns match driver messages that carry no structured code,
// sqlite in particular. Every fragment of an entry must be present; entries
// are tried in order.
var messagePatterns = []struct {
	fragments []string
	kind      SQLError
}{
	{[]string{"sqlstate 42703"}, NoColumnErr},
	{[]string{"undefined column"}, NoColumnErr},
	{[]string{"no such column"}, NoColumnErr},
	{[]string{"has no column named"}, NoColumnErr},
	{[]string{"sqlstate 42704"}, NoIndexErr},
	{[]string{"no such index"}, NoIndexErr},
	{[]string{"index", "does not exist"}, NoIndexErr},
	{[]string{"sqlstate 42p01"}, NoTableErr},
	{[]string{"undefined table"}, NoTableErr},
	{[]string{"no such table"}, NoTableErr},
	{[]string{"index", "already exists"}, ExistIndexErr},
	{[]string{"duplicate column name"}, ExistColumnErr},
	{[]string{"table", "already exists"}, ExistTableErr},
	{[]string{"relation", "already exists"}, ExistTableErr},
	{[]string{"duplicate key value"}, DuplicateKeyErr},
	{[]string{"unique constraint failed"}, DuplicateKeyErr},
	{[]string{"sqlstate 23505"}, DuplicateKeyErr},
	{[]string{"not-null constraint"}, NotNullViolationErr},
	{[]string{"not null constraint failed"}, NotNullViolationErr},
	{[]string{"sqlstate 23502"}, NotNullViolationErr},
	{[]string{"foreign key violation"}, ForeignKeyViolationErr},
	{[]string{"foreign key constraint failed"}, ForeignKeyViolationErr},
	{[]string{"sqlstate 23503"}, ForeignKeyViolationErr},
	{[]string{"check constraint"}, CheckConstraintViolationErr},
	{[]string{"sqlstate 23514"}, CheckConstraintViolationErr},
	{[]string{"string data right truncation"}, DataTruncatedErr},
	{[]string{"data truncated"}, DataTruncatedErr},
	{[]string{"sqlstate 22001"}, DataTruncatedErr},
	{[]string{"datatype mismatch"}, InvalidTypeCastErr},
	{[]string{"sqlstate 42804"}, InvalidTypeCastErr},
}

// IsSqlError classifies err. is is false when err is nil or was not
// recognised as a database error.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlErrors[mysqlErr.Number]; ok {
			return true, kind
		}
		return true, UnknownErr
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if kind, ok := postgresErrors[pqErr.Code]; ok {
			return true, kind
		}
		return true, UnknownErr
	}

	s := strings.ToLower(err.Error())
	for _, p := range messagePatterns {
		if containsAll(s, p.fragments) {
			return true, p.kind
		}
	}
	return false, UnknownErr
}

func containsAll(s string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}
