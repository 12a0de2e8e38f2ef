package utils

import "database/sql"

// ToSQLStr creates new sql str instance
func ToSQLStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// FromSQLStr returns string from sql.NullString
func FromSQLStr(sqlStr sql.NullString) string {
	if sqlStr.Valid {
		return sqlStr.String
	}
	return ""
}

// FromSQLStrPtr returns nil for NULL
func FromSQLStrPtr(sqlStr sql.NullString) *string {
	if sqlStr.Valid {
		res := sqlStr.String
		return &res
	}
	return nil
}

// ToSQLStrPtr creates new sql str instance, NULL for nil
func ToSQLStrPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
