package repository

import _ "embed"

// Schema - DDL всех таблиц; применяется cmd/migrate
//
//go:embed schema.sql
var Schema string
