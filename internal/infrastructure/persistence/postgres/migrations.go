package postgres

import "embed"

// Migrations holds the schema migrations for the evaluation store.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsPath is the directory inside Migrations that holds the files.
const MigrationsPath = "migrations"
