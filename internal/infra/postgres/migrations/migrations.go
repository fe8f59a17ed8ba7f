package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for questions, answers and profiles. Each file
// registers itself; bun derives the migration name from the file name.
var Migrations = migrate.NewMigrations()
