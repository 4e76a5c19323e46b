package migrations

import (
	fields "github.com/goliatone/go-fields"
)

func init() {
	Register(fields.GetMigrationsFS())
}
