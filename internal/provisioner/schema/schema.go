// Package schema embeds the SQL files that initialize a freshly created
// tenant database: table definitions in creation order, then supporting
// functions.
package schema

import "embed"

//go:embed tables/*.sql
var Tables embed.FS

//go:embed functions/*.sql
var Functions embed.FS
