// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories and DDL dialects with the storage package:
//
//   - "postgres" (csvload/internal/storage/postgres)
//   - "mysql"    (csvload/internal/storage/mysql)
//   - "mssql"    (csvload/internal/storage/mssql)
//   - "sqlite"   (csvload/internal/storage/sqlite)
//
// Typical usage:
//
//	import _ "csvload/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN, Table: tbl})
package all

import (
	_ "csvload/internal/storage/mssql"
	_ "csvload/internal/storage/mysql"
	_ "csvload/internal/storage/postgres"
	_ "csvload/internal/storage/sqlite"
)
