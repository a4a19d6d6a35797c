// Package database connects audit storage backends.
//
// # Supported Backends
//
//   - PostgreSQL: pgx connection pool
//   - SQLite: modernc.org/sqlite, suitable for single-node deployments
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "fsapi.db",
//	    Tables: fsapi.Tables{Audit: "fsapi_audit"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	sink := audit.NewRepoSink(db.GetRepo())
//
// Open connects, runs migrations and validates the schema. Connect only
// opens the connection.
package database
