// Package database provides the SQLite connection used by the input core.
//
// The database holds small, slowly changing state: the remembered device
// preference and the audit trail of binding overrides. The override file
// itself stays on disk in YAML so players can edit it by hand.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are embedded by the migrations package, which sets
// MigrationsFS in its init function. Each migration has an .up.sql and a
// .down.sql file named YYYYMMDD_HHMMSS_description.
package database
