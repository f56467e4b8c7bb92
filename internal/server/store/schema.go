package store

// Artifact metadata DDL constants

const schemaArtifacts = `
CREATE TABLE IF NOT EXISTS artifacts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    size INTEGER NOT NULL,
    chunk_count INTEGER NOT NULL DEFAULT 0,
    hidden_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
)`

// Index definitions
const indexArtifactsCreated = `CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at)`
const indexArtifactsName = `CREATE INDEX IF NOT EXISTS idx_artifacts_name ON artifacts(name)`

// SQLite pragmas for optimal performance
const pragmaWAL = `PRAGMA journal_mode=WAL`
const pragmaFK = `PRAGMA foreign_keys=ON`
const pragmaBusyTimeout = `PRAGMA busy_timeout=5000`
const pragmaSynchronous = `PRAGMA synchronous=NORMAL`

// allSchemaStatements returns all schema DDL in order
func allSchemaStatements() []string {
	return []string{
		schemaArtifacts,
		indexArtifactsCreated,
		indexArtifactsName,
	}
}

// allPragmas returns all pragma statements
func allPragmas() []string {
	return []string{
		pragmaWAL,
		pragmaFK,
		pragmaBusyTimeout,
		pragmaSynchronous,
	}
}
