package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const failedToInitDB = "Failed to initialize database: %v"

func quietLogger() {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))
}

func TestNewSQLite(t *testing.T) {
	db := NewSQLite(":memory:")

	if db == nil {
		t.Fatal("Expected non-nil SQLite instance")
	}
	if db.conn != nil {
		t.Error("Expected connection to be nil initially")
	}
}

func TestSQLiteBasicOperations(t *testing.T) {
	quietLogger()

	db := NewSQLite(":memory:")
	defer db.Close()

	t.Run("InitDB creates the kv table", func(t *testing.T) {
		if err := db.InitDB(); err != nil {
			t.Fatalf(failedToInitDB, err)
		}
		if err := db.Get().Ping(); err != nil {
			t.Errorf("Failed to ping database: %v", err)
		}

		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", "kv").Scan(&name)
		if err != nil {
			t.Fatalf("Expected kv table to exist: %v", err)
		}
	})

	t.Run("Verify table schema", func(t *testing.T) {
		rows, err := db.Query("PRAGMA table_info(kv)")
		if err != nil {
			t.Fatalf("Failed to get kv table info: %v", err)
		}
		defer rows.Close()

		columns := make(map[string]bool)
		for rows.Next() {
			var cid int
			var name, dataType string
			var notNull, pk int
			var defaultValue sql.NullString
			if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
				t.Errorf("Failed to scan column info: %v", err)
				continue
			}
			columns[name] = true
		}

		for _, col := range []string{"key", "value", "content_hash", "updated_at"} {
			if !columns[col] {
				t.Errorf("Expected kv table to have column %s", col)
			}
		}
	})

	t.Run("Exec and query round trip", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO kv (key, value, content_hash) VALUES (?, ?, ?)`, "k", []byte("v"), "h")
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}

		var value []byte
		if err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, "k").Scan(&value); err != nil {
			t.Fatalf("Failed to read back: %v", err)
		}
		if string(value) != "v" {
			t.Errorf("Expected 'v', got %q", value)
		}
	})

	t.Run("Primary key violation", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO kv (key, value, content_hash) VALUES (?, ?, ?)`, "k", []byte("v2"), "h2")
		if err == nil {
			t.Error("Expected duplicate key insert to fail")
		}
	})
}

func TestSQLiteErrorHandling(t *testing.T) {
	quietLogger()

	t.Run("Query on uninitialized database", func(t *testing.T) {
		db := NewSQLite(":memory:")
		if _, err := db.Query(`SELECT 1`); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("Expected ErrNotInitialized, got %v", err)
		}
	})

	t.Run("Exec on uninitialized database", func(t *testing.T) {
		db := NewSQLite(":memory:")
		if _, err := db.Exec(`SELECT 1`); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("Expected ErrNotInitialized, got %v", err)
		}
	})

	t.Run("Invalid SQL", func(t *testing.T) {
		db := NewSQLite(":memory:")
		defer db.Close()
		if err := db.InitDB(); err != nil {
			t.Fatalf(failedToInitDB, err)
		}
		if _, err := db.Exec(`NOT SQL`); err == nil {
			t.Error("Expected invalid SQL to fail")
		}
	})
}

func TestSQLiteClose(t *testing.T) {
	quietLogger()

	db := NewSQLite(":memory:")
	if err := db.Close(); err != nil {
		t.Errorf("Expected closing an uninitialized database to succeed, got %v", err)
	}
	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Expected close to succeed, got %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}
	if db.Get() != nil {
		t.Error("Expected connection to be cleared after close")
	}
}

func TestDatabaseFileIsCreated(t *testing.T) {
	quietLogger()

	path := filepath.Join(t.TempDir(), "inkpad.db")
	db := NewSQLite(path)
	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}
	defer db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected database file at %s: %v", path, err)
	}
}

func TestDBInterface(t *testing.T) {
	var _ DB = NewSQLite(":memory:")
}
