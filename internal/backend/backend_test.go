package backend

import (
	"path/filepath"
	"testing"

	"jangbu/internal/config"
	"jangbu/internal/log"
)

func TestOpenMemory(t *testing.T) {
	store, err := Open(&config.Config{DataBackend: "memory"}, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if store == nil {
		t.Fatal("nil store")
	}
}

func TestOpenSQLite(t *testing.T) {
	store, err := Open(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
	}, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open(&config.Config{DataBackend: "redis"}, log.New(log.DefaultConfig())); err == nil {
		t.Fatal("unknown backend must fail")
	}
}

func TestTypeIsValid(t *testing.T) {
	for _, tc := range []struct {
		t    Type
		want bool
	}{
		{TypeMemory, true},
		{TypeSQLite, true},
		{Type("sheets"), false},
		{Type(""), false},
	} {
		if got := tc.t.IsValid(); got != tc.want {
			t.Fatalf("IsValid(%q) = %v, want %v", tc.t, got, tc.want)
		}
	}
}
