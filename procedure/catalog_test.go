package procedure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ha1tch/procdb/wire"
)

func writeCatalogFile(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCatalog_LookupAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeCatalogFile(t, path, `{"procedures":[{"name":"AddCustomer","paramTypes":[9,5]}]}`)

	cat, err := NewCatalog(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	sig, ok := cat.Lookup("AddCustomer")
	if !ok || len(sig.ParamTypes) != 2 {
		t.Fatalf("Lookup(%q) = %+v, %v", "AddCustomer", sig, ok)
	}

	p, err := New("AddCustomer", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(0, wire.String("acme")); err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(1, wire.Integer(1)); err != nil {
		t.Fatal(err)
	}
	if err := cat.Validate(p); err != nil {
		t.Errorf("Validate() on matching procedure: %v", err)
	}

	bad, err := New("AddCustomer", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := bad.SetParam(0, wire.String("acme")); err != nil {
		t.Fatal(err)
	}
	if err := cat.Validate(bad); err == nil {
		t.Error("Validate() on arity mismatch: want error")
	}
}

func TestCatalog_UnlistedProcedurePassesUnchecked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeCatalogFile(t, path, `{"procedures":[]}`)

	cat, err := NewCatalog(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	p, err := New("Unregistered", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetParam(0, wire.Integer(1)); err != nil {
		t.Fatal(err)
	}
	if err := cat.Validate(p); err != nil {
		t.Errorf("Validate() on unlisted procedure: %v", err)
	}
}

func TestCatalog_HotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeCatalogFile(t, path, `{"procedures":[{"name":"First","paramTypes":[5]}]}`)

	reloaded := make(chan int, 4)
	cat, err := NewCatalog(path, nil, WithOnReload(func(count int) {
		select {
		case reloaded <- count:
		default:
		}
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	writeCatalogFile(t, path, `{"procedures":[{"name":"First","paramTypes":[5]},{"name":"Second","paramTypes":[9]}]}`)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for catalog hot-reload")
		case count := <-reloaded:
			if count != 2 {
				continue
			}
			if _, ok := cat.Lookup("Second"); !ok {
				t.Fatal("Lookup(\"Second\") after reload: not found")
			}
			return
		}
	}
}
