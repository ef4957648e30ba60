package migrations

import "testing"

// Registration derives the migration name from the registering file name, so
// a bad file name would panic at init. Assert the registered entry directly.
func TestCreateCatalogsRegistered(t *testing.T) {
	sorted := Migrations.Sorted()
	if len(sorted) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(sorted))
	}
	if sorted[0].Name != "2026083101" || sorted[0].Comment != "create_catalogs" {
		t.Fatalf("unexpected migration %s_%s", sorted[0].Name, sorted[0].Comment)
	}
	if sorted[0].Up == nil || sorted[0].Down == nil {
		t.Fatalf("expected up and down functions to be registered")
	}
}
