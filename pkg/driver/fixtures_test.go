package driver

import (
	"path/filepath"
	"testing"
)

func TestFixtures(t *testing.T) {
	fixtures, err := LoadFixtures(filepath.Join("testdata", "fixtures"))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) == 0 {
		t.Fatalf("no fixtures found")
	}
	for _, fixture := range fixtures {
		fixture := fixture
		t.Run(fixture.Name(), func(t *testing.T) {
			if err := fixture.Run(); err != nil {
				t.Fatalf("%s (%s): %v", fixture.Name(), fixture.Description, err)
			}
		})
	}
}

func TestLoadFixtureRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	writeFile(t, path, "source: (+ 1 2)\nexpected:\n  values: [\"Int(3)\"]\n")
	if _, err := LoadFixture(path); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}
