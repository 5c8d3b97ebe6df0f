package db

import (
	"context"
	"strings"
	"testing"

	"github.com/emotionalcenter/amistapp/internal/memstore"
)

func TestParseCatalog_Embedded(t *testing.T) {
	actions, err := ParseCatalog("")
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) == 0 {
		t.Fatal("embedded catalog is empty")
	}
	for _, a := range actions {
		if a.Points <= 0 || a.Name == "" {
			t.Fatalf("bad action %+v", a)
		}
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"zero points": "[[action]]\nname = \"x\"\npoints = 0\n",
		"no name":     "[[action]]\npoints = 3\n",
		"duplicate":   "[[action]]\nname = \"x\"\npoints = 1\n[[action]]\nname = \"x\"\npoints = 2\n",
		"unknown key": "[[action]]\nname = \"x\"\npoints = 1\ncolor = \"red\"\n",
		"syntax":      "[[action]\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog(src); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	src := "[[action]]\nname = \"Ayudar\"\npoints = 10\n[[action]]\nname = \"Limpiar\"\npoints = 3\n"

	n, err := Seed(ctx, st, src)
	if err != nil || n != 2 {
		t.Fatalf("seed: n=%d err=%v", n, err)
	}
	first, _ := st.ListActions(ctx)

	src = strings.Replace(src, "points = 10", "points = 12", 1)
	if _, err := Seed(ctx, st, src); err != nil {
		t.Fatal(err)
	}
	second, _ := st.ListActions(ctx)
	if len(second) != 2 {
		t.Fatalf("want 2 actions after reseed, got %d", len(second))
	}
	if second[0].ID != first[0].ID || second[0].Points != 12 {
		t.Fatalf("reseed must update in place: %+v -> %+v", first[0], second[0])
	}
}
