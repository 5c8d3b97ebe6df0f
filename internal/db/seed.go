package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/emotionalcenter/amistapp/internal/models"
)

//go:embed catalog.toml
var catalogTOML string

type catalogFile struct {
	Action []struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
		Points      int64  `toml:"points"`
	} `toml:"action"`
}

// ActionUpserter: и Postgres, и memstore.
type ActionUpserter interface {
	UpsertAction(ctx context.Context, a models.Action) (models.Action, error)
}

// ParseCatalog разбирает каталог действий; пустой src: встроенный файл.
func ParseCatalog(src string) ([]models.Action, error) {
	if src == "" {
		src = catalogTOML
	}
	var f catalogFile
	md, err := toml.Decode(src, &f)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("catalog: unknown keys %v", undec)
	}
	out := make([]models.Action, 0, len(f.Action))
	seen := make(map[string]bool, len(f.Action))
	for i, a := range f.Action {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: action #%d has no name", i+1)
		}
		if a.Points <= 0 {
			return nil, fmt.Errorf("catalog: action %q: points must be positive", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("catalog: duplicate action %q", name)
		}
		seen[name] = true
		out = append(out, models.Action{Name: name, Description: a.Description, Points: a.Points})
	}
	return out, nil
}

// Seed заливает каталог. Идемпотентно.
func Seed(ctx context.Context, store ActionUpserter, src string) (int, error) {
	actions, err := ParseCatalog(src)
	if err != nil {
		return 0, err
	}
	for _, a := range actions {
		if _, err := store.UpsertAction(ctx, a); err != nil {
			return 0, fmt.Errorf("seed %q: %w", a.Name, err)
		}
	}
	return len(actions), nil
}
