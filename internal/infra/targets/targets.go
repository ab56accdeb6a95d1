// Package targets builds the optional mirror databases that receive a copy
// of every generated chunk.
package targets

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/exec"
	"github.com/mmrzaf/mockgen/internal/infra/targets/elasticsearch"
	"github.com/mmrzaf/mockgen/internal/infra/targets/postgres"
	"github.com/mmrzaf/mockgen/internal/infra/targets/sqlite"
)

// Mirror is a target that can also report its server version.
type Mirror interface {
	exec.Target
	ServerVersion() (string, error)
}

// New returns an unconnected mirror for cfg.
func New(cfg *domain.MirrorConfig) (Mirror, error) {
	effective := Resolve(cfg)
	switch effective.Kind {
	case domain.MirrorKindPostgres:
		return postgres.NewPostgresTarget(effective.DSN, effective.Schema), nil
	case domain.MirrorKindSQLite:
		return sqlite.NewSQLiteTarget(effective.DSN), nil
	case domain.MirrorKindElasticsearch:
		return elasticsearch.NewElasticsearchTarget(effective.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported mirror kind: %s", cfg.Kind)
	}
}

// Resolve applies the database override to the DSN.
func Resolve(cfg *domain.MirrorConfig) *domain.MirrorConfig {
	t := *cfg
	t.Kind = strings.ToLower(strings.TrimSpace(t.Kind))
	if t.Kind == domain.MirrorKindPostgres && t.Database != "" {
		t.DSN = withPostgresDatabase(t.DSN, t.Database)
	}
	return &t
}

func withPostgresDatabase(dsn, database string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return dsn
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Host != "" {
		u.Path = "/" + database
		return u.String()
	}
	parts := strings.Fields(dsn)
	found := false
	for i := range parts {
		if strings.HasPrefix(strings.ToLower(parts[i]), "dbname=") {
			parts[i] = "dbname=" + database
			found = true
			break
		}
	}
	if !found {
		parts = append(parts, "dbname="+database)
	}
	return strings.Join(parts, " ")
}
