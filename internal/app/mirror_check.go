package app

import (
	"fmt"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/exec"
	"github.com/mmrzaf/mockgen/internal/infra/targets"
	"github.com/mmrzaf/mockgen/internal/validation"
)

// CheckMirror connects to a mirror database and probes whether it can
// create, fill and truncate a scratch table.
func CheckMirror(cfg *domain.MirrorConfig) (*domain.MirrorCheck, error) {
	check := &domain.MirrorCheck{
		Kind:      cfg.Kind,
		DSN:       targets.RedactDSN(cfg.DSN),
		CheckedAt: time.Now().UTC(),
	}

	if err := validateMirror(cfg); err != nil {
		check.Error = err.Error()
		return check, err
	}

	start := time.Now()
	tgt, err := targets.New(cfg)
	if err != nil {
		check.Error = err.Error()
		return check, err
	}
	if err := tgt.Connect(); err != nil {
		check.Error = err.Error()
		check.LatencyMS = time.Since(start).Milliseconds()
		return check, err
	}
	defer tgt.Close()

	check.OK = true
	check.LatencyMS = time.Since(start).Milliseconds()
	if ver, verErr := tgt.ServerVersion(); verErr == nil {
		check.ServerVer = ver
	}
	check.Capabilities = probeCapabilities(tgt)
	return check, nil
}

func validateMirror(cfg *domain.MirrorConfig) error {
	if cfg.DSN == "" {
		return fmt.Errorf("mirror dsn is required")
	}
	if cfg.Schema != "" && !validation.IsValidIdentifier(cfg.Schema) {
		return fmt.Errorf("invalid mirror schema identifier: %s", cfg.Schema)
	}
	if cfg.Database != "" && !validation.IsValidIdentifier(cfg.Database) {
		return fmt.Errorf("invalid mirror database identifier: %s", cfg.Database)
	}
	return nil
}

func probeCapabilities(tgt exec.Target) domain.MirrorCapabilities {
	table := fmt.Sprintf("mockgen_check_%d", time.Now().UnixNano())
	cols := []domain.ColumnSpec{{Name: "id", Type: "int", Length: 10}}

	var caps domain.MirrorCapabilities
	if err := tgt.CreateTableIfNotExists(table, cols); err != nil {
		return caps
	}
	caps.CanCreate = true

	if err := tgt.InsertBatch(table, []string{"id"}, [][]interface{}{{"1"}}); err != nil {
		return caps
	}
	caps.CanInsert = true

	if err := tgt.TruncateTable(table); err != nil {
		return caps
	}
	caps.CanTruncate = true
	return caps
}
