package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Rana718/datagen/internal/database"
	"github.com/Rana718/datagen/internal/logger"
	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
)

const (
	upMarker   = "-- +up"
	downMarker = "-- +down"

	timestampLayout = "20060102150405"
)

var fileNamePattern = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// Manager writes table migrations to disk and applies them through an adapter.
type Manager struct {
	dir     string
	adapter database.DatabaseAdapter
	now     func() time.Time
}

// NewManager returns a manager for dir. adapter may be nil when only files
// are written or read.
func NewManager(dir string, adapter database.DatabaseAdapter) *Manager {
	return &Manager{dir: dir, adapter: adapter, now: time.Now}
}

func (m *Manager) Dir() string { return m.dir }

// CreateTableMigration writes <timestamp>_create_<table>.sql holding the
// adapter's CREATE TABLE and DROP TABLE statements.
func (m *Manager) CreateTableMigration(def types.TableDefinition) (*types.Migration, error) {
	if m.adapter == nil {
		return nil, errors.New("migration manager has no database adapter")
	}
	if existing, err := m.FindTableMigration(def.TableName); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.Newf("a migration for table %s already exists: %s", def.TableName, existing.FilePath)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create migrations directory")
	}

	name := "create_" + def.TableName
	id := fmt.Sprintf("%s_%s", m.now().UTC().Format(timestampLayout), name)
	mig := &types.Migration{
		ID:       id,
		Name:     name,
		FilePath: filepath.Join(m.dir, id+".sql"),
		Up:       m.adapter.GenerateCreateTableSQL(def),
		Down:     m.adapter.GenerateDropTableSQL(def.TableName),
	}
	mig.Checksum = checksum(strings.TrimSpace(mig.Up))

	if err := os.WriteFile(mig.FilePath, []byte(Render(mig)), 0644); err != nil {
		return nil, errors.Wrap(err, "failed to write migration file")
	}
	logger.Get().Debug("migration written", "id", mig.ID, "path", mig.FilePath)
	return mig, nil
}

// Render formats a migration file.
func Render(mig *types.Migration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Migration: %s\n", mig.Name)
	fmt.Fprintf(&b, "-- Checksum: %s\n\n", mig.Checksum)
	b.WriteString(upMarker + "\n")
	b.WriteString(strings.TrimSpace(mig.Up) + "\n\n")
	b.WriteString(downMarker + "\n")
	b.WriteString(strings.TrimSpace(mig.Down) + "\n")
	return b.String()
}

// Parse reads a migration file's content. The file name supplies the ID.
func Parse(path, content string) (*types.Migration, error) {
	base := filepath.Base(path)
	match := fileNamePattern.FindStringSubmatch(base)
	if match == nil {
		return nil, errors.Newf("invalid migration file name %s", base)
	}

	upAt := strings.Index(content, upMarker)
	if upAt < 0 {
		return nil, errors.Newf("migration %s has no %s section", base, upMarker)
	}
	up := content[upAt+len(upMarker):]
	down := ""
	if downAt := strings.Index(up, downMarker); downAt >= 0 {
		down = strings.TrimSpace(up[downAt+len(downMarker):])
		up = up[:downAt]
	}
	up = strings.TrimSpace(up)
	if up == "" {
		return nil, errors.Newf("migration %s is empty", base)
	}
	if strings.Contains(strings.ToLower(up), "drop database") {
		return nil, errors.Newf("migration %s contains a DROP DATABASE statement", base)
	}

	return &types.Migration{
		ID:       strings.TrimSuffix(base, ".sql"),
		Name:     match[2],
		FilePath: path,
		Checksum: checksum(up),
		Up:       up,
		Down:     down,
	}, nil
}

// GetLocalMigrations returns the migrations on disk ordered by ID.
func (m *Manager) GetLocalMigrations() ([]*types.Migration, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read migrations directory")
	}

	var migrations []*types.Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration file %s", path)
		}
		mig, err := Parse(path, string(content))
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, mig)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].ID < migrations[j].ID
	})
	return migrations, nil
}

// FindTableMigration returns the create migration for table, or nil.
func (m *Manager) FindTableMigration(table string) (*types.Migration, error) {
	migrations, err := m.GetLocalMigrations()
	if err != nil {
		return nil, err
	}
	for _, mig := range migrations {
		if mig.Name == "create_"+table {
			return mig, nil
		}
	}
	return nil, nil
}

// Status reports every local migration with its applied state.
func (m *Manager) Status(ctx context.Context) ([]*types.Migration, error) {
	if m.adapter == nil {
		return nil, errors.New("migration manager has no database adapter")
	}
	if err := m.adapter.CreateMigrationsTable(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to create migrations table")
	}

	migrations, err := m.GetLocalMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := m.adapter.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get applied migrations")
	}
	for _, mig := range migrations {
		if at, ok := applied[mig.ID]; ok {
			mig.Applied = true
			mig.AppliedAt = at
		}
	}
	return migrations, nil
}

// Apply runs every pending migration in ID order and returns the IDs applied.
func (m *Manager) Apply(ctx context.Context) ([]string, error) {
	migrations, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, mig := range migrations {
		if mig.Applied {
			continue
		}
		if err := m.adapter.ExecuteAndRecordMigration(ctx, mig.ID, mig.Name, mig.Checksum, mig.Up); err != nil {
			return done, errors.Wrapf(explain(err), "failed to apply migration %s", mig.ID)
		}
		logger.Get().Info("migration applied", "id", mig.ID)
		done = append(done, mig.ID)
	}
	return done, nil
}

// explain turns common driver failures into readable messages.
func explain(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already exists"):
		return errors.WithHint(errors.Wrap(err, "table already exists"),
			"the table was created outside datagen; drop it or remove the migration file")
	case strings.Contains(msg, "syntax error"):
		return errors.WithHint(errors.Wrap(err, "SQL syntax error in migration"),
			"check that database.provider matches the database the migration was generated for")
	default:
		return err
	}
}

func checksum(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}
