package tracker

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Rana718/datagen/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
)

// ErrNotFound is returned when an export record does not exist.
var ErrNotFound = errors.New("export not found")

const keyPrefix = "export:"

// Progress steps reported while an export runs.
var (
	StepInitializing = types.Progress{Step: "initializing", Percentage: 0, Message: "Preparing export"}
	StepGenerating   = types.Progress{Step: "generating_data", Percentage: 20, Message: "Generating synthetic data"}
	StepWritingFile  = types.Progress{Step: "creating_file", Percentage: 60, Message: "Writing export file"}
	StepSaving       = types.Progress{Step: "saving_to_db", Percentage: 80, Message: "Saving records to the database"}
	StepCompleted    = types.Progress{Step: "completed", Percentage: 100, Message: "Export completed"}
)

// Tracker persists export records in a buntdb file.
type Tracker struct {
	db   *buntdb.DB
	once sync.Once
	now  func() time.Time
}

// FilenameFromDir returns the tracker database path inside dir.
func FilenameFromDir(dir string) string {
	return filepath.Join(dir, "exports.db")
}

// Open opens the tracker at path. Use ":memory:" for a throwaway store.
func Open(path string) (*Tracker, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tracker db")
	}
	return &Tracker{db: db, now: time.Now}, nil
}

func (t *Tracker) Close() error {
	var err error
	t.once.Do(func() {
		t.db.Shrink()
		err = t.db.Close()
	})
	return err
}

// Create stores a new pending export record.
func (t *Tracker) Create(table string, numRecords int, format string) (*types.ExportRecord, error) {
	rec := &types.ExportRecord{
		ID:         uuid.NewString(),
		Table:      table,
		NumRecords: numRecords,
		Format:     format,
		Status:     types.ExportPending,
		Progress:   StepInitializing,
		CreatedAt:  t.now().UTC(),
	}
	if err := t.put(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateProgress moves the export to processing at the given step.
func (t *Tracker) UpdateProgress(id string, step types.Progress) (*types.ExportRecord, error) {
	return t.update(id, func(rec *types.ExportRecord) {
		rec.Status = types.ExportProcessing
		rec.Progress = step
	})
}

// Complete marks the export completed with its output file.
func (t *Tracker) Complete(id, filePath string) (*types.ExportRecord, error) {
	return t.update(id, func(rec *types.ExportRecord) {
		now := t.now().UTC()
		rec.Status = types.ExportCompleted
		rec.FilePath = filePath
		rec.Progress = StepCompleted
		rec.CompletedAt = &now
	})
}

// Fail marks the export failed, keeping the step it failed at.
func (t *Tracker) Fail(id string, cause error) (*types.ExportRecord, error) {
	return t.update(id, func(rec *types.ExportRecord) {
		now := t.now().UTC()
		rec.Status = types.ExportFailed
		rec.Error = cause.Error()
		rec.Progress = types.Progress{
			Step:       "failed",
			Percentage: rec.Progress.Percentage,
			Message:    "Export failed: " + cause.Error(),
		}
		rec.CompletedAt = &now
	})
}

func (t *Tracker) Get(id string) (*types.ExportRecord, error) {
	var rec types.ExportRecord
	err := t.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(keyPrefix + id)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), &rec)
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read export")
	}
	return &rec, nil
}

// List returns export records newest first. An empty table matches all.
func (t *Tracker) List(table string) ([]*types.ExportRecord, error) {
	var records []*types.ExportRecord
	err := t.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendKeys(keyPrefix+"*", func(_, val string) bool {
			var rec types.ExportRecord
			if decodeErr = json.Unmarshal([]byte(val), &rec); decodeErr != nil {
				return false
			}
			if table == "" || rec.Table == table {
				records = append(records, &rec)
			}
			return true
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list exports")
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (t *Tracker) update(id string, fn func(*types.ExportRecord)) (*types.ExportRecord, error) {
	var rec types.ExportRecord
	err := t.db.Update(func(tx *buntdb.Tx) error {
		val, err := tx.Get(keyPrefix + id)
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return err
		}
		fn(&rec)
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(keyPrefix+id, string(data), nil)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to update export")
	}
	return &rec, nil
}

func (t *Tracker) put(rec *types.ExportRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.WithStack(err)
	}
	err = t.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(keyPrefix+rec.ID, string(data), nil)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "failed to store export")
	}
	return nil
}
