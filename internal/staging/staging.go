package staging

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agidash/agidash/internal/ingest"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// Store keeps raw daily snapshots on disk as
// <dir>/<source>/<YYYY-MM-DD>.json. It is the replayable input for
// backfill.
type Store struct {
	dir string
	log logger.Logger
}

func New(dir string, log logger.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.With("staging"),
	}
}

func (s *Store) Save(snap ingest.Snapshot) error {
	dir := filepath.Join(s.dir, snap.Source)

	err := os.MkdirAll(dir, fs.ModePerm)
	if err != nil {
		return errors.WrapFail(err, "create staging dir")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return errors.WrapFail(err, "marshal snapshot")
	}

	path := filepath.Join(dir, snap.Date+".json")
	s.log.Infof("saving %s snapshot to %s", snap.Source, path)

	err = os.WriteFile(path, data, 0o644)
	return errors.WrapFail(err, "write snapshot file")
}

// Load returns the snapshot for a source and day; ok is false when
// none was staged.
func (s *Store) Load(source, date string) (snap ingest.Snapshot, ok bool, err error) {
	path := filepath.Join(s.dir, source, date+".json")

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ingest.Snapshot{}, false, nil
	}
	if err != nil {
		return ingest.Snapshot{}, false, errors.WrapFail(err, "read snapshot file")
	}

	err = json.Unmarshal(data, &snap)
	if err != nil {
		return ingest.Snapshot{}, false, errors.WrapFail(err, "unmarshal snapshot")
	}

	return snap, true, nil
}

// Days lists the staged days for one source in ascending order.
func (s *Store) Days(source string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, source))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapFail(err, "read staging dir")
	}

	days := make([]string, 0, len(entries))
	for _, e := range entries {
		name, found := strings.CutSuffix(e.Name(), ".json")
		if !found || e.IsDir() {
			continue
		}
		days = append(days, name)
	}

	sort.Strings(days)
	return days, nil
}

// AllDays is the sorted union of staged days over all sources.
func (s *Store) AllDays(sources []string) ([]string, error) {
	seen := map[string]bool{}

	for _, source := range sources {
		days, err := s.Days(source)
		if err != nil {
			return nil, errors.WrapFailf(err, "list days of %q", source)
		}
		for _, d := range days {
			seen[d] = true
		}
	}

	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}

	sort.Strings(days)
	return days, nil
}
