package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fraczoom/internal/nav"
)

// Store keeps one directory per saved session: metadata.json plus the
// zoom history as history.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type SessionMetadata struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	Precision string    `json:"precision"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	MaxIter   int       `json:"max_iter"`
	Depth     int       `json:"depth"`
	CenterHex string    `json:"center_hex"`
	HalfSpanX string    `json:"half_span_x"`
	HalfSpanY string    `json:"half_span_y"`
}

var historyHeader = []string{"seq", "center_hex", "half_span_x", "half_span_y"}

// Save writes a new session directory and returns its id. ID, Timestamp,
// Depth and the top-of-history fields are filled from rows.
func (s *Store) Save(meta SessionMetadata, rows []nav.JournalEntry) (string, error) {
	if len(rows) == 0 {
		return "", nav.ErrEmptyJournal
	}
	label := meta.Label
	if label == "" {
		label = "session"
	}
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", label, now.UnixNano())
	meta.Label = label
	meta.Timestamp = now
	meta.Depth = len(rows)
	top := rows[len(rows)-1]
	meta.CenterHex, meta.HalfSpanX, meta.HalfSpanY = top.CenterHex, top.HalfSpanX, top.HalfSpanY

	sessionDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(sessionDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(sessionDir, "history.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(historyHeader); err != nil {
		return "", err
	}
	for _, r := range rows {
		if err := w.Write([]string{strconv.FormatUint(r.Seq, 10), r.CenterHex, r.HalfSpanX, r.HalfSpanY}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable session, newest first.
func (s *Store) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadHistory reads history.csv. Any malformed row fails the whole load.
func (s *Store) LoadHistory(id string) ([]nav.JournalEntry, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "history.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(historyHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nav.ErrEmptyJournal
	}

	rows := make([]nav.JournalEntry, 0, len(records)-1)
	for i, record := range records[1:] {
		seq, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("history.csv line %d: bad seq %q", i+2, record[0])
		}
		rows = append(rows, nav.JournalEntry{
			Seq:       seq,
			CenterHex: record[1],
			HalfSpanX: record[2],
			HalfSpanY: record[3],
		})
	}
	return rows, nil
}

// Latest returns the id of the newest session.
func (s *Store) Latest() (string, error) {
	sessions, err := s.List()
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions in %s", s.baseDir)
	}
	return sessions[0].ID, nil
}
