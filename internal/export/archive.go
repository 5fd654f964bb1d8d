package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"gopkg.in/yaml.v3"
)

// IndexFile is the name of the archive index inside an export directory
const IndexFile = "sessions.yaml"

// ArchiveMetadata describes one export run
type ArchiveMetadata struct {
	Format      string    `yaml:"format"`
	StoragePath string    `yaml:"storage_path,omitempty"`
	ExportedAt  time.Time `yaml:"exported_at"`
}

// IndexEntry is the index line for one exported session
type IndexEntry struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name,omitempty"`
	File         string   `yaml:"file"`
	CreatedAt    string   `yaml:"created_at,omitempty"`
	UpdatedAt    string   `yaml:"updated_at,omitempty"`
	MessageCount int      `yaml:"message_count"`
	Category     string   `yaml:"category,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	Archived     bool     `yaml:"archived,omitempty"`
}

// Index lists every session of an export directory
type Index struct {
	Sessions []IndexEntry    `yaml:"sessions"`
	Metadata ArchiveMetadata `yaml:"metadata"`
}

// Archive writes sessions as one file each plus a YAML index
type Archive struct {
	dir         string
	exporter    Exporter
	format      string
	storagePath string
	now         func() time.Time
}

// NewArchive creates an archive in dir using the exporter for format
func NewArchive(dir, format string) (*Archive, error) {
	exporter, err := NewExporter(format)
	if err != nil {
		return nil, err
	}
	return &Archive{dir: dir, exporter: exporter, format: format, now: time.Now}, nil
}

// WithStoragePath records where the sessions were read from
func (a *Archive) WithStoragePath(path string) *Archive {
	a.storagePath = path
	return a
}

// Dir returns the export directory
func (a *Archive) Dir() string {
	return a.dir
}

// SessionPath returns the file a session is written to
func (a *Archive) SessionPath(id string) string {
	return filepath.Join(a.dir, fmt.Sprintf("session_%s.%s", id, a.exporter.Extension()))
}

// IndexPath returns the path of the index file
func (a *Archive) IndexPath() string {
	return filepath.Join(a.dir, IndexFile)
}

// Write exports every session and then the index. A session that fails to
// export is logged and left out of the index; the number written is
// returned.
func (a *Archive) Write(sessions []internal.ChatSession) (int, error) {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return 0, &internal.ExportError{Format: a.format, Path: a.dir, Err: err}
	}

	index := Index{
		Sessions: make([]IndexEntry, 0, len(sessions)),
		Metadata: ArchiveMetadata{
			Format:      a.format,
			StoragePath: a.storagePath,
			ExportedAt:  a.now().UTC(),
		},
	}

	for i := range sessions {
		session := &sessions[i]
		path := a.SessionPath(session.ID)
		if err := a.writeSession(session, path); err != nil {
			internal.LogError("Failed to export session %s: %v", session.ID, err)
			continue
		}
		index.Sessions = append(index.Sessions, indexEntry(session, filepath.Base(path)))
	}

	if err := a.saveIndex(&index); err != nil {
		return len(index.Sessions), err
	}
	return len(index.Sessions), nil
}

func (a *Archive) writeSession(session *internal.ChatSession, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: a.format, Path: path, Err: err}
	}
	if err := a.exporter.Export(session, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: a.format, Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: a.format, Path: path, Err: err}
	}
	return nil
}

func (a *Archive) saveIndex(index *Index) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return &internal.ExportError{Format: "yaml", Path: a.IndexPath(), Err: fmt.Errorf("failed to marshal index: %w", err)}
	}
	if err := os.WriteFile(a.IndexPath(), data, 0644); err != nil {
		return &internal.ExportError{Format: "yaml", Path: a.IndexPath(), Err: err}
	}
	return nil
}

// LoadIndex reads the index of an export directory
func LoadIndex(dir string) (*Index, error) {
	path := filepath.Join(dir, IndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var index Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, &internal.ParseError{Source: "archive", Key: path, Err: err}
	}
	return &index, nil
}

func indexEntry(s *internal.ChatSession, file string) IndexEntry {
	entry := IndexEntry{
		ID:           s.ID,
		Name:         s.Name,
		File:         file,
		MessageCount: len(s.Messages),
		Category:     s.Category,
		Tags:         s.Tags,
		Archived:     s.IsArchived,
	}
	if s.CreatedAt > 0 {
		entry.CreatedAt = time.UnixMilli(s.CreatedAt).UTC().Format(time.RFC3339)
	}
	if s.UpdatedAt > 0 {
		entry.UpdatedAt = time.UnixMilli(s.UpdatedAt).UTC().Format(time.RFC3339)
	}
	return entry
}
