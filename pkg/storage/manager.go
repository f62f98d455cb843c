package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ghscraper/pkg/config"
	"ghscraper/pkg/models"
)

// Manager writes the artefacts of a run into the output directory
type Manager struct {
	outputDir string
	files     config.OutputConfig
}

// NewManager creates a new storage manager, creating the output directory
func NewManager(cfg config.OutputConfig) (*Manager, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: cfg.Directory,
		files:     cfg,
	}, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// UsersPath returns the full path of users.csv
func (m *Manager) UsersPath() string {
	return filepath.Join(m.outputDir, m.files.UsersFile)
}

// RepositoriesPath returns the full path of repositories.csv
func (m *Manager) RepositoriesPath() string {
	return filepath.Join(m.outputDir, m.files.RepositoriesFile)
}

// AnalysisPath returns the full path of the analysis JSON file
func (m *Manager) AnalysisPath() string {
	return filepath.Join(m.outputDir, m.files.AnalysisFile)
}

// ReadmePath returns the full path of the report
func (m *Manager) ReadmePath() string {
	return filepath.Join(m.outputDir, m.files.ReadmeFile)
}

// Artefacts lists every file a complete run writes, in write order
func (m *Manager) Artefacts() []string {
	return []string{m.UsersPath(), m.RepositoriesPath(), m.AnalysisPath(), m.ReadmePath()}
}

// WriteUsers writes users.csv
func (m *Manager) WriteUsers(users []models.User) error {
	return writeAtomic(m.UsersPath(), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(models.UserHeader); err != nil {
			return err
		}
		for _, u := range users {
			if err := cw.Write(u.Record()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteRepositories writes repositories.csv
func (m *Manager) WriteRepositories(repos []models.Repository) error {
	return writeAtomic(m.RepositoriesPath(), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(models.RepositoryHeader); err != nil {
			return err
		}
		for _, r := range repos {
			if err := cw.Write(r.Record()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteAnalysis writes v as indented JSON
func (m *Manager) WriteAnalysis(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	data = append(data, '\n')

	return writeAtomic(m.AnalysisPath(), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteReadme writes the Markdown report
func (m *Manager) WriteReadme(content string) error {
	return writeAtomic(m.ReadmePath(), func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
}

// ReadSnapshot loads the two tables written by a previous run
func (m *Manager) ReadSnapshot() (*models.Snapshot, error) {
	users, err := readTable(m.UsersPath(), models.UserHeader, models.ParseUser)
	if err != nil {
		return nil, err
	}
	repos, err := readTable(m.RepositoriesPath(), models.RepositoryHeader, models.ParseRepository)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{Users: users, Repositories: repos}, nil
}

func readTable[T any](path string, header []string, parse func([]string) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	cr := csv.NewReader(bufio.NewReader(f))
	cr.FieldsPerRecord = len(header)

	got, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", filepath.Base(path), err)
	}
	for i := range header {
		if got[i] != header[i] {
			return nil, fmt.Errorf("%s: unexpected column %q at position %d, want %q",
				filepath.Base(path), got[i], i, header[i])
		}
	}

	rows := make([]T, 0)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		row, err := parse(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeAtomic writes through a temporary file renamed into place
func writeAtomic(path string, write func(io.Writer) error) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	bw := bufio.NewWriter(out)
	err = write(bw)
	if err == nil {
		err = bw.Flush()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
