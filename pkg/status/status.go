// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Stdout is the destination that writes to standard output
const Stdout = "-"

// rename moves a finished temp file over its destination
var rename = os.Rename

// 📊 FileStatus represents the state of a destination relative to new content
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // Destination doesn't exist
	StatusModified             // Destination exists but content differs
	StatusUnchanged            // Destination exists and content matches
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains metadata about a written destination
type FileInfo struct {
	Path     string     // Destination path as given
	Status   FileStatus // Status before the write
	Size     int64      // Bytes written
	Checksum string     // SHA-256 of the written content
	Backup   string     // Backup path, empty when none was made
	Error    error      // Any error associated with this file
}

// 💾 FileManager handles file system operations
type FileManager interface {
	WriteFile(ctx context.Context, path string, content []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	FileExists(ctx context.Context, path string) (bool, error)

	// Atomic operations
	WriteFileAtomic(ctx context.Context, path string, content []byte) error

	// Backup operations
	BackupFile(ctx context.Context, path string) (string, error)
	RestoreFile(ctx context.Context, path string) error
}

// 📈 StatusReporter tracks file status and reports progress
type StatusReporter interface {
	TrackFile(ctx context.Context, path string, info FileInfo)
	ListFiles(ctx context.Context) ([]FileInfo, error)

	StartOperation(ctx context.Context, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

// 🔧 Manager implements both FileManager and StatusReporter
type Manager struct {
	baseDir   string        // Relative paths are resolved against this
	formatter FileFormatter // Formatter for status messages
	stdout    io.Writer     // Destination for Stdout

	// Status tracking
	mu    sync.RWMutex
	files map[string]FileInfo

	// Progress tracking
	total     int
	processed int
}

var (
	_ FileManager    = (*Manager)(nil)
	_ StatusReporter = (*Manager)(nil)
)

// 🏭 New creates a new status manager. An empty baseDir leaves relative
// paths relative to the working directory.
func New(baseDir string) *Manager {
	if baseDir != "" {
		baseDir = filepath.Clean(baseDir)
	}
	return &Manager{
		baseDir:   baseDir,
		formatter: NewDefaultFileFormatter(),
		stdout:    os.Stdout,
		files:     make(map[string]FileInfo),
	}
}

// SetStdout replaces the writer used for the Stdout destination
func (m *Manager) SetStdout(w io.Writer) {
	m.stdout = w
}

// 🔒 getAbsPath resolves path against the base directory
func (m *Manager) getAbsPath(path string) string {
	if m.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 🔍 calculateChecksum generates a SHA-256 hash of the content
func calculateChecksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// Status reports what writing content to path would do
func (m *Manager) Status(ctx context.Context, path string, content []byte) (FileStatus, error) {
	if path == Stdout {
		return StatusNew, nil
	}
	exists, err := m.FileExists(ctx, path)
	if err != nil {
		return StatusUnknown, errors.Errorf("reading destination: %w", err)
	}
	if !exists {
		return StatusNew, nil
	}
	existing, err := m.ReadFile(ctx, path)
	if err != nil {
		return StatusUnknown, errors.Errorf("reading destination: %w", err)
	}
	if calculateChecksum(existing) == calculateChecksum(content) {
		return StatusUnchanged, nil
	}
	return StatusModified, nil
}

// 💾 Commit writes content to path, backing up a differing destination first
// when backup is set. Unchanged destinations are not rewritten.
func (m *Manager) Commit(ctx context.Context, path string, content []byte, backup bool) (FileInfo, error) {
	info := FileInfo{
		Path:     path,
		Size:     int64(len(content)),
		Checksum: calculateChecksum(content),
	}

	if path == Stdout {
		info.Status = StatusNew
		if _, err := m.stdout.Write(content); err != nil {
			return info, errors.Errorf("writing to stdout: %w", err)
		}
		return info, nil
	}

	st, err := m.Status(ctx, path, content)
	if err != nil {
		return info, err
	}
	info.Status = st

	if st == StatusUnchanged {
		m.TrackFile(ctx, path, info)
		return info, nil
	}

	if backup && st == StatusModified {
		bak, err := m.BackupFile(ctx, path)
		if err != nil {
			return info, err
		}
		info.Backup = bak
	}

	if err := m.WriteFile(ctx, path, content); err != nil {
		if info.Backup != "" {
			// put the original back so a failed write leaves no stray .bak
			if rerr := m.RestoreFile(ctx, path); rerr != nil {
				zerolog.Ctx(ctx).Error().Err(rerr).Str("path", path).Msg("restoring backup")
			} else {
				info.Backup = ""
			}
		}
		info.Error = err
		m.TrackFile(ctx, path, info)
		return info, err
	}

	m.TrackFile(ctx, path, info)
	return info, nil
}

// FileManager interface implementation

func (m *Manager) WriteFile(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	return m.WriteFileAtomic(ctx, path, content)
}

func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	// Temp file in the same directory so the rename stays on one filesystem
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := rename(tempPath, absPath); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", absPath).Int("bytes", len(content)).Msg("wrote file")
	return nil
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

func (m *Manager) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(m.getAbsPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// BackupFile copies path to path.bak and returns the backup path. A missing
// file is not backed up and returns an empty path.
func (m *Manager) BackupFile(ctx context.Context, path string) (string, error) {
	absPath := m.getAbsPath(path)
	backupPath := absPath + ".bak"

	exists, err := m.FileExists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", nil
	}

	if err := copyFile(absPath, backupPath); err != nil {
		return "", errors.Errorf("creating backup: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", absPath).Str("backup", backupPath).Msg("backed up file")
	return backupPath, nil
}

func (m *Manager) RestoreFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)
	backupPath := absPath + ".bak"

	exists, err := m.FileExists(ctx, path+".bak")
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("backup file does not exist")
	}

	if err := copyFile(backupPath, absPath); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	if err := os.Remove(backupPath); err != nil {
		return errors.Errorf("removing backup: %w", err)
	}

	return nil
}

// StatusReporter interface implementation

func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = info
	msg := m.formatter.FormatFileOperation(path, info.Status)
	if info.Error != nil {
		msg = m.formatter.FormatError(info.Error)
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Str("status", info.Status.String()).Msg(msg)
}

// ListFiles returns every tracked file, sorted by path
func (m *Manager) ListFiles(ctx context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.files))
	for _, info := range m.files {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (m *Manager) StartOperation(ctx context.Context, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = total
	m.processed = 0
	zerolog.Ctx(ctx).Info().Int("total", total).Msg(m.formatter.FormatProgress(0, total))
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = processed
	zerolog.Ctx(ctx).Info().
		Int("processed", processed).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(processed, m.total))
}

// Progress returns the processed and total counts of the current operation
func (m *Manager) Progress() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.processed, m.total
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = m.total
	zerolog.Ctx(ctx).Info().
		Int("processed", m.total).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(m.total, m.total))
}

// Helper functions

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return errors.Errorf("copying file: %w", err)
	}

	return nil
}
