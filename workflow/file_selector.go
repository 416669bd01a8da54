package workflow

import (
	"errors"
	"strings"
	"sync"

	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

// AllowedExtensions is matched case-sensitively against the end of the file name.
var AllowedExtensions = []string{".xlsx", ".xls"}

// ErrFileTypeRejected is the blocking alert raised for a non-spreadsheet pick.
// It is returned to the caller and never posted to the status channel.
var ErrFileTypeRejected = errors.New("Please select a valid Excel file (.xlsx or .xls)")

// IsSpreadsheet reports whether name passes the extension allow-list.
func IsSpreadsheet(name string) bool {
	for _, ext := range AllowedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// FileSelector holds the validated spreadsheet. A rejected candidate never
// replaces the current selection.
type FileSelector struct {
	mu       sync.RWMutex
	selected *types.SelectedFile
}

// SelectCandidate validates f (dropped or browsed) and makes it the selection.
func (s *FileSelector) SelectCandidate(f types.SelectedFile) (types.SelectedFile, error) {
	if !IsSpreadsheet(f.Name) {
		tool.DefaultLogger.Warnf("Rejected file %q: not an Excel file", f.Name)
		return types.SelectedFile{}, ErrFileTypeRejected
	}
	if f.Data != nil && f.Size == 0 {
		f.Size = int64(len(f.Data))
	}
	s.mu.Lock()
	s.selected = &f
	s.mu.Unlock()
	tool.DefaultLogger.Infof("Selected %s (%.2f MB)", f.Name, f.SizeMB())
	return f, nil
}

// SelectPath selects a local file by path. The name check runs before the file is touched.
func (s *FileSelector) SelectPath(path string) (types.SelectedFile, error) {
	if !IsSpreadsheet(path) {
		tool.DefaultLogger.Warnf("Rejected file %q: not an Excel file", path)
		return types.SelectedFile{}, ErrFileTypeRejected
	}
	name, size, err := tool.StatLocalFile(path)
	if err != nil {
		return types.SelectedFile{}, err
	}
	return s.SelectCandidate(types.SelectedFile{Name: name, Size: size, Path: path})
}

// Selected returns a copy of the current selection, or nil.
func (s *FileSelector) Selected() *types.SelectedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	copied := *s.selected
	return &copied
}

func (s *FileSelector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}
