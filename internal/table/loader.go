package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how a sheet is turned into a Table.
type Options struct {
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
	// MaxRows limits data rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, chosen from the file extension.
	Delimiter rune
}

// Loader parses spreadsheet bytes into a Table.
type Loader interface {
	CanLoad(filename string) bool
	Load(name string, data []byte, opt Options) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// LoadError reports a file that could not be turned into a Table.
type LoadError struct {
	Name string
	Msg  string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Name, e.Msg, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Name, e.Msg)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrUnsupported indicates no loader accepts the file name.
var ErrUnsupported = errors.New("unsupported spreadsheet format")

// Load selects a loader by file name and parses data.
func Load(name string, data []byte, opt Options) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(name) {
			t, err := l.Load(filepath.Base(name), data, opt)
			if err != nil {
				var le *LoadError
				if errors.As(err, &le) {
					return nil, err
				}
				return nil, &LoadError{Name: filepath.Base(name), Msg: "parse failed", Err: err}
			}
			return t, nil
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	return nil, &LoadError{Name: filepath.Base(name), Msg: fmt.Sprintf("extension %q not supported (use .xlsx, .csv or .tsv)", ext), Err: ErrUnsupported}
}

// LoadFile reads path from disk and loads it.
func LoadFile(path string, opt Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Name: filepath.Base(path), Msg: "read file", Err: err}
	}
	return Load(path, data, opt)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}
