package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// ScanDirectory lists the invoice files directly inside dir (no recursion),
// in directory-listing order. Subdirectories and other extensions are skipped.
func ScanDirectory(dir string) ([]entity.Document, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: directory is required", common.ErrInvalidInput)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", common.ErrInvalidInput, dir)
		}
		return nil, common.WrapError(err, "read dir")
	}

	docs := make([]entity.Document, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !allowedPath(e.Name()) {
			continue
		}
		docs = append(docs, entity.NewDocument(filepath.Join(dir, e.Name())))
	}
	return docs, nil
}
