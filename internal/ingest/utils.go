package ingest

import (
	"path/filepath"

	"github.com/joseph-ayodele/invoice-gate/constants"
)

// AllowedExt checks if a file extension is in the allowed set (pdf/jpg/jpeg/png).
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

func allowedPath(path string) bool {
	return AllowedExt(filepath.Ext(path))
}
