package entity

import (
	"path/filepath"

	"github.com/joseph-ayodele/invoice-gate/constants"
)

// Document is one discovered invoice file. It is never mutated by the pipeline.
type Document struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind string `json:"kind"` // constants.PDF | constants.IMAGE
}

// NewDocument builds a Document for path, inferring Kind from the extension.
func NewDocument(path string) Document {
	return Document{
		Name: filepath.Base(path),
		Path: path,
		Kind: constants.MapExtToFormat(filepath.Ext(path)),
	}
}
