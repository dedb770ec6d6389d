package common

import (
	"github.com/google/uuid"
)

// NewMaterialID generates a unique learning material ID with the "mat_" prefix
// Format: mat_<uuid>
func NewMaterialID() string {
	return "mat_" + uuid.New().String()
}

// NewChunkID generates a unique chunk ID with the "chk_" prefix
// Format: chk_<uuid>
func NewChunkID() string {
	return "chk_" + uuid.New().String()
}
