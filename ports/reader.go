package ports

import (
	"io"

	"goord/domain/matrix"
)

// DatasetReaderPort parses uploaded files into validated domain
// structures. Implementations decide format from the filename
// (.tsv/.csv for matrices, .csv/.xlsx for metadata).
type DatasetReaderPort interface {
	// ReadDistanceMatrix parses a square symmetric distance matrix.
	// First row and first column are sample identifiers.
	ReadDistanceMatrix(r io.Reader, filename string) (*matrix.DistanceMatrix, error)

	// ReadMetadata parses a metadata table. The first column becomes
	// SampleID regardless of its header.
	ReadMetadata(r io.Reader, filename string) (*matrix.Metadata, error)
}
