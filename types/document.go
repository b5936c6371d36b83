package types

type DocumentChunk struct {
	Content  string           // The actual text content
	Page     int              // Page number where the chunk is from, 0 for plain text
	Metadata DocumentMetadata // Associated metadata for the chunk
}

// DocumentMetadata contains metadata information for chunks
type DocumentMetadata struct {
	Title      string // File name of the source document
	Source     string // Source file path
	PageNum    int
	TotalPages int
	ChunkIndex int
}

// DocumentServiceConfig contains configuration options for document processing
type DocumentServiceConfig struct {
	MaxChunkSize int // Maximum size for text chunks
	OverlapSize  int // Size of overlap between chunks
}
