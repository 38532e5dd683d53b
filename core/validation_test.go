package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *Document {
	return &Document{
		SourceID: "report.pdf",
		Data:     []byte("%PDF-1.7 fake body"),
	}
}

func TestValidateDocument_Valid(t *testing.T) {
	require.NoError(t, ValidateDocument(validDocument()))
}

func TestValidateDocument_Nil(t *testing.T) {
	err := ValidateDocument(nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestValidateDocument_EmptySourceID(t *testing.T) {
	doc := validDocument()
	doc.SourceID = ""
	err := ValidateDocument(doc)
	assert.ErrorIs(t, err, ErrEmptySourceID)
}

func TestValidateDocument_EmptyData(t *testing.T) {
	doc := validDocument()
	doc.Data = nil
	err := ValidateDocument(doc)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestValidateDocument_WrongFileType(t *testing.T) {
	doc := validDocument()
	doc.Data = []byte("GIF89a not a pdf")
	err := ValidateDocument(doc)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestValidateChunk_Valid(t *testing.T) {
	chunk := &Chunk{SourceID: "report.pdf", Text: "content", ChunkIndex: 0}
	require.NoError(t, ValidateChunk(chunk))
}

func TestValidateChunk_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{"nil chunk", nil, ErrInvalidChunk},
		{"empty source", &Chunk{Text: "x"}, ErrEmptySourceID},
		{"empty text", &Chunk{SourceID: "a.pdf"}, ErrEmptyChunkText},
		{"negative index", &Chunk{SourceID: "a.pdf", Text: "x", ChunkIndex: -1}, ErrInvalidChunkIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
