package docquery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/ingest"
	"github.com/poiesic/docquery/query"
	"github.com/poiesic/docquery/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(
		filepath.Join(t.TempDir(), "index"),
		WithSessionFactory(mock.NewSessionFactory()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewService_RequiresIndexPath(t *testing.T) {
	_, err := NewService("", WithSessionFactory(mock.NewSessionFactory()))
	assert.Error(t, err)
}

func TestService_ProvidersListing(t *testing.T) {
	svc := newTestService(t)

	generation := svc.Providers(ai.KindGeneration)
	require.NotEmpty(t, generation)
	for i := 1; i < len(generation); i++ {
		assert.Less(t, generation[i-1].Priority, generation[i].Priority)
	}

	embedding := svc.Providers(ai.KindEmbedding)
	assert.NotEmpty(t, embedding)
}

func TestService_AskBeforeIngest(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Ask(context.Background(), &query.Request{Question: "anything yet?"})
	assert.ErrorIs(t, err, query.ErrIndexUnavailable)
}

func TestService_IngestUnparseablePDF(t *testing.T) {
	svc := newTestService(t)

	// Valid magic but no readable PDF structure, and no OCR configured:
	// the run reports nothing extractable and records a diagnostic.
	result, err := svc.Ingest(context.Background(), &core.Document{
		SourceID: "garbage.pdf",
		Data:     []byte("%PDF-1.4 not actually a pdf"),
	})
	require.ErrorIs(t, err, ingest.ErrNoExtractableText)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Processed)
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, "garbage.pdf", result.Diagnostics[0].SourceID)

	state, err := svc.IndexState(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, storage.IndexPopulated, state)
}

func TestService_RejectsNonPDF(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Ingest(context.Background(), &core.Document{
		SourceID: "notes.txt",
		Data:     []byte("plain text"),
	})
	require.ErrorIs(t, err, ingest.ErrNoExtractableText)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Processed)
	require.NotEmpty(t, result.Diagnostics)
}
