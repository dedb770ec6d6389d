package indexing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/studeo/internal/common"
	"github.com/ternarybob/studeo/internal/interfaces"
	"github.com/ternarybob/studeo/internal/models"
	"github.com/ternarybob/studeo/internal/services/chunker"
	"github.com/ternarybob/studeo/internal/storage/badger"
)

// fakeEmbedder implements interfaces.EmbeddingService with deterministic
// vectors derived from text length
type fakeEmbedder struct {
	embedFunc func(texts []string) ([][]float32, error)
	calls     int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.embedFunc != nil {
		return f.embedFunc(texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := f.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }
func (f *fakeEmbedder) Dimension() int    { return 2 }

func newTestService(t *testing.T, embedder interfaces.EmbeddingService) (*Service, interfaces.StorageManager) {
	t.Helper()

	logger := common.GetLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	textChunker, err := chunker.New(chunker.Config{MaxChars: 50, OverlapChars: 10, MinChunkChars: 10})
	require.NoError(t, err)

	ragConfig := common.NewDefaultConfig().RAG
	svc := NewService(storage, embedder, textChunker, &ragConfig, logger)
	return svc, storage
}

func saveMaterial(t *testing.T, storage interfaces.StorageManager, material *models.Material) *models.Material {
	t.Helper()
	require.NoError(t, storage.MaterialStorage().SaveMaterial(material))
	return material
}

func TestIndexMaterial(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, storage := newTestService(t, embedder)

	material := saveMaterial(t, storage, &models.Material{
		OwnerID:      "user-1",
		OriginalName: "photosynthesis.txt",
		ClassName:    "Biology",
		Content:      "Photosynthesis converts light into energy.\n\nChlorophyll absorbs light.",
	})

	result, err := svc.IndexMaterial(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunkCount)

	got, err := storage.MaterialStorage().GetMaterial(material.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RagStatusReady, got.RagStatus)
	assert.False(t, got.RagUpdatedAt.IsZero())

	chunks, err := storage.ChunkStorage().GetChunksByMaterial(material.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	for i, chunk := range chunks {
		assert.Equal(t, "user-1", chunk.OwnerID)
		assert.Equal(t, material.ID, chunk.MaterialID)
		assert.Equal(t, "Biology", chunk.ClassName)
		assert.Equal(t, "photosynthesis.txt", chunk.SourceFile)
		assert.Equal(t, i, chunk.ChunkIndex())
		assert.NotEmpty(t, chunk.Text)
		assert.Len(t, chunk.Embedding, 2)
	}
	assert.Contains(t, chunks[1].Text, "Chlorophyll absorbs light.")
}

func TestIndexMaterial_EmptyContentFails(t *testing.T) {
	svc, storage := newTestService(t, &fakeEmbedder{})

	material := saveMaterial(t, storage, &models.Material{
		OwnerID:      "user-1",
		OriginalName: "empty.txt",
		Content:      "   \n\n  ",
	})

	_, err := svc.IndexMaterial(context.Background(), material.ID)
	require.Error(t, err)

	got, err := storage.MaterialStorage().GetMaterial(material.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RagStatusFailed, got.RagStatus)
}

func TestIndexMaterial_ZeroChunksFails(t *testing.T) {
	svc, storage := newTestService(t, &fakeEmbedder{})

	// Below the chunker's minimum, so the only buffer is dropped
	material := saveMaterial(t, storage, &models.Material{
		OwnerID: "user-1",
		Content: "hi",
	})

	_, err := svc.IndexMaterial(context.Background(), material.ID)
	require.Error(t, err)

	got, _ := storage.MaterialStorage().GetMaterial(material.ID)
	assert.Equal(t, models.RagStatusFailed, got.RagStatus)
}

func TestIndexMaterial_EmbeddingFailureFails(t *testing.T) {
	embedder := &fakeEmbedder{
		embedFunc: func(texts []string) ([][]float32, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	svc, storage := newTestService(t, embedder)

	material := saveMaterial(t, storage, &models.Material{
		OwnerID: "user-1",
		Content: "A paragraph long enough to produce a chunk for embedding.",
	})

	_, err := svc.IndexMaterial(context.Background(), material.ID)
	require.Error(t, err)

	got, _ := storage.MaterialStorage().GetMaterial(material.ID)
	assert.Equal(t, models.RagStatusFailed, got.RagStatus)

	// No chunks were written
	count, err := storage.ChunkStorage().CountByMaterial(material.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndexMaterial_ReindexReplaces(t *testing.T) {
	svc, storage := newTestService(t, &fakeEmbedder{})

	material := saveMaterial(t, storage, &models.Material{
		OwnerID: "user-1",
		Content: "Photosynthesis converts light into energy.\n\nChlorophyll absorbs light.",
	})

	result, err := svc.IndexMaterial(context.Background(), material.ID)
	require.NoError(t, err)
	require.Equal(t, 2, result.ChunkCount)

	// Shrink the content, reindex, and verify the corpus holds only the
	// second run's chunks
	material.Content = "A single short paragraph about light."
	require.NoError(t, storage.MaterialStorage().UpdateMaterial(material))

	result, err = svc.IndexMaterial(context.Background(), material.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.ChunkCount)

	count, err := storage.ChunkStorage().CountByMaterial(material.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndexMaterial_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmbedder{})

	_, err := svc.IndexMaterial(context.Background(), "mat_missing")
	assert.Error(t, err)
}

func TestIndexMaterialInBackground(t *testing.T) {
	svc, storage := newTestService(t, &fakeEmbedder{})

	material := saveMaterial(t, storage, &models.Material{
		OwnerID: "user-1",
		Content: "Photosynthesis converts light into energy.\n\nChlorophyll absorbs light.",
	})

	svc.IndexMaterialInBackground(material.ID)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := storage.MaterialStorage().GetMaterial(material.ID)
		require.NoError(t, err)
		if got.RagStatus == models.RagStatusReady {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Material never reached ready status")
}

func TestSweepStuck(t *testing.T) {
	svc, storage := newTestService(t, &fakeEmbedder{})

	stale := saveMaterial(t, storage, &models.Material{
		OwnerID:      "user-1",
		OriginalName: "stale.txt",
		RagStatus:    models.RagStatusIndexing,
		RagUpdatedAt: time.Now().Add(-2 * time.Hour),
	})
	fresh := saveMaterial(t, storage, &models.Material{
		OwnerID:      "user-1",
		OriginalName: "fresh.txt",
		RagStatus:    models.RagStatusIndexing,
		RagUpdatedAt: time.Now(),
	})

	svc.sweepStuck()

	gotStale, _ := storage.MaterialStorage().GetMaterial(stale.ID)
	assert.Equal(t, models.RagStatusFailed, gotStale.RagStatus)

	gotFresh, _ := storage.MaterialStorage().GetMaterial(fresh.ID)
	assert.Equal(t, models.RagStatusIndexing, gotFresh.RagStatus)
}
