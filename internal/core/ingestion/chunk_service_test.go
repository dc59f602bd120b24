package ingestion_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/research-genie/internal/core/ingestion"
	"github.com/jinford/research-genie/internal/core/ingestion/chunk"
)

type stubSource struct {
	docs []*ingestion.Document
	err  error
}

func (s *stubSource) ListDocuments(ctx context.Context) ([]*ingestion.Document, error) {
	return s.docs, s.err
}

type stubSink struct {
	written []*ingestion.ChunkedDocument
	failFor string
}

func (s *stubSink) WriteChunks(ctx context.Context, doc *ingestion.ChunkedDocument) error {
	if s.failFor != "" && doc.Filename == s.failFor {
		return errors.New("disk full")
	}
	s.written = append(s.written, doc)
	return nil
}

// sentenceChunker は文ごとに1チャンクを返すテスト用チャンカー
type sentenceChunker struct{}

func (sentenceChunker) Chunk(text string) []*chunk.Chunk {
	var chunks []*chunk.Chunk
	for _, s := range chunk.SplitSentences(text) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		chunks = append(chunks, &chunk.Chunk{ChunkID: len(chunks) + 1, Text: s})
	}
	return chunks
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDocument_DocumentID(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "attention.json", want: "attention"},
		{filename: "paper.v2.pdf", want: "paper.v2"},
		{filename: "noext", want: "noext"},
		{filename: "dir/sub/bert.txt", want: "bert"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			doc := ingestion.Document{Filename: tt.filename}
			assert.Equal(t, tt.want, doc.DocumentID())

			chunked := ingestion.ChunkedDocument{Filename: tt.filename}
			assert.Equal(t, tt.want, chunked.DocumentID())
		})
	}
}

func TestChunkService_ChunkDocument(t *testing.T) {
	svc := ingestion.NewChunkService(&stubSource{}, &stubSink{}, sentenceChunker{}, ingestion.WithChunkLogger(discardLogger()))

	chunked, err := svc.ChunkDocument(&ingestion.Document{Filename: "paper.pdf", Text: "One. Two."})
	require.NoError(t, err)
	assert.Equal(t, "paper.json", chunked.Filename)
	assert.Equal(t, []ingestion.ChunkRecord{
		{ChunkID: 1, Text: "One. "},
		{ChunkID: 2, Text: "Two."},
	}, chunked.Chunks)

	_, err = svc.ChunkDocument(&ingestion.Document{Filename: "empty.pdf", Text: "  \n "})
	assert.ErrorIs(t, err, ingestion.ErrNoExtractableText)
}

func TestChunkService_ChunkAll(t *testing.T) {
	source := &stubSource{docs: []*ingestion.Document{
		{Filename: "a.json", Text: "Alpha one. Alpha two."},
		{Filename: "blank.json", Text: ""},
		{Filename: "b.json", Text: "Beta."},
		{Filename: "c.json", Text: "Gamma."},
	}}
	sink := &stubSink{failFor: "c.json"}
	svc := ingestion.NewChunkService(source, sink, sentenceChunker{}, ingestion.WithChunkLogger(discardLogger()))

	result, err := svc.ChunkAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedDocuments)
	assert.Equal(t, 1, result.SkippedDocuments)
	assert.Equal(t, 1, result.FailedDocuments)
	assert.Equal(t, 3, result.TotalChunks)

	require.Len(t, sink.written, 2)
	assert.Equal(t, "a.json", sink.written[0].Filename)
	assert.Equal(t, "b.json", sink.written[1].Filename)
}

func TestChunkService_ChunkAll_SourceError(t *testing.T) {
	svc := ingestion.NewChunkService(&stubSource{err: errors.New("permission denied")}, &stubSink{}, sentenceChunker{})

	result, err := svc.ChunkAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to list documents")
}

func TestChunkService_ChunkAll_Cancelled(t *testing.T) {
	source := &stubSource{docs: []*ingestion.Document{{Filename: "a.json", Text: "A."}}}
	svc := ingestion.NewChunkService(source, &stubSink{}, sentenceChunker{}, ingestion.WithChunkLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ChunkAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunkService_ChunkAll_DuplicateDocumentID(t *testing.T) {
	source := &stubSource{docs: []*ingestion.Document{
		{Filename: "paper.json", Text: "From JSON. Second sentence."},
		{Filename: "paper.txt", Text: "From text."},
		{Filename: "other.txt", Text: "Other."},
	}}
	sink := &stubSink{}
	svc := ingestion.NewChunkService(source, sink, sentenceChunker{}, ingestion.WithChunkLogger(discardLogger()))

	result, err := svc.ChunkAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedDocuments)
	assert.Equal(t, 1, result.DuplicateDocuments)
	assert.Equal(t, 3, result.TotalChunks)

	require.Len(t, sink.written, 2)
	assert.Equal(t, "paper.json", sink.written[0].Filename)
	assert.Equal(t, "From JSON. ", sink.written[0].Chunks[0].Text)
	assert.Equal(t, "other.json", sink.written[1].Filename)
}

func TestChunkService_ChunkAll_NilDocument(t *testing.T) {
	source := &stubSource{docs: []*ingestion.Document{
		nil,
		{Filename: "a.json", Text: "Alpha."},
	}}
	sink := &stubSink{}
	svc := ingestion.NewChunkService(source, sink, sentenceChunker{}, ingestion.WithChunkLogger(discardLogger()))

	var result *ingestion.ChunkResult
	require.NotPanics(t, func() {
		var err error
		result, err = svc.ChunkAll(context.Background())
		require.NoError(t, err)
	})

	assert.Equal(t, 1, result.SkippedDocuments)
	assert.Equal(t, 1, result.ProcessedDocuments)
	require.Len(t, sink.written, 1)
}
