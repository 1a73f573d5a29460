package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawchat-backend/chunker"
	"lawchat-backend/models"
)

// fakeCorpus is an in-memory storage.Store.
type fakeCorpus struct {
	files map[string]string
}

func (c *fakeCorpus) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for name := range c.files {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (c *fakeCorpus) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(c.files[name])), nil
}

func (c *fakeCorpus) Put(ctx context.Context, name string, data io.Reader) error {
	text, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	c.files[name] = string(text)
	return nil
}

func (c *fakeCorpus) Delete(ctx context.Context, name string) error {
	delete(c.files, name)
	return nil
}

// captureWriter records what the ingestor indexes.
type captureWriter struct {
	docs   []*models.Document
	chunks [][]models.Chunk
}

func (w *captureWriter) ReplaceDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	w.docs = append(w.docs, doc)
	w.chunks = append(w.chunks, chunks)
	return nil
}

func TestLawTitleFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"민법(법률 제471호)(20210101).txt", "민법"},
		{"근로기준법(20200101).txt", "근로기준법"},
		{"laws/상법(20190101).txt", "상법"},
		{"형법.txt", "형법"},
		{"주택임대차보호법 (20230601).txt", "주택임대차보호법"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LawTitleFromFilename(tt.name))
	}
}

func TestRevisionDateFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"근로기준법(20200101).txt", "20200101"},
		{"laws/상법(20190101).txt", "20190101"},
		{"민법(법률 제471호)(20210101).txt", "20210101"},
		{"주택임대차보호법 ( 20230601 ).txt", "20230601"},
		{"형법.txt", ""},
		{"민법(.txt", ""},
	}
	for _, tt := range tests {
		got := RevisionDateFromFilename(tt.name)
		if tt.want == "" {
			assert.Nil(t, got, tt.name)
			continue
		}
		require.NotNil(t, got, tt.name)
		assert.Equal(t, tt.want, *got)
	}
}

func TestRebuildIndexFullReplace(t *testing.T) {
	corpus := &fakeCorpus{files: map[string]string{
		"민법(20210101).txt":  "제1조 (목적) 이 법은 민사에 관한 기본법이다.",
		"근로기준법(20200101).txt": "제1조 (목적) 이 법은 근로조건의 기준을 정한다.",
		"notes.md":          "ignored",
	}}
	writer := &captureWriter{}

	ingestor := NewIngestor(corpus, chunker.New(nil, testConfig()), stubEmbedder(), writer, testConfig())
	count, err := ingestor.RebuildIndex(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, writer.docs, 2)

	titles := []string{writer.docs[0].LawTitle, writer.docs[1].LawTitle}
	sort.Strings(titles)
	assert.Equal(t, []string{"근로기준법", "민법"}, titles)

	for _, chunks := range writer.chunks {
		require.Len(t, chunks, 1)
		assert.NotEmpty(t, chunks[0].Embedding, "every indexed chunk carries its embedding")
		assert.Equal(t, models.SplitStructural, chunks[0].Method)
	}
}

func TestRebuildIndexIncrementalMode(t *testing.T) {
	corpus := &fakeCorpus{files: map[string]string{
		"민법(20210101).txt": "제1조 (목적) 이 법은 민사에 관한 기본법이다.",
		"상법(20190101).txt": "제1조 (목적) 이 법은 상사에 관하여 적용한다.",
	}}
	writer := &captureWriter{}

	ingestor := NewIngestor(corpus, chunker.New(nil, testConfig()), stubEmbedder(), writer, testConfig())
	count, err := ingestor.RebuildIndex(context.Background(), "민법")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, writer.docs, 1)
	assert.Equal(t, "민법", writer.docs[0].LawTitle)
	require.NotNil(t, writer.docs[0].RevisionDate)
	assert.Equal(t, "20210101", *writer.docs[0].RevisionDate)

	_, err = ingestor.RebuildIndex(context.Background(), "없는법")
	assert.Error(t, err, "an unknown law in incremental mode is reported")
}
