package artifacts

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testHost = "https://artifacts.test"
	testBase = testHost + "/books/resolve/main"

	vectorizerBody = `{"vocabulary":{"dragon":0,"magic":1,"space":2},"idf":[1.5,1.2,1.9],"norm":"l2"}`
	featuresBody   = `{"shape":[2,3],"indptr":[0,2,3],"indices":[0,1,2],"data":[0.78,0.62,1.0]}`
	similarityBody = `[[1.0,0.0],[0.0,1.0]]`
	metadataBody   = "title,authors,description,thumbnail,published_year,average_rating,categories,num_pages\n" +
		"Dragon Magic,Ann Writer,A dragon learns magic,http://img/1.jpg,1999,4.2,\"['Fantasy', 'Young Adult']\",310\n" +
		"Star Drift,,,,,not-a-number,Science Fiction,\n"
)

type artifactRepositorySuite struct {
	suite.Suite
	names Names
}

func TestArtifactRepositorySuite(t *testing.T) {
	suite.Run(t, new(artifactRepositorySuite))
}

func (s *artifactRepositorySuite) SetupTest() {
	s.names = Names{
		Vectorizer: "tfidf.json",
		Features:   "tfidf_matrix.json",
		Similarity: "cosine_sim.json",
		Metadata:   "processed_books.csv",
	}
}

func (s *artifactRepositorySuite) TearDownTest() {
	gock.Off()
}

func (s *artifactRepositorySuite) mock(name, body string) {
	gock.New(testHost).Get("/books/resolve/main/" + name).Reply(200).BodyString(body)
}

func (s *artifactRepositorySuite) Test_LoadCorpus_Success() {
	s.mock(s.names.Vectorizer, vectorizerBody)
	s.mock(s.names.Features, featuresBody)
	s.mock(s.names.Similarity, similarityBody)
	s.mock(s.names.Metadata, metadataBody)

	repo := NewRepository(NewFetcher(testBase), s.names, 0)
	store, err := repo.LoadCorpus(context.Background())

	require.NoError(s.T(), err)
	assert.True(s.T(), gock.IsDone())
	assert.Equal(s.T(), corpus.Stats{Records: 2, Features: 3, NonZero: 3, SimilarityLoaded: true}, store.Stats())

	first := store.Record(0)
	assert.Equal(s.T(), "Dragon Magic", first.DisplayTitle())
	assert.Equal(s.T(), []string{"Fantasy", "Young Adult"}, first.DisplayCategories())
	assert.Equal(s.T(), 1999.0, first.DisplayPublishedYear())

	second := store.Record(1)
	assert.Equal(s.T(), corpus.UnknownAuthors, second.DisplayAuthors())
	assert.Equal(s.T(), corpus.NotAvailable, second.DisplayAverageRating())
	assert.Equal(s.T(), []string{"Science Fiction"}, second.DisplayCategories())
}

func (s *artifactRepositorySuite) Test_LoadCorpus_SimilarityDisabled() {
	s.names.Similarity = SimilarityDisabled
	s.mock(s.names.Vectorizer, vectorizerBody)
	s.mock(s.names.Features, featuresBody)
	s.mock(s.names.Metadata, metadataBody)

	store, err := NewRepository(NewFetcher(testBase), s.names, 0).LoadCorpus(context.Background())

	require.NoError(s.T(), err)
	assert.Nil(s.T(), store.Similarity())
	assert.True(s.T(), gock.IsDone())
}

func (s *artifactRepositorySuite) Test_LoadCorpus_MissingArtifact() {
	s.mock(s.names.Vectorizer, vectorizerBody)
	s.mock(s.names.Features, featuresBody)
	s.mock(s.names.Similarity, similarityBody)
	gock.New(testHost).Get("/books/resolve/main/" + s.names.Metadata).Reply(404)

	store, err := NewRepository(NewFetcher(testBase), s.names, 0).LoadCorpus(context.Background())

	assert.Nil(s.T(), store)
	assert.ErrorContains(s.T(), err, "unexpected status 404")
}

func (s *artifactRepositorySuite) Test_LoadCorpus_NamesUndecodableArtifact() {
	s.names.Similarity = SimilarityDisabled

	s.Run("vectorizer", func() {
		defer gock.Off()
		s.mock(s.names.Vectorizer, `{"vocabulary":{}}`)
		s.mock(s.names.Features, featuresBody)
		s.mock(s.names.Metadata, metadataBody)

		_, err := NewRepository(NewFetcher(testBase), s.names, 0).LoadCorpus(context.Background())

		assert.ErrorIs(s.T(), err, ErrInvalidArtifact)
		assert.ErrorContains(s.T(), err, "load corpus artifacts: tfidf.json: ")
	})

	s.Run("metadata", func() {
		defer gock.Off()
		s.mock(s.names.Vectorizer, vectorizerBody)
		s.mock(s.names.Features, featuresBody)
		s.mock(s.names.Metadata, "name,authors\nx,y\n")

		_, err := NewRepository(NewFetcher(testBase), s.names, 0).LoadCorpus(context.Background())

		assert.ErrorIs(s.T(), err, ErrInvalidArtifact)
		assert.ErrorContains(s.T(), err, "load corpus artifacts: processed_books.csv: ")
	})
}

func (s *artifactRepositorySuite) Test_LoadCorpus_RowMismatch() {
	s.names.Similarity = SimilarityDisabled
	s.mock(s.names.Vectorizer, vectorizerBody)
	s.mock(s.names.Features, `{"shape":[1,3],"indptr":[0,1],"indices":[0],"data":[1.0]}`)
	s.mock(s.names.Metadata, metadataBody)

	_, err := NewRepository(NewFetcher(testBase), s.names, 0).LoadCorpus(context.Background())

	assert.ErrorIs(s.T(), err, corpus.ErrRowMismatch)
}

func (s *artifactRepositorySuite) Test_Fetch_ReportsProgress() {
	gock.New(testHost).Get("/books/resolve/main/blob").Reply(200).BodyString("0123456789")

	var seen strings.Builder
	var announced string
	f := NewFetcher(testBase + "/").WithProgress(func(name string, size int64) io.Writer {
		announced = name
		return &seen
	})

	data, err := f.Fetch(context.Background(), "blob")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "0123456789", string(data))
	assert.Equal(s.T(), "0123456789", seen.String())
	assert.Equal(s.T(), "blob", announced)
}

func TestDecodeVectorizer(t *testing.T) {
	v, err := DecodeVectorizer([]byte(vectorizerBody))
	require.NoError(t, err)
	assert.Equal(t, 3, v.Features())

	invalid := []string{
		`{}`,
		`{"vocabulary":{}}`,
		`{"vocabulary":{"a":0},"idf":[1],"norm":"max"}`,
		`{"vocabulary":{"a":-1}}`,
		`{"vocabulary":{"a":0,"b":1},"idf":[1]}`,
		`not json`,
	}
	for _, body := range invalid {
		_, err := DecodeVectorizer([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidArtifact, body)
	}
}

func TestDecodeMatrix(t *testing.T) {
	t.Run("csr", func(t *testing.T) {
		m, err := DecodeMatrix([]byte(featuresBody))
		require.NoError(t, err)
		assert.Equal(t, 2, m.Rows())
		assert.Equal(t, 3, m.Cols())
		assert.InDelta(t, 0.62, m.At(0, 1), 1e-9)
	})

	t.Run("dense", func(t *testing.T) {
		m, err := DecodeMatrix([]byte(`[[0, 0.5], [0.25, 0]]`))
		require.NoError(t, err)
		assert.Equal(t, 2, m.NNZ())
		assert.InDelta(t, 0.25, m.At(1, 0), 1e-9)
		assert.Zero(t, m.At(0, 0))
	})

	t.Run("ragged dense", func(t *testing.T) {
		_, err := DecodeMatrix([]byte(`[[1, 2], [3]]`))
		assert.ErrorIs(t, err, ErrInvalidArtifact)
	})

	t.Run("bad shape", func(t *testing.T) {
		_, err := DecodeMatrix([]byte(`{"shape":[2],"indptr":[0],"indices":[],"data":[]}`))
		assert.ErrorIs(t, err, ErrInvalidArtifact)
	})
}

func TestDecodeMetadata_RequiresTitle(t *testing.T) {
	_, err := DecodeMetadata(strings.NewReader("name,authors\nx,y\n"))
	assert.ErrorIs(t, err, ErrInvalidArtifact)
}

func TestDecodeMetadata_KeepsNonEmptyCells(t *testing.T) {
	records, err := DecodeMetadata(strings.NewReader("title,authors,description\nBlank,,\"   \"\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Nil(t, rec.Authors)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "   ", *rec.Description)
	assert.Equal(t, "   ", rec.DisplayDescription())
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"['Fiction']", []string{"Fiction"}},
		{`['Juvenile Fiction', "Children's stories"]`, []string{"Juvenile Fiction", "Children's stories"}},
		{"History, Biography", []string{"History", "Biography"}},
		{"Poetry", []string{"Poetry"}},
		{"[]", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCategories(tt.in), tt.in)
	}
}
