package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/corpus/corpustest"
	"github.com/bookshelf-recommend-api/internal/models"
	"github.com/bookshelf-recommend-api/internal/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type normalizerFunc func(ctx context.Context, text string) translation.Result

func (f normalizerFunc) Normalize(ctx context.Context, text string) translation.Result {
	return f(ctx, text)
}

func passthrough(_ context.Context, text string) translation.Result {
	return translation.Result{Text: text, Outcome: translation.OutcomeFellBack, Err: translation.ErrDisabled}
}

type recommendServiceSuite struct {
	suite.Suite

	store  *corpus.Store
	scorer *Scorer
}

func TestRecommendServiceSuite(t *testing.T) {
	suite.Run(t, new(recommendServiceSuite))
}

func (s *recommendServiceSuite) SetupSuite() {
	s.store = corpustest.NewStore(s.T(), corpustest.Catalog)

	scorer, err := NewScorer(2, 4)
	require.NoError(s.T(), err)
	s.scorer = scorer
}

func (s *recommendServiceSuite) TearDownSuite() {
	s.scorer.Release()
}

func (s *recommendServiceSuite) service(n QueryNormalizer) *RecommendService {
	return NewRecommendService(s.store, n, s.scorer, DefaultPolicy())
}

func (s *recommendServiceSuite) Test_Recommend_Success() {
	env, err := s.service(normalizerFunc(passthrough)).Recommend(context.Background(), "  dragon adventure ")

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusSuccess, env.Status)
	assert.Equal(s.T(), "Top results for 'dragon adventure'", env.Message)
	require.NotEmpty(s.T(), env.Results)

	top := env.Results[0]
	assert.Equal(s.T(), "The Hobbit", top.Title)
	assert.Equal(s.T(), "J.R.R. Tolkien", top.Authors)
	assert.Equal(s.T(), 1937.0, top.PublishedYear)
	assert.Equal(s.T(), 310.0, top.NumPages)
	require.NotNil(s.T(), top.Categories)
	assert.Equal(s.T(), []string{"Fantasy"}, *top.Categories)
	assert.Greater(s.T(), top.Score, 0.1)

	for i := 1; i < len(env.Results); i++ {
		assert.GreaterOrEqual(s.T(), env.Results[i-1].Score, env.Results[i].Score)
	}
}

func (s *recommendServiceSuite) Test_Recommend_UsesTranslatedQuery() {
	translate := normalizerFunc(func(_ context.Context, text string) translation.Result {
		assert.Equal(s.T(), "gurun planet", text)
		return translation.Result{Text: "desert planet", Outcome: translation.OutcomeTranslated}
	})

	env, err := s.service(translate).Recommend(context.Background(), "gurun planet")

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Top results for 'desert planet'", env.Message)
	assert.Equal(s.T(), "Dune", env.Results[0].Title)
}

func (s *recommendServiceSuite) Test_Recommend_Fallback() {
	svc := s.service(normalizerFunc(passthrough)).WithPerm(func(n int) []int {
		return []int{8, 0, 1, 2, 3, 4, 5, 6, 7}
	})

	env, err := svc.Recommend(context.Background(), "xylophone")

	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusFallback, env.Status)
	assert.Equal(s.T(), "No match found for 'xylophone', Try another book.", env.Message)
	require.Len(s.T(), env.Results, 5)

	untitled := env.Results[0]
	assert.Equal(s.T(), "Untitled Notes", untitled.Title)
	assert.Equal(s.T(), corpus.UnknownAuthors, untitled.Authors)
	assert.Equal(s.T(), corpus.MissingDescription, untitled.Description)
	assert.Equal(s.T(), corpus.MissingThumbnail, untitled.Thumbnail)
	assert.Equal(s.T(), corpus.NotAvailable, untitled.AverageRating)
	for _, r := range env.Results {
		assert.Zero(s.T(), r.Score)
		assert.Nil(s.T(), r.Categories)
		assert.Nil(s.T(), r.NumPages)
	}
}

func (s *recommendServiceSuite) Test_Recommend_Idempotent() {
	svc := s.service(normalizerFunc(passthrough))

	first, err := svc.Recommend(context.Background(), "dragon adventure")
	require.NoError(s.T(), err)
	second, err := svc.Recommend(context.Background(), "dragon adventure")
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.StatusSuccess, first.Status)
	assert.Equal(s.T(), first, second)
}

func (s *recommendServiceSuite) Test_Recommend_EmptyQuery() {
	called := false
	svc := s.service(normalizerFunc(func(ctx context.Context, text string) translation.Result {
		called = true
		return passthrough(ctx, text)
	}))

	_, err := svc.Recommend(context.Background(), " \t ")

	assert.ErrorIs(s.T(), err, ErrEmptyQuery)
	assert.False(s.T(), called)
}

func (s *recommendServiceSuite) Test_Recommend_ScoringFailure() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.service(normalizerFunc(passthrough)).Recommend(ctx, "hobbit")

	assert.True(s.T(), errors.Is(err, context.Canceled))
}

func (s *recommendServiceSuite) Test_Defaults() {
	svc := s.service(normalizerFunc(passthrough))

	env := svc.Defaults(3)
	assert.Equal(s.T(), "Featured books", env.Message)
	assert.Equal(s.T(), models.StatusSuccess, env.Status)
	titles := make([]string, len(env.Results))
	for i, r := range env.Results {
		titles[i] = r.Title
	}
	assert.Equal(s.T(), []string{"The Hobbit", "Pride and Prejudice", "The Hobbit"}, titles)

	all := svc.Defaults(0)
	require.Len(s.T(), all.Results, s.store.Len())
	assert.Equal(s.T(), corpus.NotAvailable, all.Results[len(all.Results)-1].AverageRating)
	assert.Equal(s.T(), "Untitled Notes", all.Results[len(all.Results)-1].Title)
}

func (s *recommendServiceSuite) Test_Similar() {
	env, err := s.service(normalizerFunc(passthrough)).Similar(context.Background(), 0, 3)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Books similar to 'The Hobbit'", env.Message)
	require.NotEmpty(s.T(), env.Results)
	assert.LessOrEqual(s.T(), len(env.Results), 3)
	assert.Equal(s.T(), "The Hobbit", env.Results[0].Title)
	assert.Equal(s.T(), 4.3, env.Results[0].AverageRating)
}

func (s *recommendServiceSuite) Test_Similar_NotFound() {
	svc := s.service(normalizerFunc(passthrough))

	_, err := svc.Similar(context.Background(), -1, 5)
	assert.ErrorIs(s.T(), err, ErrBookNotFound)

	_, err = svc.Similar(context.Background(), s.store.Len(), 5)
	assert.ErrorIs(s.T(), err, ErrBookNotFound)
}

func TestRecommend_ConcurrentRequests(t *testing.T) {
	store := corpustest.NewStore(t, corpustest.Catalog)
	scorer, err := NewScorer(4, 2)
	require.NoError(t, err)
	defer scorer.Release()

	svc := NewRecommendService(store, normalizerFunc(passthrough), scorer, DefaultPolicy()).WithPerm(reversePerm)
	queries := []string{
		"dragon adventure", "desert planet", "love manners", "cyberspace hackers",
		"myths of elves", "matchmaker", "emperor conspiracy", "xylophone",
	}

	want := make([]*models.Envelope, len(queries))
	for i, q := range queries {
		want[i], err = svc.Recommend(context.Background(), q)
		require.NoError(t, err)
	}

	const rounds = 8
	got := make([][]*models.Envelope, rounds)
	errs := make([][]error, rounds)
	var wg sync.WaitGroup
	for r := 0; r < rounds; r++ {
		got[r] = make([]*models.Envelope, len(queries))
		errs[r] = make([]error, len(queries))
		for i, q := range queries {
			wg.Add(1)
			go func(r, i int, q string) {
				defer wg.Done()
				got[r][i], errs[r][i] = svc.Recommend(context.Background(), q)
			}(r, i, q)
		}
	}
	wg.Wait()

	for r := range got {
		for i := range queries {
			require.NoError(t, errs[r][i])
			assert.Equal(t, want[i], got[r][i], queries[i])
		}
	}
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 0.123, roundScore(0.12345))
	assert.Equal(t, 0.5, roundScore(0.4996))
	assert.Equal(t, 0.0, roundScore(0))
}
