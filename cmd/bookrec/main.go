package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bookshelf-recommend-api/internal/config"
	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/bookshelf-recommend-api/internal/repository/artifacts"
	"github.com/bookshelf-recommend-api/internal/repository/postgres"
	"github.com/bookshelf-recommend-api/internal/services"
	"github.com/bookshelf-recommend-api/pkg/schema/db"
	"github.com/bookshelf-recommend-api/internal/translation"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bookrec",
		Usage: "Operator tools for the book recommendation corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Artifact host base URL (defaults to ARTIFACT_BASE_URL)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Hide download progress",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "recommend",
				Usage:     "Print recommendations for a query",
				ArgsUsage: "<query>",
				Action:    recommendCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-translate",
						Usage: "Score the query as given",
					},
				},
			},
			{
				Name:      "suggest",
				Usage:     "Print title suggestions for a prefix or fragment",
				ArgsUsage: "<query>",
				Action:    suggestCommand,
			},
			{
				Name:   "inspect",
				Usage:  "Download the artifacts and report on their consistency",
				Action: inspectCommand,
			},
			{
				Name:   "import",
				Usage:  "Copy the artifact corpus into PostgreSQL",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "postgres-uri",
						Usage:   "PostgreSQL connection string",
						EnvVars: []string{"POSTGRES_URI"},
					},
				},
			},
		},
	}
}

func setup(c *cli.Context) error {
	_ = godotenv.Load()
	logger.Setup(c.String("log-level"), "text")
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if u := c.String("base-url"); u != "" {
		cfg.Artifacts.BaseURL = u
	}
	return cfg, nil
}

func progressWriter(out io.Writer) artifacts.ProgressFunc {
	return func(name string, size int64) io.Writer {
		return progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
	}
}

func artifactRepository(c *cli.Context, cfg *config.Config) *artifacts.Repository {
	fetcher := artifacts.NewFetcher(cfg.Artifacts.BaseURL)
	if !c.Bool("quiet") {
		fetcher.WithProgress(progressWriter(c.App.ErrWriter))
	}
	return artifacts.NewRepository(fetcher, artifacts.Names{
		Vectorizer: cfg.Artifacts.Vectorizer,
		Features:   cfg.Artifacts.Features,
		Similarity: cfg.Artifacts.Similarity,
		Metadata:   cfg.Artifacts.Metadata,
	}, cfg.Artifacts.Timeout)
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", cli.Exit("a query is required", 2)
	}
	return query, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func recommendCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("no-translate") {
		cfg.Translation.Provider = "none"
	}

	ctx := c.Context
	store, err := artifactRepository(c, cfg).LoadCorpus(ctx)
	if err != nil {
		return err
	}

	normalizer, err := translation.NewFromConfig(ctx, cfg.Translation)
	if err != nil {
		return err
	}
	defer normalizer.Close()

	scorer, err := services.NewScorer(cfg.Scorer.PoolSize, cfg.Scorer.ChunkRows)
	if err != nil {
		return err
	}
	defer scorer.Release()

	svc := services.NewRecommendService(store, normalizer, scorer, services.PolicyFromConfig(cfg.Ranking))
	env, err := svc.Recommend(ctx, query)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, env)
}

func suggestCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Artifacts.Similarity = artifacts.SimilarityDisabled

	store, err := artifactRepository(c, cfg).LoadCorpus(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, services.NewSuggestionMatcher(store).Suggest(query))
}

// Report summarizes an artifact snapshot.
type Report struct {
	corpus.Stats
	MissingTitle       int    `json:"missing_title"`
	MissingDescription int    `json:"missing_description"`
	MissingYear        int    `json:"missing_year"`
	MissingRating      int    `json:"missing_rating"`
	EmptyFeatureRows   int    `json:"empty_feature_rows"`
	Consistent         bool   `json:"consistent"`
	Problem            string `json:"problem,omitempty"`
}

func buildReport(snap *artifacts.Snapshot) Report {
	var r Report
	for _, rec := range snap.Records {
		if rec.Title == nil {
			r.MissingTitle++
		}
		if rec.Description == nil {
			r.MissingDescription++
		}
		if rec.PublishedYear == nil {
			r.MissingYear++
		}
		if rec.AverageRating == nil {
			r.MissingRating++
		}
	}
	for i := 0; i < snap.Features.Rows(); i++ {
		if snap.Features.Row(i).IsZero() {
			r.EmptyFeatureRows++
		}
	}

	store, err := corpus.NewStore(snap.Records, snap.Vectorizer, snap.Features, snap.Similarity)
	if err != nil {
		r.Stats = corpus.Stats{
			Records:          len(snap.Records),
			Features:         snap.Features.Cols(),
			NonZero:          snap.Features.NNZ(),
			SimilarityLoaded: snap.Similarity != nil,
		}
		r.Problem = err.Error()
		return r
	}
	r.Stats = store.Stats()
	r.Consistent = true
	return r
}

func inspectCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	snap, err := artifactRepository(c, cfg).Fetch(c.Context)
	if err != nil {
		return err
	}

	report := buildReport(snap)
	if err := printJSON(c.App.Writer, report); err != nil {
		return err
	}
	if !report.Consistent {
		return cli.Exit("artifacts are inconsistent", 1)
	}
	return nil
}

func importCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	uri := c.String("postgres-uri")
	if uri == "" {
		uri = cfg.PostgresURI
	}
	cfg.Artifacts.Similarity = artifacts.SimilarityDisabled

	ctx := c.Context
	store, err := artifactRepository(c, cfg).LoadCorpus(ctx)
	if err != nil {
		return err
	}

	if err := db.InitPostgres(ctx, uri); err != nil {
		return err
	}
	defer db.ClosePostgres()

	repo := postgres.NewCorpusRepository(db.GetPostgres())
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := repo.SaveCorpus(ctx, store); err != nil {
		return err
	}

	log.WithField("records", store.Len()).Info("corpus imported")
	fmt.Fprintf(c.App.Writer, "imported %d books\n", store.Len())
	return nil
}
