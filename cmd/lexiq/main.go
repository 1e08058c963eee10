// Package main implements the lexiq command line interface: importing word
// lists into the catalog and running interactive flashcard, quiz and audio
// study sessions against them.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"
	"github.com/spf13/pflag"

	"github.com/avelychko/lexiq/internal/audio"
	"github.com/avelychko/lexiq/internal/config"
	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/events"
	"github.com/avelychko/lexiq/internal/platform/logger"
	"github.com/avelychko/lexiq/internal/platform/postgres"
	"github.com/avelychko/lexiq/internal/platform/sqlite"
	"github.com/avelychko/lexiq/internal/session"
	"github.com/avelychko/lexiq/internal/srs"
	"github.com/avelychko/lexiq/internal/store"
	"github.com/avelychko/lexiq/internal/wordimport"
)

const usage = `Usage: lexiq <command> [flags]

Commands:
  import   import a word list from an Excel or CSV file
  study    run an interactive study session
  migrate  apply database migrations (postgres only)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	switch args[0] {
	case "import":
		return runImport(ctx, cfg, log, args[1:])
	case "study":
		return runStudy(ctx, cfg, log, args[1:])
	case "migrate":
		return runMigrate(ctx, cfg, log)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// backend bundles the store implementations for the configured driver.
type backend struct {
	db       *sql.DB
	catalog  store.WordCatalog
	progress store.ProgressStore
	sessions store.SessionStore
}

// openBackend opens the configured database and wires the matching store
// implementations.
func openBackend(cfg *config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return &backend{
			db:       db,
			catalog:  sqlite.NewCatalogStore(db, log),
			progress: sqlite.NewProgressStore(db, log),
			sessions: sqlite.NewSessionStore(db, log),
		}, nil
	case "postgres":
		db, err := postgres.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return &backend{
			db:       db,
			catalog:  postgres.NewCatalogStore(db, log),
			progress: postgres.NewProgressStore(db, log),
			sessions: postgres.NewSessionStore(db, log),
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func runImport(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
	file := flags.String("file", "", "path to the Excel or CSV file")
	listName := flags.String("name", "", "name of the word list to create")
	lang := flags.String("lang", "", "language code of the words (e.g. en)")
	sheet := flags.String("sheet", "Sheet1", "Excel sheet name")
	startRow := flags.Int("start-row", 2, "first data row (1-based)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *file == "" || *listName == "" || *lang == "" {
		return errors.New("import requires --file, --name and --lang")
	}

	be, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = be.db.Close() }()

	importCfg := wordimport.DefaultConfig()
	importCfg.FilePath = *file
	importCfg.ListName = *listName
	importCfg.LanguageCode = *lang
	importCfg.SheetName = *sheet
	importCfg.StartRow = *startRow

	importer := wordimport.New(be.db, be.catalog, log)
	result, err := importer.Import(ctx, importCfg)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d words into list %q (id %s)\n",
		result.Imported, *listName, result.ListID)
	if result.Skipped > 0 {
		fmt.Printf("skipped %d rows:\n", result.Skipped)
		for _, rowErr := range result.RowErrors {
			fmt.Printf("  %s\n", rowErr)
		}
	}
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.Database.Driver != "postgres" {
		return errors.New("migrate applies to the postgres driver only; sqlite manages its own schema")
	}

	db, err := postgres.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	log.Info("migrations applied")
	return nil
}

func runStudy(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string) error {
	flags := pflag.NewFlagSet("study", pflag.ContinueOnError)
	listFlag := flags.String("list", "", "word list ID to study")
	typeFlag := flags.String("type", "flashcard", "session type: flashcard, quiz or audio")
	modeFlag := flags.String("mode", "mixed", "queue mode: mixed, new_only or review_only")
	orderFlag := flags.String("order", "sequential", "queue order: sequential or random")
	newLimit := flags.Int("new", cfg.Study.NewWordsLimit, "max new words")
	reviewLimit := flags.Int("reviews", cfg.Study.ReviewLimit, "max due reviews")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *listFlag == "" {
		return errors.New("study requires --list")
	}

	listID, err := uuid.Parse(*listFlag)
	if err != nil {
		return fmt.Errorf("invalid list ID %q: %w", *listFlag, err)
	}

	sessionType := domain.SessionType(*typeFlag)
	switch sessionType {
	case domain.SessionTypeFlashcard, domain.SessionTypeQuiz, domain.SessionTypeAudio:
	default:
		return fmt.Errorf("unknown session type %q", *typeFlag)
	}

	be, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = be.db.Close() }()

	scheduler, err := srs.New(srs.Config{
		DesiredRetention: cfg.SRS.DesiredRetention,
		LearningSteps:    cfg.SRS.LearningSteps,
		RelearningSteps:  cfg.SRS.RelearningSteps,
		MaximumInterval:  cfg.SRS.MaximumIntervalDays,
		DisableFuzzing:   cfg.SRS.DisableFuzzing,
	})
	if err != nil {
		return err
	}

	emitter := events.NewInMemoryEmitter(log)
	emitter.RegisterHandler(events.HandlerFunc(
		func(ctx context.Context, event *events.SessionEvent) error {
			log.Debug("session event",
				slog.String("kind", event.Kind),
				slog.String("session_id", event.SessionID.String()))
			return nil
		}))

	builder := session.NewQueueBuilder(be.catalog, be.progress, log)
	sess := session.New(sessionType, builder, scheduler,
		be.catalog, be.progress, be.sessions, emitter, log)

	policy := session.Policy{
		ListID:      listID,
		NewLimit:    *newLimit,
		ReviewLimit: *reviewLimit,
		Mode:        session.Mode(*modeFlag),
		Order:       session.Order(*orderFlag),
	}

	if sessionType == domain.SessionTypeAudio {
		return studyAudio(ctx, cfg, log, emitter, sess, policy)
	}
	return studyCards(ctx, sess, policy, sessionType)
}

// studyCards drives a flashcard or quiz session over stdin.
func studyCards(
	ctx context.Context,
	sess *session.Session,
	policy session.Policy,
	sessionType domain.SessionType,
) error {
	snap, err := sess.Start(ctx, policy)
	if err != nil {
		return err
	}
	if snap.Completed() {
		printCompletion(snap)
		return nil
	}

	fmt.Printf("session started: %d items (%d new, %d review)\n",
		snap.Total, snap.Stats.New, snap.Stats.Review)
	if sessionType == domain.SessionTypeQuiz {
		fmt.Println("rate each item: 1=again 2=hard 3=good 4=easy, s=star, q=quit")
	} else {
		fmt.Println("press enter to reveal, then 1=again 2=hard 3=good 4=easy, s=star, q=quit")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		printItem(snap)

		if !scanner.Scan() {
			snap, _ = sess.Stop(ctx)
			printCompletion(snap)
			return scanner.Err()
		}

		switch input := strings.TrimSpace(scanner.Text()); input {
		case "q":
			snap, err = sess.Stop(ctx)
			if err != nil {
				return err
			}
			printCompletion(snap)
			return nil
		case "s":
			if snap, err = sess.ToggleStar(ctx); err != nil {
				fmt.Printf("  %v\n", err)
			}
		case "":
			if snap, err = sess.RevealAnswer(ctx); err != nil {
				fmt.Printf("  %v\n", err)
			}
		case "1", "2", "3", "4":
			rating := flux.Rating(input[0] - '0')
			if snap, err = sess.Rate(ctx, rating); err != nil {
				fmt.Printf("  %v\n", err)
				continue
			}
			if snap.Completed() {
				printCompletion(snap)
				return nil
			}
		default:
			fmt.Println("  unrecognized input")
		}
	}
}

// studyAudio drives an audio session through the sequencer: playback plus
// y/n verdicts, with optional fully automatic review.
func studyAudio(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	emitter events.Emitter,
	sess *session.Session,
	policy session.Policy,
) error {
	speaker := audio.NewCommandSpeaker(
		cfg.Audio.TTSCommand, cfg.Audio.TTSArgs, cfg.Audio.Voices, log)

	seq := audio.NewSequencer(sess, speaker, audio.Config{
		Auto:              cfg.Audio.Auto,
		RevealDelay:       cfg.Audio.RevealDelay,
		RateDelay:         cfg.Audio.RateDelay,
		WordSentencePause: cfg.Audio.WordSentencePause,
	}, emitter, log)

	snap, err := seq.Start(ctx, policy)
	if err != nil {
		return err
	}
	if snap.Completed() {
		printCompletion(snap)
		return nil
	}

	fmt.Printf("audio session started: %d items\n", snap.Total)
	fmt.Println("enter=reveal, y=correct, n=incorrect, r=replay, s=star, q=quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if !scanner.Scan() {
			snap, _ = seq.Stop(ctx)
			printCompletion(snap)
			return scanner.Err()
		}

		switch input := strings.TrimSpace(scanner.Text()); input {
		case "q":
			if snap, err = seq.Stop(ctx); err != nil {
				return err
			}
			printCompletion(snap)
			return nil
		case "r":
			if snap, err = seq.Replay(ctx); err != nil {
				fmt.Printf("  %v\n", err)
			}
		case "s":
			if snap, err = seq.ToggleStar(ctx); err != nil {
				fmt.Printf("  %v\n", err)
			}
		case "":
			if snap, err = seq.RevealAnswer(ctx); err != nil {
				fmt.Printf("  %v\n", err)
			} else {
				printItem(snap)
			}
		case "y", "n":
			if snap, err = seq.Rate(ctx, input == "y"); err != nil {
				fmt.Printf("  %v\n", err)
				continue
			}
			if snap.Completed() {
				printCompletion(snap)
				return nil
			}
			printItem(snap)
		default:
			fmt.Println("  unrecognized input")
		}
	}
}

// printItem renders the current study item for the terminal.
func printItem(snap session.Snapshot) {
	if snap.Word == nil {
		return
	}

	kind := "review"
	if snap.IsNewWord {
		kind = "new"
	}
	star := ""
	if snap.IsStarred {
		star = " *"
	}

	fmt.Printf("\n[%d/%d] (%s)%s %s\n", snap.Index+1, snap.Total, kind, star, snap.Word.Term)
	if snap.Stage == session.StageAwaitingRating {
		fmt.Printf("  = %s\n", snap.Word.Translation)
		if snap.Word.HasExample() {
			fmt.Printf("  e.g. %s\n", snap.Word.Example)
		}
	}
}

// printCompletion renders the terminal aggregate.
func printCompletion(snap session.Snapshot) {
	fmt.Printf("\nsession complete (%s)\n", snap.Reason)
	fmt.Printf("  new: %d  review: %d  correct: %d  incorrect: %d  rate: %.0f%%\n",
		snap.Stats.New, snap.Stats.Review,
		snap.Stats.Correct, snap.Stats.Incorrect,
		snap.Stats.CorrectRate*100)
}
