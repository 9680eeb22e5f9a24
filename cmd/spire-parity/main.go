package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/DaanHessen/spire-parity/internal/engine"
	"github.com/DaanHessen/spire-parity/internal/store"
	"github.com/DaanHessen/spire-parity/internal/text"
	"github.com/DaanHessen/spire-parity/internal/ui"
	"github.com/DaanHessen/spire-parity/internal/util"
)

var (
	version      = "0.1.0-alpha"
	rulesVersion = version
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := util.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.RulesVersion = rulesVersion

	flag.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	flag.StringVar(&cfg.PoolsFile, "pools", cfg.PoolsFile, "Content table JSON file")
	plain := flag.Bool("plain", false, "Print raw markdown instead of styled output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "spire-parity [--dsn DSN] [--pools FILE] [--plain] <command>\n\n"+
			"commands:\n"+
			"  version\n"+
			"  migrate up|down\n"+
			"  draws --seed S --channel C [--n N] [--from K] [--bound B] [--floor F] [--act A]\n"+
			"  order --pool ID\n"+
			"  verify --seed S --log FILE\n"+
			"  checkpoint --seed S [--floor F] [--act A]\n"+
			"  resume --run ID\n"+
			"  inspect [--seed S] [--db]\n")
	}
	flag.Parse()

	logger, err := util.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	renderer := text.NewPlainRenderer()
	if !*plain {
		if glam, err := text.NewGlamourRenderer("auto", 100); err == nil {
			renderer = text.WithFallback(glam, renderer)
		}
	}

	ctx := context.Background()
	app := &app{cfg: cfg, logger: logger, renderer: renderer, out: os.Stdout}
	if err := app.dispatch(ctx, args[0], args[1:]); err != nil {
		var mismatch errVerifyMismatch
		if errors.As(err, &mismatch) {
			os.Exit(1)
		}
		logger.Fatal(args[0]+" failed", "err", err)
	}
}

type app struct {
	cfg      util.Config
	logger   *log.Logger
	renderer text.Renderer
	out      io.Writer
}

type errVerifyMismatch struct{ n int }

func (e errVerifyMismatch) Error() string { return fmt.Sprintf("%d mismatched observations", e.n) }

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Fprintln(a.out, "spire-parity", version)
		return nil
	case "migrate":
		return a.migrate(ctx, args)
	case "draws":
		return a.draws(args)
	case "order":
		return a.order(args)
	case "verify":
		return a.verify(args)
	case "checkpoint":
		return a.checkpoint(ctx, args)
	case "resume":
		return a.resume(ctx, args)
	case "inspect":
		return a.inspect(ctx, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) print(md string) {
	out, err := a.renderer.Render(md)
	if err != nil {
		out = md
	}
	fmt.Fprint(a.out, out)
}

func (a *app) migrate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("migrate requires 'up' or 'down'")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	migrator, err := store.NewMigrator(a.cfg.DSN)
	if err != nil {
		return err
	}
	switch args[0] {
	case "up":
		if err := migrator.Up(ctx); err != nil && err != store.ErrNoChange {
			return err
		}
		a.logger.Info("migrations applied")
	case "down":
		if err := migrator.Down(ctx); err != nil && err != store.ErrNoChange {
			return err
		}
		a.logger.Info("migrations rolled back")
	default:
		return errors.New("unknown migrate action; use up|down")
	}
	return nil
}

// seedFlag resolves --seed, falling back to PARITY_SEED and then to a random seed.
func (a *app) seedFlag(raw string) (engine.RunSeed, error) {
	if raw == "" {
		raw = a.cfg.SeedText
	}
	if raw == "" {
		seed, err := randomSeed()
		if err != nil {
			return engine.RunSeed{}, err
		}
		a.logger.Info("new run seed", "seed", seed.Text)
		return seed, nil
	}
	return engine.NewRunSeed(raw)
}

func (a *app) draws(args []string) error {
	fs := flag.NewFlagSet("draws", flag.ContinueOnError)
	seedText := fs.String("seed", "", "Run seed")
	channel := fs.String("channel", string(engine.ChannelCard), "Random channel")
	n := fs.Int("n", 10, "Number of draws")
	from := fs.Int("from", 0, "Restore the stream to this counter first")
	bound := fs.Int("bound", 100, "Exclusive upper bound of each draw")
	floor := fs.Int("floor", 0, "Floor for floor-scoped channels")
	act := fs.Int("act", 1, "Act for the map channel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	seed, err := a.seedFlag(*seedText)
	if err != nil {
		return err
	}
	ch, err := engine.ParseChannel(*channel)
	if err != nil {
		return err
	}
	if *bound <= 0 {
		return fmt.Errorf("bound must be positive, got %d", *bound)
	}
	s, err := engine.RestoreAt(seed.Value, ch, engine.Position{Floor: *floor, Act: *act}, *from)
	if err != nil {
		return err
	}
	draws := make([]text.Draw, 0, *n)
	for i := 0; i < *n; i++ {
		draws = append(draws, text.Draw{Counter: s.Counter(), Value: s.Int(*bound)})
	}
	a.print(text.Draws(seed, ch, *bound, draws))
	return nil
}

func (a *app) loadTable() (engine.StaticTable, error) {
	if a.cfg.PoolsFile == "" {
		return nil, errors.New("no content table: pass --pools or set PARITY_POOLS")
	}
	f, err := os.Open(a.cfg.PoolsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return engine.LoadContentTable(f)
}

func (a *app) order(args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	pool := fs.String("pool", "", "Pool id, e.g. cards:ironclad:common")
	if err := fs.Parse(args); err != nil {
		return err
	}
	table, err := a.loadTable()
	if err != nil {
		return err
	}
	order, err := engine.NewResolver(table).Order(engine.PoolID(*pool))
	if err != nil {
		return err
	}
	a.print(text.PoolOrder(engine.PoolID(*pool), order))
	return nil
}

func (a *app) verify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	seedText := fs.String("seed", "", "Run seed")
	logFile := fs.String("log", "", "JSON array of observed rewards")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *seedText == "" && a.cfg.SeedText == "" {
		return errors.New("verify requires --seed")
	}
	seed, err := a.seedFlag(*seedText)
	if err != nil {
		return err
	}
	table, err := a.loadTable()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(*logFile)
	if err != nil {
		return err
	}
	var obs []engine.Observation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return fmt.Errorf("decode %s: %w", *logFile, err)
	}
	rep, err := engine.Verify(seed.Value, engine.NewResolver(table), obs)
	if err != nil {
		return err
	}
	a.print(text.Verification(rep))
	if !rep.OK() {
		a.logger.Warn("parity mismatch", "seed", seed.Text, "mismatches", len(rep.Mismatches), "checked", rep.Checked)
		return errVerifyMismatch{n: len(rep.Mismatches)}
	}
	return nil
}

func (a *app) openDB(ctx context.Context) (*store.DB, error) {
	migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	mig, err := store.NewMigrator(a.cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := mig.Up(migCtx); err != nil && err != store.ErrNoChange {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return store.Open(ctx, a.cfg)
}

func (a *app) checkpoint(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkpoint", flag.ContinueOnError)
	seedText := fs.String("seed", "", "Run seed")
	floor := fs.Int("floor", 0, "Current floor")
	act := fs.Int("act", 1, "Current act")
	if err := fs.Parse(args); err != nil {
		return err
	}
	seed, err := a.seedFlag(*seedText)
	if err != nil {
		return err
	}
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	streams := seed.Streams()
	streams.EnterAct(*act)
	streams.EnterFloor(*floor)
	run, err := store.NewRunRepo(db).Create(ctx, seed, a.cfg.RulesVersion)
	if err != nil {
		return err
	}
	repo := store.NewCheckpointRepo(db)
	var cp store.Checkpoint
	err = db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		cp, err = repo.Insert(ctx, tx, run.ID, streams)
		return err
	})
	if err != nil {
		return err
	}
	a.logger.Info("checkpoint stored", "run", run.ID, "checkpoint", cp.ID, "seed", seed.Text)
	fmt.Fprintln(a.out, run.ID)
	return nil
}

func (a *app) resume(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resume", flag.ContinueOnError)
	runFlag := fs.String("run", "", "Run id")
	bound := fs.Int("bound", 100, "Bound used to preview next values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := uuid.Parse(*runFlag)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := store.NewRunRepo(db).Get(ctx, id)
	if err != nil {
		return err
	}
	cp, err := store.NewCheckpointRepo(db).Latest(ctx, id)
	if err != nil {
		return err
	}
	streams, err := store.ResumeFromCheckpoint(run, cp)
	if err != nil {
		return err
	}
	a.logger.Debug("resumed", "run", run.ID, "checkpoint", cp.ID, "floor", cp.Position.Floor, "act", cp.Position.Act)
	a.print(text.Streams(engine.SeedFromValue(run.Seed), streams, *bound))
	return nil
}

func (a *app) inspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	seedText := fs.String("seed", "", "Run seed")
	useDB := fs.Bool("db", false, "Enable checkpoints against the configured database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	seed, err := a.seedFlag(*seedText)
	if err != nil {
		return err
	}
	cfg := a.cfg
	cfg.SeedText = seed.Text

	var table engine.StaticTable
	if cfg.PoolsFile != "" {
		if table, err = a.loadTable(); err != nil {
			return err
		}
	}
	var db *store.DB
	if *useDB {
		if db, err = a.openDB(ctx); err != nil {
			return err
		}
		defer db.Close()
	}
	return ui.Run(ctx, db, table, cfg, version)
}

func randomSeed() (engine.RunSeed, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return engine.RunSeed{}, fmt.Errorf("failed to generate seed: %w", err)
	}
	return engine.SeedFromValue(int64(binary.LittleEndian.Uint64(buf[:]))), nil
}
