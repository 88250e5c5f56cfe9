package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/config"
	"github.com/dmitrijs2005/gistkeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/gistkeeper/internal/client/ledger"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gistkeeper/internal/client/services"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
	"github.com/dmitrijs2005/gistkeeper/internal/filex"
	"github.com/dmitrijs2005/gistkeeper/internal/logging"
	"github.com/google/uuid"
)

// syncer is the part of *coordinator.Coordinator the CLI drives.
type syncer interface {
	Run(ctx context.Context)
	CheckOnStartup(ctx context.Context) (coordinator.Event, error)
	Refresh(ctx context.Context) (coordinator.Event, error)
	Decide(ctx context.Context, strategy models.Strategy) (coordinator.Event, error)
	Cancel() error
	Pending() (coordinator.Event, bool)
	Events() <-chan coordinator.Event
}

// newSyncer is a test seam around coordinator.New.
var newSyncer = func(deps coordinator.Deps, opts coordinator.Options) syncer {
	return coordinator.New(deps, opts)
}

type App struct {
	config    *config.Config
	db        *sql.DB
	log       logging.Logger
	ledger    *ledger.Ledger
	knowledge services.KnowledgeService
	meta      metadata.Repository
	creds     *credentials.Store
	reader    *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	// coord is nil until a remote is configured and unlocked.
	coord      syncer
	stopSync   context.CancelFunc
	remoteName string
}

// NewApp opens the local database and wires the services. The remote is
// attached later by unlock, once a token is available.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}
	return newApp(c, db, log, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, db *sql.DB, log logging.Logger, in io.Reader, out io.Writer) *App {
	l := ledger.New(db)
	repos := client.NewRepositories(db)
	return &App{
		config:    c,
		db:        db,
		log:       log,
		ledger:    l,
		knowledge: services.NewKnowledgeService(db, l),
		meta:      repos.Metadata,
		creds:     credentials.NewStore(db),
		reader:    bufio.NewReader(in),
		out:       out,
	}
}

// Run unlocks the remote (if any) and blocks in the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.printf("Welcome to gistkeeper (type 'help' for commands)\n")
	if err := a.unlock(ctx); err != nil {
		a.printf("Sync disabled: %v\n", err)
	}
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// Close stops background sync and closes the database.
func (a *App) Close() {
	a.detach()
	_ = a.db.Close()
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) syncEnabled() bool {
	return a.coord != nil
}

func (a *App) getStatus() string {
	if a.coord == nil {
		return "(local)"
	}
	if _, ok := a.coord.Pending(); ok {
		return fmt.Sprintf("(%s, decision pending)", a.remoteName)
	}
	return fmt.Sprintf("(%s)", a.remoteName)
}

// deviceID returns the configured device id, or a random one generated on
// first use and kept in the metadata table.
func (a *App) deviceID(ctx context.Context) (string, error) {
	if a.config.DeviceID != "" {
		return a.config.DeviceID, nil
	}
	v, err := a.meta.Get(ctx, common.MetaDeviceID)
	if err != nil {
		return "", err
	}
	if v != nil {
		return string(v), nil
	}
	id := uuid.NewString()
	if err := a.meta.Set(ctx, common.MetaDeviceID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}
