// Package coordinator drives synchronization between the local store and a
// remote replica.
//
// A sync attempt compares cheap statistics first and only downloads the full
// remote dataset when a decision has to be made. Attempts are serialized: at
// most one runs at a time, and while a decision awaits the user every new
// check is rejected with common.ErrDecisionPending. A chosen resolution is
// committed in a single SQLite transaction that writes all four collections,
// stores the sync time and clears the change ledger.
package coordinator

import (
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/comparator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/conflict"
	"github.com/dmitrijs2005/gistkeeper/internal/client/ledger"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/repositories/changes"
	"github.com/dmitrijs2005/gistkeeper/internal/logging"
)

const (
	DefaultPollInterval = 5 * time.Minute
	DefaultMinInterval  = time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBase    = 500 * time.Millisecond

	eventBuffer = 16
)

// Deps are the collaborators of a Coordinator. Ledger defaults to a ledger
// over DB, Logger to a no-op logger.
type Deps struct {
	DB     *sql.DB
	Remote client.Remote
	Ledger *ledger.Ledger
	Logger logging.Logger
}

// Options tune timing and comparison. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	MinInterval  time.Duration
	MaxRetries   uint64
	RetryBase    time.Duration
	// RequestTimeout bounds every single remote call; zero means no bound.
	RequestTimeout time.Duration
	Equality       comparator.Equality
	// DeviceID is written into the metadata of datasets this replica pushes.
	DeviceID string
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.RetryBase <= 0 {
		o.RetryBase = DefaultRetryBase
	}
	if o.Equality == "" {
		o.Equality = comparator.EqualityCount
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	db       *sql.DB
	remote   client.Remote
	ledger   *ledger.Ledger
	log      logging.Logger
	cmp      *comparator.Comparator
	resolver *conflict.Resolver
	opts     Options

	events chan Event

	mu          sync.Mutex
	running     bool
	pending     *decision
	lastRefresh time.Time
}

// decision is the state kept while the user chooses a strategy.
type decision struct {
	local      *models.Dataset
	remote     *models.Dataset
	comparison models.ComparisonResult
	conflict   models.ConflictInfo
	snapshot   changes.Snapshot
}

func New(deps Deps, opts Options) *Coordinator {
	opts = opts.withDefaults()

	l := deps.Ledger
	if l == nil {
		l = ledger.New(deps.DB, ledger.WithClock(opts.Now))
	}
	var log logging.Logger = logging.Nop()
	if deps.Logger != nil {
		log = deps.Logger
	}

	return &Coordinator{
		db:       deps.DB,
		remote:   deps.Remote,
		ledger:   l,
		log:      log.With("component", "coordinator", "remote", deps.Remote.Name()),
		cmp:      comparator.New(opts.Equality),
		resolver: conflict.NewResolver(conflict.WithClock(opts.Now)),
		opts:     opts,
		events:   make(chan Event, eventBuffer),
	}
}

// Events delivers decisions and results. The channel is buffered; when a
// consumer falls behind, further events are dropped and logged.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Pending returns the decision awaiting the user, if any.
func (c *Coordinator) Pending() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Event{}, false
	}
	return decisionEvent(c.pending), true
}
