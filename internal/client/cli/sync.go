package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/comparator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/config"
	"github.com/dmitrijs2005/gistkeeper/internal/client/conflict"
	"github.com/dmitrijs2005/gistkeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
	"github.com/dmitrijs2005/gistkeeper/internal/client/remote/gist"
	"github.com/dmitrijs2005/gistkeeper/internal/client/remote/s3store"
	"github.com/dmitrijs2005/gistkeeper/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getSecret     = GetSecret
)

// newRemote builds the transport selected by the configuration. It is a
// test seam.
var newRemote = func(ctx context.Context, c *config.Config, token string) (client.Remote, error) {
	switch c.Backend {
	case config.BackendGist:
		return gist.New(gist.Config{
			BaseURL: c.GistAPIBase,
			GistID:  c.GistID,
			Token:   token,
			Timeout: c.RequestTimeout,
		}), nil
	case config.BackendS3:
		return s3store.New(ctx, s3store.Config{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
		})
	}
	return nil, common.ErrSyncDisabled
}

// unlock attaches the configured remote. For the gist backend the token
// comes from the configuration or, failing that, from the credential store
// after asking for the passphrase.
func (a *App) unlock(ctx context.Context) error {
	switch a.config.Backend {
	case "":
		return common.ErrSyncDisabled
	case config.BackendS3:
		return a.attach(ctx, "")
	}

	token := a.config.GistToken
	if token == "" {
		ok, err := a.creds.Exists(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no access token stored, run 'token' to add one")
		}

		pass, err := getSecret("Passphrase", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(pass)

		token, err = a.creds.Load(ctx, pass)
		if err != nil {
			return err
		}
	}
	return a.attach(ctx, token)
}

// attach starts the coordinator, the event printer and, with AutoSync,
// background polling. Without AutoSync only the startup check runs.
func (a *App) attach(ctx context.Context, token string) error {
	a.detach()

	remote, err := newRemote(ctx, a.config, token)
	if err != nil {
		return err
	}
	device, err := a.deviceID(ctx)
	if err != nil {
		return err
	}
	eq, err := comparator.ParseEquality(a.config.Equality)
	if err != nil {
		return err
	}

	s := newSyncer(coordinator.Deps{
		DB:     a.db,
		Remote: remote,
		Ledger: a.ledger,
		Logger: a.log,
	}, coordinator.Options{
		PollInterval:   a.config.PollInterval,
		MinInterval:    a.config.MinSyncInterval,
		MaxRetries:     uint64(a.config.MaxRetries),
		RequestTimeout: a.config.RequestTimeout,
		Equality:       eq,
		DeviceID:       device,
	})

	syncCtx, cancel := context.WithCancel(ctx)
	a.coord, a.stopSync, a.remoteName = s, cancel, remote.Name()

	go a.watchEvents(syncCtx, s.Events())
	if a.config.AutoSync {
		go s.Run(syncCtx)
	} else {
		go func() { _, _ = s.CheckOnStartup(syncCtx) }()
	}
	a.log.Info(ctx, "sync attached", "remote", remote.Name(), "auto", a.config.AutoSync)
	return nil
}

func (a *App) detach() {
	if a.stopSync != nil {
		a.stopSync()
	}
	a.coord, a.stopSync, a.remoteName = nil, nil, ""
}

func (a *App) watchEvents(ctx context.Context, events <-chan coordinator.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			a.printEvent(ev)
		}
	}
}

// printEvent reports decisions and results. Skips are silent so background
// polling does not clutter the prompt.
func (a *App) printEvent(ev coordinator.Event) {
	switch ev.Type {
	case coordinator.EventDecision:
		var b strings.Builder
		fmt.Fprintf(&b, "\n%s\n%s\n", comparator.Summary(ev.Comparison), conflict.ConflictDescription(ev.Conflict))
		for _, s := range []models.Strategy{models.StrategyMerge, models.StrategyLocal, models.StrategyRemote} {
			fmt.Fprintf(&b, "  %-6s %s\n", s, conflict.StrategyDescription(s))
		}
		fmt.Fprintf(&b, "Type 'resolve <strategy>' (recommended: %s) or 'cancel'.\n", ev.Recommended)
		a.printf("%s", b.String())

	case coordinator.EventResult:
		res := ev.Result
		switch {
		case res == nil:
		case res.Err != nil:
			a.printf("\nSync failed: %v (source of truth: %s)\n", res.Err, res.Authoritative)
		case res.Action == string(models.RecommendSkip):
		default:
			t := res.Total()
			a.printf("\nSync %s done: %d added, %d updated, %d deleted.\n", res.Action, t.Added, t.Updated, t.Deleted)
		}
	}
}

// Sync runs a manual check.
func (a *App) Sync(ctx context.Context) error {
	if a.coord == nil {
		a.printf("Sync is not configured.\n")
		return common.ErrSyncDisabled
	}

	ev, err := a.coord.Refresh(ctx)
	switch {
	case errors.Is(err, common.ErrDecisionPending):
		a.printf("A decision is pending, use 'resolve' or 'cancel' first.\n")
	case errors.Is(err, common.ErrTooFrequent), errors.Is(err, common.ErrSyncInProgress):
		a.printf("Sync is busy, try again in a moment.\n")
	case err != nil:
		// already reported through the event stream
	case ev.Type == coordinator.EventResult && ev.Result != nil && ev.Result.Action == string(models.RecommendSkip):
		a.printf("Already up to date.\n")
	}
	return err
}

// Resolve applies the strategy named in args[0] to the pending decision.
func (a *App) Resolve(ctx context.Context, args []string) error {
	if a.coord == nil {
		a.printf("Sync is not configured.\n")
		return common.ErrSyncDisabled
	}
	if len(args) != 1 {
		a.printf("Usage: resolve <local|remote|merge>\n")
		return common.ErrUnknownStrategy
	}
	s, err := models.ParseStrategy(args[0])
	if err != nil {
		a.printf("%v\n", err)
		return err
	}

	_, err = a.coord.Decide(ctx, s)
	if errors.Is(err, common.ErrNoPendingChoice) {
		a.printf("Nothing to resolve.\n")
	}
	return err
}

// CancelDecision drops the pending decision without touching any data.
func (a *App) CancelDecision(ctx context.Context) error {
	if a.coord == nil {
		return common.ErrSyncDisabled
	}
	if err := a.coord.Cancel(); err != nil {
		a.printf("Nothing to cancel.\n")
		return err
	}
	a.printf("Decision cancelled; local data unchanged.\n")
	return nil
}

// Status prints pending changes, last sync time and any pending decision.
func (a *App) Status(ctx context.Context) error {
	n, err := a.ledger.Count(ctx)
	if err != nil {
		return err
	}
	last, err := a.meta.LastSync(ctx)
	if err != nil {
		return err
	}

	a.printf("Pending local changes: %d\n", n)
	if last == nil {
		a.printf("Last sync: never\n")
	} else {
		a.printf("Last sync: %s\n", last.Local().Format("2006-01-02 15:04:05"))
	}

	if a.coord == nil {
		a.printf("Remote: not configured\n")
		return nil
	}
	a.printf("Remote: %s\n", a.remoteName)
	if ev, ok := a.coord.Pending(); ok {
		a.printf("Decision pending: %s\n", comparator.Summary(ev.Comparison))
	}
	return nil
}

// Token stores a new gist token sealed under a passphrase and attaches the
// remote with it.
func (a *App) Token(ctx context.Context) error {
	tok, err := getSecret("Gist token", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(tok)

	pass, err := getSecret("New passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	again, err := getSecret("Repeat passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if string(pass) != string(again) {
		a.printf("Passphrases do not match.\n")
		return client.ErrUnauthorized
	}

	token := strings.TrimSpace(string(tok))
	if err := a.creds.Save(ctx, token, pass); err != nil {
		return err
	}
	a.printf("Token saved.\n")

	if a.config.Backend != config.BackendGist {
		return nil
	}
	return a.attach(ctx, token)
}

// Logout forgets the stored token and stops syncing. Local records and
// pending changes are kept.
func (a *App) Logout(ctx context.Context) error {
	if err := a.creds.Clear(ctx); err != nil {
		return err
	}
	a.detach()
	a.printf("Token removed; working locally.\n")
	return nil
}
