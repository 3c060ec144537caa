package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/emarket/internal/api"
	"github.com/five82/emarket/internal/config"
	"github.com/five82/emarket/internal/kvstore"
	"github.com/five82/emarket/internal/logging"
	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/prefs"
	"github.com/five82/emarket/internal/state"
	"github.com/five82/emarket/internal/ui"
)

// Options configure the emarket application.
type Options struct {
	ConfigPath string
	EnvFiles   []string      // dotenv files applied over the config file
	APIURL     string        // overrides the configured backend when set
	PollEvery  time.Duration // zero uses the configured interval
}

// App holds the wired components. Build one with New and release it with
// Close.
type App struct {
	Config     config.Config
	Log        zerolog.Logger
	KV         kvstore.Store
	Store      *state.Store
	Dispatcher *state.Dispatcher
	Addresses  *market.AddressClient
	Prefs      prefs.Prefs
}

// New opens local storage, builds the HTTP client and domain clients, and
// restores any persisted session.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	kv, err := kvstore.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	store := state.NewStore()
	opts := []api.Option{
		api.WithTimeout(cfg.Timeout),
		api.WithTokenSource(store),
		api.WithLogger(log),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(cfg.RateLimit))
	}
	client, err := api.New(cfg.APIURL, opts...)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	addresses := market.NewAddressClient(client, market.NewAddressFallback(kv), log)
	d := state.NewDispatcher(store, state.Deps{
		Auth:      market.NewAuthClient(client),
		Users:     market.NewUserClient(client),
		Products:  market.NewProductClient(client),
		Favorites: market.NewFavoriteClient(client),
		Addresses: addresses,
		Session:   kv,
	}, log)

	if ok, err := d.Hydrate(ctx); err != nil {
		log.Warn().Err(err).Msg("restore session")
	} else if ok {
		log.Info().Msg("session restored")
	}

	return &App{
		Config:     cfg,
		Log:        log,
		KV:         kv,
		Store:      store,
		Dispatcher: d,
		Addresses:  addresses,
		Prefs:      prefs.Load(ctx, kv),
	}, nil
}

// Close releases local storage.
func (a *App) Close() error {
	if a.KV == nil {
		return nil
	}
	return a.KV.Close()
}

// Run boots the emarket TUI until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) (err error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	log, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeWith(&err, logCloser)

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeWith(&err, a)

	log.Info().Str("api", cfg.APIURL).Str("store", cfg.Store.Backend).Msg("starting emarket")

	// Start background reconciliation
	StartPoller(ctx, a.Store, a.Dispatcher, cfg.PollInterval, log)

	// Populate the store before the UI draws its first frame
	if _, err := refresh(ctx, a.Store, a.Dispatcher); err != nil {
		log.Warn().Err(err).Msg("initial refresh")
	}

	return ui.Run(ui.Options{
		Context:    ctx,
		Dispatcher: a.Dispatcher,
		Prefs:      a.Prefs,
		PrefsStore: a.KV,
		PollTick:   cfg.PollInterval,
		Log:        log,
	})
}

func closeWith(err *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil {
		*err = errors.Join(*err, cerr)
	}
}
