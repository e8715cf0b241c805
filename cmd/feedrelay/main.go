package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/feedrelay/feedrelay/pkg/config"
	"github.com/feedrelay/feedrelay/pkg/feed"
	"github.com/feedrelay/feedrelay/pkg/health"
	"github.com/feedrelay/feedrelay/pkg/history"
	"github.com/feedrelay/feedrelay/pkg/ledger"
	"github.com/feedrelay/feedrelay/pkg/notify"
	"github.com/feedrelay/feedrelay/pkg/publisher"
	"github.com/feedrelay/feedrelay/pkg/scheduler"
	"github.com/feedrelay/feedrelay/server"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"CONFIG" default:"feedrelay.yml" description:"config file"`
	Listen  string `short:"l" long:"listen" env:"LISTEN" description:"ops server listen address, overrides config"`
	Ledger  string `long:"ledger" env:"LEDGER" description:"ledger file path, overrides config"`
	Targets string `long:"targets" env:"TARGETS" description:"targets file path, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] can't load config: %v", err)
		os.Exit(1)
	}

	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.Ledger != "" {
		cfg.Ledger.Path = opts.Ledger
	}
	if opts.Targets != "" {
		cfg.Targets.Path = opts.Targets
	}

	setupLog(opts.Debug, secrets(cfg)...)

	log.Printf("[INFO] starting feedrelay version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts.Debug); err != nil {
		log.Printf("[ERROR] feedrelay failed: %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, debug bool) error {
	store := ledger.NewStore(cfg.Ledger.Path, cfg.Ledger.RingSize)
	if cfg.Ledger.Gist.Token != "" && cfg.Ledger.Gist.ID != "" {
		store = store.WithMirror(ledger.NewGist(cfg.Ledger.Gist.Token, cfg.Ledger.Gist.ID, cfg.Ledger.Gist.FileName))
		log.Printf("[INFO] ledger mirrored to gist %s", cfg.Ledger.Gist.ID)
	}

	pubs, posters := makePublishers(cfg)
	if len(pubs) == 0 {
		return fmt.Errorf("no destinations configured")
	}

	names := make([]string, len(pubs))
	for i, p := range pubs {
		names[i] = p.Name()
	}
	log.Printf("[INFO] configured destinations: %v", names)

	auditLog, err := history.NewLog(ctx, cfg.History.DSN)
	if err != nil {
		return fmt.Errorf("open delivery log: %w", err)
	}
	defer auditLog.Close()

	sched := scheduler.NewScheduler(scheduler.Params{
		Store:         store,
		Poller:        feed.NewPoller(cfg.Feed.URL, cfg.Feed.URL, cfg.Feed.Timeout),
		Publishers:    pubs,
		Targets:       config.NewTargets(cfg.Targets.Path, names),
		Notifier:      notify.NewAlerter(posters...),
		Recorder:      auditLog,
		Health:        health.NewTracker(cfg.Health.FailureThreshold, cfg.Health.CooldownCap),
		Interval:      cfg.Feed.PollInterval,
		MaxBacklog:    cfg.Feed.MaxBacklog,
		Pacing:        cfg.Feed.Pacing,
		CatchupWindow: cfg.Feed.CatchupWindow,
	})
	defer sched.Close()

	srv := server.New(serverConfig{cfg}, sched, auditLog, revision, debug)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	return g.Wait()
}

// makePublishers builds a publisher per destination with credentials in
// the config. Returns the publishers plus the subset capable of
// carrying plain-text operator alerts.
func makePublishers(cfg *config.Config) (pubs []scheduler.Publisher, posters []notify.TextPoster) {
	shared := func() (time.Duration, int, time.Duration) {
		return cfg.Publish.Timeout, cfg.Publish.Retries, cfg.Publish.RetryDelay
	}

	if c := cfg.Destinations.Telegram; c.Token != "" && c.ChatID != "" {
		timeout, retries, delay := shared()
		tg := publisher.NewTelegram(publisher.TelegramConfig{
			Token: c.Token, ChatID: c.ChatID, SummaryMax: c.SummaryMax,
			Timeout: timeout, Retries: retries, RetryDelay: delay,
		})
		pubs = append(pubs, tg)
		posters = append(posters, tg)
	}

	if c := cfg.Destinations.Discord; c.WebhookURL != "" {
		timeout, retries, delay := shared()
		dc := publisher.NewDiscord(publisher.DiscordConfig{
			WebhookURL: c.WebhookURL, SummaryMax: c.SummaryMax,
			Timeout: timeout, Retries: retries, RetryDelay: delay,
		})
		pubs = append(pubs, dc)
		posters = append(posters, dc)
	}

	if c := cfg.Destinations.Mastodon; c.InstanceURL != "" && c.AccessToken != "" {
		timeout, retries, delay := shared()
		pubs = append(pubs, publisher.NewMastodon(publisher.MastodonConfig{
			InstanceURL: c.InstanceURL, AccessToken: c.AccessToken, PostMax: c.PostMax,
			Timeout: timeout, Retries: retries, RetryDelay: delay,
		}))
	}

	if c := cfg.Destinations.Twitter; c.ConsumerKey != "" && c.AccessToken != "" {
		timeout, retries, delay := shared()
		pubs = append(pubs, publisher.NewTwitter(publisher.TwitterConfig{
			ConsumerKey: c.ConsumerKey, ConsumerSecret: c.ConsumerSecret,
			AccessToken: c.AccessToken, AccessSecret: c.AccessSecret, TweetMax: c.TweetMax,
			Timeout: timeout, Retries: retries, RetryDelay: delay,
		}))
	}

	if c := cfg.Destinations.Bluesky; c.Handle != "" && c.AppPassword != "" {
		timeout, retries, delay := shared()
		pubs = append(pubs, publisher.NewBluesky(publisher.BlueskyConfig{
			Handle: c.Handle, AppPassword: c.AppPassword, PostMax: c.PostMax,
			Timeout: timeout, Retries: retries, RetryDelay: delay,
		}))
	}

	return pubs, posters
}

// serverConfig adapts the app config to the ops server
type serverConfig struct {
	cfg *config.Config
}

func (s serverConfig) GetServerConfig() (string, time.Duration) {
	return s.cfg.Server.Listen, s.cfg.Server.Timeout
}

// secrets collects credential values to mask in logs
func secrets(cfg *config.Config) []string {
	var res []string
	for _, s := range []string{
		cfg.Ledger.Gist.Token,
		cfg.Destinations.Telegram.Token,
		cfg.Destinations.Discord.WebhookURL,
		cfg.Destinations.Mastodon.AccessToken,
		cfg.Destinations.Bluesky.AppPassword,
		cfg.Destinations.Twitter.ConsumerSecret,
		cfg.Destinations.Twitter.AccessSecret,
	} {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
