package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/feedmailer/pkg/config"
	"github.com/umputun/feedmailer/pkg/db"
	"github.com/umputun/feedmailer/pkg/diff"
	"github.com/umputun/feedmailer/pkg/feed"
	"github.com/umputun/feedmailer/pkg/notify"
	"github.com/umputun/feedmailer/pkg/repository"
	"github.com/umputun/feedmailer/pkg/scheduler"
	"github.com/umputun/feedmailer/server"
)

// Opts with all CLI options
type Opts struct {
	Config string   `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file"`
	Feeds  []string `short:"f" long:"feed" env:"FEEDS" env-delim:"," description:"feed URL to check, overrides the config list"`
	Once   bool     `long:"once" description:"run a single check and exit"`

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

	setupLog(opts.Debug, cfg.Email.ClientSecret)

	log.Printf("[INFO] starting feedmailer version %s", revision)

	// explicit feed list overrides the configured one
	if len(opts.Feeds) > 0 {
		cfg.Feeds = opts.Feeds
	}
	if len(cfg.Feeds) == 0 {
		log.Printf("[WARN] no feeds configured")
	}

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts.Once, opts.Debug); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

// run wires the components and executes either a single check or the daemon
func run(ctx context.Context, cfg *config.Config, once, dbg bool) error {
	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close()

	states := repository.NewStateRepository(database.DB())
	feedParser := feed.NewParser(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)

	emailer := notify.NewEmailer(notify.EmailerConfig{
		AccountID:    cfg.Email.AccountID,
		ClientID:     cfg.Email.ClientID,
		ClientSecret: cfg.Email.ClientSecret,
		TokenURL:     cfg.Email.TokenURL,
		APIBase:      cfg.Email.APIBase,
		From:         cfg.Email.From,
		To:           cfg.Email.To,
		Timeout:      cfg.Email.Timeout,
	})
	dispatcher := notify.NewDispatcher(emailer, cfg.Email.SubjectPrefix)

	processor := scheduler.NewFeedProcessor(scheduler.FeedProcessorConfig{
		Parser:     feedParser,
		Store:      states,
		Notifier:   dispatcher,
		Differ:     diff.NewEngine(cfg.State.MaxKnownIDs),
		MaxWorkers: cfg.Schedule.MaxWorkers,
	})

	sched := scheduler.NewScheduler(scheduler.Config{
		Processor:      processor,
		Feeds:          cfg.Feeds,
		UpdateInterval: cfg.Schedule.UpdateInterval,
	})

	if once {
		reports := sched.CheckNow(ctx)
		for _, r := range reports {
			if r.Err != nil {
				log.Printf("[WARN] feed %s: %s (%v)", r.URL, r.Status, r.Err)
			}
		}
		return nil
	}

	sched.Start(ctx)
	defer sched.Stop()

	if cfg.Server.Enabled {
		srv := server.New(cfg, states, sched, revision, dbg)
		return srv.Run(ctx)
	}

	<-ctx.Done()
	return nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
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
