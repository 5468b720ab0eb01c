// Command fleetd launches and supervises a fixed set of named agent
// processes described by profile files, and serves an interactive operator
// console on stdin.
//
// Usage:
//
//	fleetd [flags] profile.yaml [profile.yaml ...]
//
// Exit codes: 0 normal; 1 startup validation failure; any worker exit code
// greater than 1 passes through as the program's exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fleetd/internal/adapter/console"
	"fleetd/internal/adapter/journal"
	"fleetd/internal/adapter/profile"
	"fleetd/internal/adapter/proxy"
	"fleetd/internal/domain"
	"fleetd/internal/infra/config"
	"fleetd/internal/infra/logger"
	"fleetd/internal/infra/tracer"
	"fleetd/internal/usecase/command"
	"fleetd/internal/usecase/eventbus"
	"fleetd/internal/usecase/fleet"
	"fleetd/internal/usecase/reporter"
	"fleetd/internal/usecase/supervisor"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("fleetd", flag.ContinueOnError)
	configPath := fs.String("config", "fleetd.yaml", "config file path")
	workerPath := fs.String("worker", "", "worker executable (overrides config)")
	proxyURL := fs.String("proxy-url", "", "registration proxy websocket URL (overrides config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: fleetd [flags] profile.yaml [profile.yaml ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	profilePaths := fs.Args()
	if len(profilePaths) == 0 {
		fmt.Fprintln(os.Stderr, "fleetd: at least one profile file is required")
		fs.Usage()
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fleetd: %v\n", err)
		return 1
	}
	if *workerPath != "" {
		cfg.Supervisor.Worker = *workerPath
	}
	if *proxyURL != "" {
		cfg.Proxy.Enabled = true
		cfg.Proxy.URL = *proxyURL
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fleetd: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx := context.Background()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		log.Error("tracer setup failed", "error", err)
		return 1
	}
	defer shutdownTracer(ctx)

	bus := eventbus.New(log)
	defer bus.Close()

	var journalReader domain.JournalReader
	if cfg.Journal.Enabled {
		jnl, err := journal.Open(cfg.Journal.Path, log)
		if err != nil {
			log.Error("journal unavailable", "path", cfg.Journal.Path, "error", err)
		} else {
			defer jnl.Close()
			defer jnl.Attach(bus)()
			journalReader = jnl
		}
	}

	var notifier domain.Notifier = domain.NopNotifier{}
	if cfg.Proxy.Enabled {
		client := proxy.NewClient(cfg.Proxy.URL, log)
		if err := client.Connect(ctx); err != nil {
			// Notifications are best effort; the breaker keeps retrying.
			log.Warn("proxy connect failed", "url", cfg.Proxy.URL, "error", err)
		}
		notifier = client
		defer notifier.Close()
	}

	src, err := profile.NewSource(log)
	if err != nil {
		log.Error("profile source setup failed", "error", err)
		return 1
	}

	registry := fleet.NewRegistry(log)
	supCfg := supervisor.Config{
		Worker:          cfg.Supervisor.Worker,
		RestartGuard:    cfg.Supervisor.GuardDuration(),
		RestartAnnounce: cfg.Supervisor.RestartAnnounce,
	}

	for i, path := range profilePaths {
		p, err := src.Load(path)
		if err != nil {
			log.Error("skipping profile", "path", path, "error", err)
			continue
		}

		desc := domain.AgentDescriptor{
			Name:           p.Name,
			Profile:        path,
			Ordinal:        i,
			LoadMemory:     p.LoadMemory,
			InitialMessage: p.InitialMessage,
			TaskPath:       p.Task.Path,
			TaskID:         p.Task.ID,
		}
		sup := supervisor.New(desc, supCfg, supervisor.Options{
			Notifier: notifier,
			Bus:      bus,
			Logger:   log,
			Fatal:    os.Exit,
		})

		if err := registry.Register(p.Name, sup); err != nil {
			log.Error("skipping duplicate agent", "agent", p.Name, "path", path)
			continue
		}
		if err := notifier.RegisterAgent(ctx, p.Name); err != nil {
			log.Warn("register notification failed", "agent", p.Name, "error", err)
		}
		if err := sup.Start(ctx, supervisor.StartOptions{}); err != nil {
			log.Error("agent start failed", "agent", p.Name, "error", err)
		}
	}

	if registry.Len() == 0 {
		fmt.Fprintln(os.Stderr, "fleetd: no usable profiles")
		return 1
	}

	if cfg.Reporter.Enabled {
		rep := reporter.New(registry, log)
		if err := rep.Start(cfg.Reporter.Schedule); err != nil {
			log.Error("reporter start failed", "error", err)
		} else {
			defer rep.Stop()
		}
	}

	reg := command.NewRegistry(console.Builtins())
	env := &command.Env{
		Fleet:    registry,
		Commands: reg,
		Notifier: notifier,
		Journal:  journalReader,
		Out:      os.Stdout,
	}
	loop := console.NewLoop(os.Stdin, command.NewDispatcher(reg, log), env, log)

	fmt.Printf("fleetd supervising %d agent(s), type %chelp for commands\n", registry.Len(), command.Prefix)
	code := loop.Run(ctx)

	registry.StopAll()
	return code
}
