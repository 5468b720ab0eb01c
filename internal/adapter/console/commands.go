package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fleetd/internal/domain"
	"fleetd/internal/usecase/command"
)

const historyDefaultLimit = 20

// Builtins returns the fleet command set registered alongside the console's
// fixed help and exit entries.
func Builtins() []command.Entry {
	return []command.Entry{
		{
			Name:        "list",
			Description: "list agents and their state",
			Usage:       "list",
			Aliases:     []string{"ls"},
			Handler:     listHandler,
		},
		{
			Name:        "status",
			Description: "show spawn details for one or all agents",
			Usage:       "status [name]",
			Aliases:     []string{"st"},
			Handler:     statusHandler,
		},
		{
			Name:        "stop",
			Description: "stop a running agent (stays resumable)",
			Usage:       "stop <name>",
			Handler:     stopHandler,
		},
		{
			Name:        "resume",
			Description: "relaunch a stopped agent",
			Usage:       "resume <name>",
			Aliases:     []string{"res"},
			Handler:     resumeHandler,
		},
		{
			Name:        "say",
			Description: "relay a message from an agent's domain",
			Usage:       "say <name> <text...>",
			Handler:     sayHandler,
		},
		{
			Name:        "history",
			Description: "show recent lifecycle journal entries",
			Usage:       "history [name] [count]",
			Aliases:     []string{"hist"},
			Handler:     historyHandler,
		},
	}
}

func listHandler(_ context.Context, env *command.Env, _ []string) error {
	statuses := env.Fleet.List()
	if len(statuses) == 0 {
		fmt.Fprintln(env.Out, "no agents registered")
		return nil
	}
	for _, st := range statuses {
		fmt.Fprintf(env.Out, "  %-20s %s\n", st.Name, st.State)
	}
	return nil
}

func statusHandler(_ context.Context, env *command.Env, args []string) error {
	var statuses []domain.SpawnStatus
	if len(args) > 0 {
		sup, err := env.Fleet.Get(args[0])
		if err != nil {
			return err
		}
		statuses = append(statuses, sup.Status())
	} else {
		statuses = env.Fleet.List()
	}

	for _, st := range statuses {
		fmt.Fprintf(env.Out, "  %-20s %-8s", st.Name, st.State)
		if st.State == domain.AgentRunning {
			fmt.Fprintf(env.Out, " pid=%d", st.PID)
		}
		if st.SpawnID != "" {
			fmt.Fprintf(env.Out, " spawn=%s", st.SpawnID)
		}
		if !st.LastRestart.IsZero() {
			fmt.Fprintf(env.Out, " since=%s", st.LastRestart.Format("15:04:05"))
		}
		fmt.Fprintln(env.Out)
	}
	return nil
}

func stopHandler(_ context.Context, env *command.Env, args []string) error {
	if len(args) != 1 {
		return domain.NewError("stop", domain.ErrInvalidInput, "usage: stop <name>")
	}
	sup, err := env.Fleet.Get(args[0])
	if err != nil {
		return err
	}
	sup.Stop()
	fmt.Fprintf(env.Out, "stopped %s\n", args[0])
	return nil
}

func resumeHandler(ctx context.Context, env *command.Env, args []string) error {
	if len(args) != 1 {
		return domain.NewError("resume", domain.ErrInvalidInput, "usage: resume <name>")
	}
	sup, err := env.Fleet.Get(args[0])
	if err != nil {
		return err
	}
	if err := sup.Resume(ctx); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "resumed %s\n", args[0])
	return nil
}

func sayHandler(ctx context.Context, env *command.Env, args []string) error {
	if len(args) < 2 {
		return domain.NewError("say", domain.ErrInvalidInput, "usage: say <name> <text...>")
	}
	sup, err := env.Fleet.Get(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if err := sup.RelayMessage(ctx, text); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "sent to %s: %s\n", args[0], text)
	return nil
}

func historyHandler(_ context.Context, env *command.Env, args []string) error {
	if env.Journal == nil {
		fmt.Fprintln(env.Out, "journal disabled")
		return nil
	}

	agent := ""
	limit := historyDefaultLimit
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil {
			limit = n
		} else {
			agent = a
		}
	}

	entries, err := env.Journal.Recent(agent, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(env.Out, "no journal entries")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(env.Out, "  %s  %-20s %-18s %s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Agent, e.Type, e.Detail)
	}
	return nil
}
