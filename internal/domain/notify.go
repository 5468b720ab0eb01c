package domain

import "context"

// Notifier is the registration collaborator ("main proxy"): a pure
// notification sink for agent connect/logout events. The supervisor never
// depends on a reply; send failures are reported and swallowed by the
// implementation.
type Notifier interface {
	// Connect establishes the link. Called once at startup.
	Connect(ctx context.Context) error
	// RegisterAgent announces a newly supervised agent. Called once per
	// agent at startup.
	RegisterAgent(ctx context.Context, name string) error
	// LogoutAgent announces that an agent's worker has terminated. Called
	// from the exit observer on every observed exit.
	LogoutAgent(ctx context.Context, name string) error
	Close() error
}

// NopNotifier discards all notifications. Used when no proxy is configured
// and throughout tests.
type NopNotifier struct{}

func (NopNotifier) Connect(context.Context) error               { return nil }
func (NopNotifier) RegisterAgent(context.Context, string) error { return nil }
func (NopNotifier) LogoutAgent(context.Context, string) error   { return nil }
func (NopNotifier) Close() error                                { return nil }
