// Package element implements the network element lifecycle of spec.md §4.2:
// configure → sync → wait-for-start → execute → deactivate.
package element

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/eosim/eosim/internal/errs"
	"github.com/eosim/eosim/internal/leaseguard"
	"github.com/eosim/eosim/internal/socket"
	"github.com/eosim/eosim/internal/types"
)

// Behavior is implemented by every concrete element kind (manager, node,
// monitor). Run drives it through the five lifecycle steps of spec.md §4.2.
type Behavior interface {
	// SyncExternal performs the element-type-specific external handshake
	// (spec.md §4.3 manager, §4.4 node).
	SyncExternal(ctx context.Context) error
	// SyncInternal performs node↔module internal sync (spec.md §4.5); a
	// no-op for elements without modules.
	SyncInternal(ctx context.Context) error
	// WaitForStart blocks until the element may begin executing.
	WaitForStart(ctx context.Context) error
	// Execute runs the element's main behavior until ctx is cancelled or
	// the behavior completes on its own (e.g. SimEnd observed).
	Execute(ctx context.Context) error
	// Deactivate releases resources and reports departure. Always called,
	// including after cancellation of Execute.
	Deactivate(ctx context.Context) error
}

// Element is the shared base every concrete element embeds: its two socket
// maps, network identity, and logger (spec.md §2, §3).
type Element struct {
	Name     string
	Config   types.NetworkConfig
	External socket.Map
	Internal socket.Map
	Log      zerolog.Logger

	NC     *nats.Conn
	Leases *leaseguard.Registry
	Prefix string
}

// ConfigureNetwork binds/connects every endpoint this element owns or
// targets, per spec.md §4.2 step 1. Binding failure is a fatal startup
// error.
func (e *Element) ConfigureNetwork() error {
	ext, err := socket.Build(e.NC, e.Name, e.Config.External, e.Prefix+"ext.", e.Leases)
	if err != nil {
		return errs.Configuration("Element.ConfigureNetwork", fmt.Errorf("external sockets: %w", err))
	}
	e.External = ext

	if len(e.Config.Internal) > 0 {
		intl, err := socket.Build(e.NC, e.Name, e.Config.Internal, e.Prefix+"int."+e.Name+".", e.Leases)
		if err != nil {
			return errs.Configuration("Element.ConfigureNetwork", fmt.Errorf("internal sockets: %w", err))
		}
		e.Internal = intl
	}
	return nil
}

// CloseSockets releases every socket owned by this element. Idempotent.
func (e *Element) CloseSockets() {
	if e.External != nil {
		_ = e.External.CloseAll()
	}
	if e.Internal != nil {
		_ = e.Internal.CloseAll()
	}
}

// Run executes the five-step lifecycle of spec.md §4.2. Cancellation of
// Execute always causes Deactivate to run. An error from steps 1-3 aborts
// immediately with sockets closed but without running the application-level
// Deactivate handshake (the peer discovers absence via the manager's
// deactivation round, spec.md §7).
func Run(ctx context.Context, e *Element, b Behavior) error {
	if err := e.ConfigureNetwork(); err != nil {
		return err
	}

	if err := b.SyncExternal(ctx); err != nil {
		e.CloseSockets()
		return fmt.Errorf("external sync: %w", err)
	}
	if err := b.SyncInternal(ctx); err != nil {
		e.CloseSockets()
		return fmt.Errorf("internal sync: %w", err)
	}
	if err := b.WaitForStart(ctx); err != nil {
		e.CloseSockets()
		return fmt.Errorf("wait for start: %w", err)
	}

	execErr := b.Execute(ctx)

	// Deactivate always runs, even if Execute was cancelled or failed.
	deactivateCtx := context.WithoutCancel(ctx)
	if err := b.Deactivate(deactivateCtx); err != nil {
		e.Log.Error().Err(err).Msg("deactivate failed")
	}
	e.CloseSockets()

	if execErr != nil && ctxErr(ctx) == nil {
		return fmt.Errorf("execute: %w", execErr)
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
