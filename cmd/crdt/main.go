// Command crdt runs the state-based CRDT workload: a grow-only set or
// PN-counter, merged by periodic anti-entropy.
// Defaults to the PN-counter variant; set MAELNODE_CRDT_VARIANT=gset
// to run the grow-only set instead.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jabolina/maelnode/internal/crdt"
	"github.com/jabolina/maelnode/internal/logging"
	"github.com/jabolina/maelnode/internal/node"
)

func main() {
	log := logging.NewLogrusLogger("crdt")
	log.ToggleDebug(logging.LevelFromEnv())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := node.New(os.Stdin, os.Stdout, log)

	var state crdt.Variant
	if os.Getenv("MAELNODE_CRDT_VARIANT") == "gset" {
		state = crdt.NewGSet()
	} else {
		state = crdt.NewPNCounter(nil)
	}
	w := crdt.Register(rt, state)

	go func() {
		if err := rt.WaitForInit(ctx); err == nil {
			w.StartAntiEntropy(ctx)
		}
	}()

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("crdt node exited: %v", err)
	}
}
