// Command raft runs the single-node placeholder map: a mutex-guarded
// key/value store, the minimum surface a future replicated log could
// be layered underneath.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jabolina/maelnode/internal/logging"
	"github.com/jabolina/maelnode/internal/node"
	"github.com/jabolina/maelnode/internal/raftstub"
)

func main() {
	log := logging.NewLogrusLogger("raft")
	log.ToggleDebug(logging.LevelFromEnv())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := node.New(os.Stdin, os.Stdout, log)
	raftstub.Register(rt)

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("raft node exited: %v", err)
	}
}
