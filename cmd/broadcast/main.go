// Command broadcast runs the gossip broadcast workload: topology-aware
// fan-out with retrying, ack-driven at-least-once delivery between
// neighbours.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jabolina/maelnode/internal/broadcast"
	"github.com/jabolina/maelnode/internal/logging"
	"github.com/jabolina/maelnode/internal/node"
)

func main() {
	log := logging.NewLogrusLogger("broadcast")
	log.ToggleDebug(logging.LevelFromEnv())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := node.New(os.Stdin, os.Stdout, log)
	broadcast.Register(rt)

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("broadcast node exited: %v", err)
	}
}
