// Command echo runs the echo workload: the minimal node that replies
// echo_ok to every echo request, exercising nothing but the shared
// runtime's init handshake and dispatch.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jabolina/maelnode/internal/echo"
	"github.com/jabolina/maelnode/internal/logging"
	"github.com/jabolina/maelnode/internal/node"
)

func main() {
	log := logging.NewLogrusLogger("echo")
	log.ToggleDebug(logging.LevelFromEnv())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := node.New(os.Stdin, os.Stdout, log)
	echo.Register(rt)

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("echo node exited: %v", err)
	}
}
