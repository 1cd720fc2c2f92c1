// Command transactor runs the Datomic-style serializable transactor
// workload, committing multi-key list-append transactions against an
// external lin-kv service via thunk-based CAS.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jabolina/maelnode/internal/logging"
	"github.com/jabolina/maelnode/internal/node"
	"github.com/jabolina/maelnode/internal/transactor"
)

func main() {
	log := logging.NewLogrusLogger("transactor")
	log.ToggleDebug(logging.LevelFromEnv())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := node.New(os.Stdin, os.Stdout, log)
	transactor.Register(rt)

	if err := rt.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("transactor node exited: %v", err)
	}
}
