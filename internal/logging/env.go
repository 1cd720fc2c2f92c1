package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

const logLevelEnv = "MAELNODE_LOG_LEVEL"

// LevelFromEnv reads MAELNODE_LOG_LEVEL (e.g. "debug", "warn") and
// reports whether debug-level logging should be enabled. Every node
// binary reads it; the only other environment knob is cmd/crdt's
// MAELNODE_CRDT_VARIANT. Everything else arrives over the wire via the
// init message.
func LevelFromEnv() bool {
	raw := os.Getenv(logLevelEnv)
	if raw == "" {
		return false
	}
	lvl, err := logrus.ParseLevel(raw)
	if err != nil {
		return false
	}
	return lvl >= logrus.DebugLevel
}
