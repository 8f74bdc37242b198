//go:build !windows

package batch

import (
	"os"
	"os/signal"
	"syscall"
)

func notifyExtraSignals(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGTERM)
}
