// Package main runs the document store service that the API reaches
// through its http backend.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/listenupapp/shelfwise/internal/di"
	"github.com/listenupapp/shelfwise/internal/logger"
)

func main() {
	injector := di.NewDocStoreContainer()

	if err := di.BootstrapDocStore(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap docstore: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down docstore...")
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}
}
