package main

import (
	"os"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logger.Logger().Errorf("%v", err)
		os.Exit(1)
	}
}
