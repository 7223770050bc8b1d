package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/bootstrap"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/distro"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

func newRootCmd() *cobra.Command {
	var (
		arch            string
		include         []string
		excludeRequired bool
		configFile      string
		workers         int
		keepScratch     bool
		verbose         bool
	)

	cmd := &cobra.Command{
		Use:   "sysroot-bootstrapper SUITE TARGET",
		Short: "Bootstrap a minimal sysroot from a Debian-style package archive",
		Long: `Builds a minimal, relocatable filesystem tree from a distribution
release: fetches and verifies the signed repository indices, computes the
dependency closure of the required base set plus any extra packages,
unpacks every package into the target directory and rewrites absolute
symlinks into relative form.`,
		Args: cobra.ExactArgs(2),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// From here on errors are logged by main; keep cobra quiet.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			if configFile != "" {
				if err := distro.LoadOverrides(configFile); err != nil {
					return err
				}
			}

			suite, err := distro.LookupSuite(args[0])
			if err != nil {
				return err
			}
			if arch == "" {
				arch = distro.HostArch()
			}
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", workers)
			}

			req := bootstrap.Request{
				Suite:           suite,
				Arch:            arch,
				Mirror:          distro.Mirror(arch),
				Target:          args[1],
				Include:         include,
				ExcludeRequired: excludeRequired,
				Workers:         workers,
				KeepScratch:     keepScratch,
			}

			log := logger.Logger()
			log.Infof("bootstrapping %s/%s into %s (mirror %s)",
				suite.Name, arch, req.Target, req.Mirror)

			return bootstrap.Run(req)
		},
	}

	cmd.Flags().StringVar(&arch, "arch", "", "target architecture (default: host architecture)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "additional packages to install")
	cmd.Flags().BoolVar(&excludeRequired, "exclude-required", false, "omit the Priority: required base set")
	cmd.Flags().StringVar(&configFile, "config", "", "distro overrides file (YAML)")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent package downloads")
	cmd.Flags().BoolVar(&keepScratch, "keep-scratch", false, "keep the scratch directory after a successful run")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func initLogging(verbose bool) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	logger.Init(z.Sugar())
}
