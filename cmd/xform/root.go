package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wudi/geomkit/config"
	"github.com/wudi/geomkit/notation"
	"github.com/wudi/geomkit/observability"
	"github.com/wudi/geomkit/transform"
)

// app carries state shared by every subcommand once PersistentPreRunE has
// run.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger observability.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "xform",
		Short: "Exact 2D linear and affine transforms",
		Long: `Apply, invert, differentiate, solve and fit 2D affine transforms.

Transforms are written in the expression notation, for example
  scale(1.5) * rotate(1) * translate(15, 10.3)
or name a chain from the file given with --config.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if z, ok := a.logger.(*observability.ZapLogger); ok {
				_ = z.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML or JSON config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.applyCmd(),
		a.invertCmd(),
		a.deriveCmd(),
		a.solveCmd(),
		a.fitCmd(),
		a.evalCmd(),
		a.warpCmd(),
	)
	return root
}

func (a *app) setup(*cobra.Command, []string) error {
	a.cfg = config.Default()
	if a.configPath != "" {
		cfg, err := config.LoadFile(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.verbose {
		a.cfg.Log.Level = "debug"
	}
	logger, err := a.cfg.Logger()
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// resolve treats expr as a config chain name first, then as notation.
func (a *app) resolve(expr string) (transform.AffineTransform, error) {
	if expr == "" {
		return transform.AffineTransform{}, fmt.Errorf("missing transform: use -t")
	}
	if _, ok := a.cfg.Transforms[expr]; ok {
		a.logger.Debug("using config transform", observability.String("name", expr))
		return a.cfg.Transform(expr)
	}
	if strings.HasPrefix(strings.TrimSpace(expr), "[") {
		m, err := parsePDFMatrix(expr)
		if err != nil {
			return transform.AffineTransform{}, err
		}
		return transform.AffineFromPDFMatrix(m), nil
	}
	return notation.ParseExpr(expr)
}
