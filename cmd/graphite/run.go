package main

import (
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/born-ml/graphite/internal/config"
	"github.com/born-ml/graphite/internal/engine"
	"github.com/born-ml/graphite/internal/graph"
	"github.com/born-ml/graphite/internal/params"
	"github.com/born-ml/graphite/internal/telemetry"
	"github.com/born-ml/graphite/internal/tensor"
)

var required = []string{"x", "w", "b"}

func newRunCmd() *cobra.Command {
	var paramsPath string
	var configPath string
	var metrics bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate sqrt(x·w + b) with parameters from an HCL file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadFile(configPath); err != nil {
					return err
				}
			}
			if metrics {
				cfg.Metrics.Enabled = true
			}
			return evaluate(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, paramsPath)
		},
	}

	cmd.Flags().StringVar(&paramsPath, "params", "", "Parameter file (HCL)")
	cmd.Flags().StringVar(&configPath, "config", "", "Configuration file (HCL)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print allocator metrics in the Prometheus text format")
	_ = cmd.MarkFlagRequired("params")

	return cmd
}

func evaluate(out, errOut io.Writer, cfg *config.Config, paramsPath string) (err error) {
	logger := telemetry.NewLogger(cfg.SlogLevel(), cfg.Log.Format, errOut)
	alloc := engine.NewAllocator(engine.WithLogger(logger))
	defer alloc.Uproot()

	// Shape mismatches between parameters surface as panics while the
	// template is built.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation panicked: %v", r)
		}
	}()

	loaded, err := params.LoadFile(paramsPath, alloc)
	if err != nil {
		return err
	}
	if err := checkParams(loaded); err != nil {
		return err
	}

	leaves := make([]*tensor.Tensor, len(required))
	for i, name := range required {
		p := loaded[name]
		if leaves[i], err = tensor.Placeholder(alloc, name, p.Shape(), p.DType()); err != nil {
			return err
		}
	}
	x, w, b := leaves[0], leaves[1], leaves[2]
	y := x.MatMul(w).Add(b).Sqrt()

	g, err := graph.New(y, leaves, alloc)
	if err != nil {
		return err
	}
	defer g.Uproot()

	if _, err := g.Compute(loaded); err != nil {
		return err
	}

	if err := g.Heads()[0].Format(out); err != nil {
		return errors.Wrap(err, "failed to print result")
	}
	fmt.Fprintf(out, "\n%s\n", alloc.Stats())

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(telemetry.NewAllocatorCollector(cfg.Metrics.Namespace, alloc))
		fmt.Fprintln(out)
		if err := telemetry.WriteText(out, reg); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}

func checkParams(loaded map[string]*tensor.Tensor) error {
	for _, name := range required {
		p, ok := loaded[name]
		if !ok {
			return fmt.Errorf("parameter file must define %q", name)
		}
		if !p.DType().IsFloat() {
			return fmt.Errorf("parameter %q must be float32 or float64, got %s", name, p.DType())
		}
	}
	if len(loaded) != len(required) {
		var extra []string
		for name := range loaded {
			if !slices.Contains(required, name) {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return fmt.Errorf("unexpected parameters %v", extra)
	}
	return nil
}
