package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/bvsel/crossval"
	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/rand"
	"github.com/CraigKelly/bvsel/sampler"
)

var allMethods = []string{"ridge", "lasso", "ssvs"}

// builderFor returns a constructor for the named method using the resolved
// settings. Every sampler built logs under its method name.
func builderFor(method string, conf *settings, logger *zap.Logger, progress sampler.ProgressFunc) (crossval.Builder, error) {
	named := logger.Named(method)

	switch strings.ToLower(method) {
	case "ridge":
		cfg := conf.Ridge
		cfg.Logger = named
		cfg.Progress = progress
		return func(gen *rand.Generator, x *mat.Dense, y []float64) (sampler.Sampler, error) {
			return sampler.NewRidge(gen, x, y, cfg)
		}, nil

	case "lasso":
		cfg := conf.Lasso
		cfg.Logger = named
		cfg.Progress = progress
		return func(gen *rand.Generator, x *mat.Dense, y []float64) (sampler.Sampler, error) {
			return sampler.NewLasso(gen, x, y, cfg)
		}, nil

	case "ssvs":
		cfg := conf.SSVS
		cfg.Logger = named
		cfg.Progress = progress
		return func(gen *rand.Generator, x *mat.Dense, y []float64) (sampler.Sampler, error) {
			return sampler.NewSSVS(gen, x, y, cfg)
		}, nil
	}

	return nil, errors.Wrapf(model.ErrConfiguration, "Unknown method %s (choose from %s)", method, strings.Join(allMethods, ", "))
}

// progressFunc feeds the monitor and the diagnostic log
func progressFunc(sp *startupParams) sampler.ProgressFunc {
	return func(p sampler.Progress) {
		sp.mon.Progress(p)
		sp.log.Info("Sampler progress",
			zap.String("method", p.Method),
			zap.Int("iteration", p.Iteration),
			zap.Int("total", p.Total),
			zap.Float64s("beta", p.Beta),
		)
	}
}

// buildSamplers creates one sampler per method, each with its own generator
// spawned from the startup seed
func buildSamplers(sp *startupParams, ds *model.Dataset, methods []string) ([]sampler.Sampler, error) {
	samplers := make([]sampler.Sampler, 0, len(methods))
	for _, method := range methods {
		build, err := builderFor(method, sp.conf, sp.log, progressFunc(sp))
		if err != nil {
			return nil, err
		}
		gen, err := sp.gen.Spawn()
		if err != nil {
			return nil, err
		}
		s, err := build(gen, ds.X, ds.Y)
		if err != nil {
			return nil, errors.Wrapf(err, "Could not create %s sampler", method)
		}
		samplers = append(samplers, s)
	}
	return samplers, nil
}
