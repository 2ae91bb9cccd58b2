package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/sampler"
)

// settings is everything a run can be configured with. The chain length
// keys at the top level apply to every method; each method section holds
// its hyperparameters.
type settings struct {
	Iterations    int     `mapstructure:"iterations"`
	BurnIn        int     `mapstructure:"burn_in"`
	ProgressEvery int     `mapstructure:"progress_every"`
	Interval      float64 `mapstructure:"interval"`
	PriorSD       float64 `mapstructure:"prior_sd"`

	Ridge sampler.RidgeConfig `mapstructure:"ridge"`
	Lasso sampler.LassoConfig `mapstructure:"lasso"`
	SSVS  sampler.SSVSConfig  `mapstructure:"ssvs"`
}

// setDefaults registers default values with viper
func setDefaults(v *viper.Viper) {
	base := sampler.DefaultConfig()
	v.SetDefault("iterations", base.Iterations)
	v.SetDefault("burn_in", base.BurnIn)
	v.SetDefault("progress_every", base.ProgressEvery)
	v.SetDefault("interval", 0.95)
	v.SetDefault("prior_sd", 1.0)

	ridge := sampler.DefaultRidgeConfig()
	v.SetDefault("ridge.nu", ridge.Nu)
	v.SetDefault("ridge.lambda0", ridge.Lambda0)
	v.SetDefault("ridge.gamma_init", ridge.GammaInit)
	v.SetDefault("ridge.tau_shape", ridge.TauShape)
	v.SetDefault("ridge.tau_rate", ridge.TauRate)
	v.SetDefault("ridge.tau_init", ridge.TauInit)
	v.SetDefault("ridge.global_scale", ridge.GlobalScale)

	lasso := sampler.DefaultLassoConfig()
	v.SetDefault("lasso.prior_scale", lasso.PriorScale)
	v.SetDefault("lasso.epsilon", lasso.Epsilon)
	v.SetDefault("lasso.lambda0", lasso.Lambda0)

	ssvs := sampler.DefaultSSVSConfig()
	v.SetDefault("ssvs.inclusion_prob", ssvs.InclusionProb)
	v.SetDefault("ssvs.a1", ssvs.A1)
	v.SetDefault("ssvs.b1", ssvs.B1)
	v.SetDefault("ssvs.prior_precision", ssvs.PriorPrecision)
	v.SetDefault("ssvs.tau_init", ssvs.TauInit)
}

// loadSettings unmarshals the current viper state and copies the shared
// chain settings into every method
func loadSettings(v *viper.Viper) (*settings, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrapf(model.ErrConfiguration, "Could not read settings: %v", err)
	}

	shared := sampler.Config{
		Iterations:    s.Iterations,
		BurnIn:        s.BurnIn,
		ProgressEvery: s.ProgressEvery,
	}
	s.Ridge.Config = shared
	s.Lasso.Config = shared
	s.SSVS.Config = shared

	if !(s.PriorSD > 0) {
		return nil, errors.Wrapf(model.ErrConfiguration, "prior_sd must be > 0, got %v", s.PriorSD)
	}
	return &s, nil
}
