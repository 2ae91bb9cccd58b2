package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/CraigKelly/bvsel/model"
	"github.com/CraigKelly/bvsel/rand"
)

var cfgFile string
var verbose bool
var randomSeed int64
var monitorAddr string

// startupParams is what every command works from once flags and config are
// resolved
type startupParams struct {
	seed    int64
	conf    *settings
	out     *log.Logger // Report tables for the user
	log     *zap.Logger // Diagnostics
	mon     *monitor
	gen     *rand.Generator
	monAddr string
}

// dataOptions says where a dataset comes from and how to clean it
type dataOptions struct {
	file     string
	response string
	format   string
	columns  []string
	dropNA   bool
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bvsel",
	Short: "Bayesian variable selection by Gibbs sampling",
	Long: `bvsel fits linear regressions with three variable selection priors
and compares them:

  - Bayesian Ridge with a horseshoe (half-t) hierarchical prior
  - Bayesian Lasso
  - Stochastic Search Variable Selection (SSVS)

Coefficients are summarized with credible intervals and the models are
compared with DIC, WAIC, Bayes factors and cross-validated RMSE.
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.bvsel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging (default is much more parsimonious)")
	rootCmd.PersistentFlags().Int64VarP(&randomSeed, "seed", "r", 1, "Random seed to use")
	rootCmd.PersistentFlags().StringVarP(&monitorAddr, "monitor", "m", "", "Serve prometheus metrics on this address (e.g. :8000)")

	rootCmd.PersistentFlags().Int("iterations", 0, "Gibbs sweeps per chain (overrides config)")
	rootCmd.PersistentFlags().Int("burn-in", 0, "Initial sweeps to discard (overrides config)")
	viper.BindPFlag("iterations", rootCmd.PersistentFlags().Lookup("iterations"))
	viper.BindPFlag("burn_in", rootCmd.PersistentFlags().Lookup("burn-in"))

	cobra.OnInitialize(initConfig)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	v := viper.GetViper()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".bvsel")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BVSEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Could not read config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}

// newLogger is the development logger when verbose, production otherwise
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newStartupParams resolves settings, logging, the generator and the
// monitor. Call close on the result when done.
func newStartupParams(out io.Writer) (*startupParams, error) {
	conf, err := loadSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, errors.Wrap(err, "Could not create logger")
	}

	gen, err := rand.NewGenerator(randomSeed)
	if err != nil {
		return nil, err
	}

	sp := &startupParams{
		seed:    randomSeed,
		conf:    conf,
		out:     log.New(out, "", 0),
		log:     logger,
		mon:     newMonitor(),
		gen:     gen,
		monAddr: monitorAddr,
	}

	if sp.monAddr != "" {
		if err := sp.mon.Start(sp.monAddr); err != nil {
			return nil, err
		}
	}

	return sp, nil
}

func (sp *startupParams) close() {
	sp.mon.Stop()
	sp.log.Sync()
}

// dataFlags adds the flags every command reading a dataset needs
func dataFlags(cmd *cobra.Command, opts *dataOptions) {
	cmd.Flags().StringVarP(&opts.file, "data", "d", "", "Data file to read (CSV or whitespace table)")
	cmd.Flags().StringVarP(&opts.response, "response", "y", "", "Response column (default is the last column)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Data format: csv, tsv or table (default from the file extension)")
	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "Predictors to use (default is all)")
	cmd.Flags().BoolVar(&opts.dropNA, "drop-missing", false, "Drop rows with missing values instead of failing")
	cmd.MarkFlagRequired("data")
}

// readerFor picks a dataset reader from an explicit format or the extension
func readerFor(format string, filename string) (model.Reader, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".csv":
			format = "csv"
		case ".tsv":
			format = "tsv"
		default:
			format = "table"
		}
	}

	switch strings.ToLower(format) {
	case "csv":
		return model.CSVReader{Comma: ','}, nil
	case "tsv":
		return model.CSVReader{Comma: '\t'}, nil
	case "table":
		return model.TableReader{}, nil
	}
	return nil, errors.Wrapf(model.ErrConfiguration, "Unknown data format %s", format)
}

// loadDataset reads, subsets, cleans and standardizes the data file
func loadDataset(sp *startupParams, opts *dataOptions) (*model.Dataset, error) {
	reader, err := readerFor(opts.format, opts.file)
	if err != nil {
		return nil, err
	}

	sp.out.Printf("Reading data from %s\n", opts.file)
	ds, err := model.NewDatasetFromFile(reader, opts.file, opts.response)
	if err != nil {
		return nil, err
	}
	return prepareDataset(sp, opts, ds)
}

func prepareDataset(sp *startupParams, opts *dataOptions, ds *model.Dataset) (*model.Dataset, error) {
	var err error
	if len(opts.columns) > 0 {
		ds, err = ds.Select(opts.columns)
		if err != nil {
			return nil, err
		}
	}

	if opts.dropNA {
		before, _ := ds.Dims()
		ds, err = ds.DropMissing()
		if err != nil {
			return nil, err
		}
		after, _ := ds.Dims()
		if after < before {
			sp.log.Info("Dropped rows with missing values", zap.Int("dropped", before-after), zap.Int("kept", after))
		}
	}

	std, err := ds.Standardize()
	if err != nil {
		return nil, errors.Wrapf(err, "Could not standardize %s", ds.Name)
	}

	n, p := std.Dims()
	sp.out.Printf("Dataset %s: %d observations, %d predictors, response %s\n", std.Name, n, p, std.Response)
	return std, nil
}
