/*
Copyright © 2019 the adm1char authors.
This file is part of adm1char.

adm1char is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

adm1char is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with adm1char.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package adm1util holds the command-line interface and the file,
// batch and storage plumbing for adm1char.
package adm1util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/adm1char"
	"github.com/spatialmodel/adm1char/archive"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	dp := adm1char.DefaultParameters()
	charFlags := func() []*pflag.FlagSet {
		return []*pflag.FlagSet{convertCmd.Flags(), batchCmd.Flags(), paramsCmd.Flags()}
	}

	// Options are the configuration options available to adm1char.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file where the log should be written
              in addition to standard output. It can include environment
              variables and can be a blob storage location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "flow",
			usage: `
              flow is the influent flow rate in m³/d.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "cod",
			usage: `
              cod is the chemical oxygen demand in kg COD/m³.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "toc",
			usage: `
              toc is the total organic carbon in kg C/m³.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "norg",
			usage: `
              norg is the organic nitrogen in kg N/m³.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "alkic",
			usage: `
              alkic is the bicarbonate alkalinity in kg CaCO3/m³.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "alkvfa",
			usage: `
              alkvfa is the alkalinity of neutralized volatile fatty acids
              in kg CaCO3/m³.`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "SIUnits",
			usage: `
              SIUnits specifies that flow is given in m³/s instead of m³/d.
              The measurement is then checked for SI dimensions before it is
              converted.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "StateFile",
			usage: `
              StateFile is the path where the ADM1 state variables should be
              written, one value per line. It can include environment variables
              and can be a blob storage location.`,
			shorthand:  "o",
			defaultVal: "outputs.csv",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "SamplesFile",
			usage: `
              SamplesFile is the path to a CSV or xlsx table of samples with
              columns name, flow, cod, toc, norg, alkic, and alkvfa. It can be
              a local file, a URL, or a blob storage location.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "ResultsFile",
			usage: `
              ResultsFile is the path where the batch results table should be
              written. Files ending in .xlsx are written in Excel format,
              others as CSV. It can be a blob storage location.`,
			shorthand:  "o",
			defaultVal: "results.csv",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "NumWorkers",
			usage: `
              NumWorkers is the number of samples to convert concurrently.`,
			defaultVal: runtime.GOMAXPROCS(-1),
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "MetricsFile",
			usage: `
              MetricsFile, if specified, is the path where batch metrics
              should be written in the Prometheus text format.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "Strict",
			usage: `
              Strict specifies whether measurements and results should be
              checked for non-physical values. In strict mode a faulty
              conversion is an error, and faulty batch samples are logged
              and left out of the results.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "ArchiveFile",
			usage: `
              ArchiveFile, if specified, is the path to a SQLite database
              where every conversion should be recorded, and which the
              history command reads from.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), batchCmd.Flags(), historyCmd.Flags()},
		},
		{
			name: "ID",
			usage: `
              ID, if not zero, selects a single archived conversion for the
              history command.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{historyCmd.Flags()},
		},
		{
			name: "Limit",
			usage: `
              Limit is the maximum number of archived conversions to print,
              newest first. Zero means all of them.`,
			defaultVal: 20,
			flagsets:   []*pflag.FlagSet{historyCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies derived outputs to calculate, as a
              map of output names to expressions of the state variables
              and intermediate values. For example:
              {"X_tot":"X_ch+X_li+X_pr"}`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "ChargeBalance",
			usage: `
              ChargeBalance specifies how S_cat and S_an are calculated:
              "alkalinity" splits the alkalinity using the factors in
              Parameters.ChargeSplit, and "ic" balances against inorganic
              carbon.`,
			defaultVal: "alkalinity",
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.ChargeSplit.Cation",
			usage: `
              Parameters.ChargeSplit.Cation is the bicarbonate alkalinity
              factor for S_cat.`,
			defaultVal: adm1char.DefaultChargeSplit.Cation,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.ChargeSplit.Anion",
			usage: `
              Parameters.ChargeSplit.Anion is the bicarbonate alkalinity
              factor for S_an.`,
			defaultVal: adm1char.DefaultChargeSplit.Anion,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.NPR",
			usage: `
              Parameters.NPR is the nitrogen content of protein [mol N/mol C].`,
			defaultVal: dp.NPR,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.ChVFA",
			usage: `
              Parameters.ChVFA is the charge per carbon of volatile fatty acids.`,
			defaultVal: dp.ChVFA,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.YPRO",
			usage: `
              Parameters.YPRO is the electron yield per carbon of protein.`,
			defaultVal: dp.YPRO,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.YCHO",
			usage: `
              Parameters.YCHO is the electron yield per carbon of carbohydrate.`,
			defaultVal: dp.YCHO,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.YLIP",
			usage: `
              Parameters.YLIP is the electron yield per carbon of lipid.`,
			defaultVal: dp.YLIP,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.YVFA",
			usage: `
              Parameters.YVFA is the electron yield per carbon of VFA.`,
			defaultVal: dp.YVFA,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.YCH4",
			usage: `
              Parameters.YCH4 converts the summed COD of the organic pools
              into a methane equivalent.`,
			defaultVal: dp.YCH4,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.T",
			usage: `
              Parameters.T is the temperature [K].`,
			defaultVal: dp.T,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.Kh",
			usage: `
              Parameters.Kh is the Henry's law constant for CO2.`,
			defaultVal: dp.Kh,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.Ka",
			usage: `
              Parameters.Ka is the dissociation constant of the carbonate system.`,
			defaultVal: dp.Ka,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.R",
			usage: `
              Parameters.R is the gas constant [L atm/mol/K].`,
			defaultVal: dp.R,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.Molar.O2",
			usage: `
              Parameters.Molar.O2 is the molar mass of O2 [g/mol].`,
			defaultVal: dp.Molar.O2,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.Molar.C",
			usage: `
              Parameters.Molar.C is the molar mass of carbon [g/mol].`,
			defaultVal: dp.Molar.C,
			flagsets:   charFlags(),
		},
		{
			name: "Parameters.Molar.N",
			usage: `
              Parameters.Molar.N is the molar mass of nitrogen [g/mol].`,
			defaultVal: dp.Molar.N,
			flagsets:   charFlags(),
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ADM1")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(batchCmd)
	Root.AddCommand(paramsCmd)
	Root.AddCommand(historyCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("adm1char: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "adm1char",
	Short: "Convert wastewater measurements into ADM1 influent state variables.",
	Long: `adm1char converts basic wastewater measurements (flow, COD, TOC,
organic nitrogen, and bicarbonate and VFA alkalinity) into initial state
variables for the IWA Anaerobic Digestion Model No. 1, following
Kleerebezem and van Loosdrecht (2006).
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ADM1_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'. File paths are
additionally allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of adm1char.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("adm1char v%s\n", adm1char.Version)
	},
	DisableAutoGenTag: true,
}

// run sets up logging and output uploading, runs f, and then uploads
// any outputs that are destined for blob storage.
func run(cmd *cobra.Command, f func(ctx context.Context, log *logrus.Logger, up *uploader) error) error {
	ctx := context.Background()
	var up uploader
	log, closeLog, err := startLog(cmd.OutOrStdout(), Cfg.GetString("LogLevel"), Cfg.GetString("LogFile"), &up)
	if err != nil {
		return err
	}
	err = f(ctx, log, &up)
	if err != nil {
		log.WithError(err).Error("failed")
	}
	if cerr := closeLog(); cerr != nil && err == nil {
		err = fmt.Errorf("adm1char: closing log file: %v", cerr)
	}
	if err != nil {
		return err
	}
	// The log file is closed, so the upload only logs to standard output.
	log.SetOutput(cmd.OutOrStdout())
	return up.uploadOutput(ctx, log)
}

// saveArchive records conversions in the archive database, if
// ArchiveFile is set.
func saveArchive(ctx context.Context, log logrus.FieldLogger, recs ...*archive.Record) error {
	path := os.ExpandEnv(Cfg.GetString("ArchiveFile"))
	if path == "" {
		return nil
	}
	store, err := archive.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(ctx, recs...); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": path, "records": len(recs)}).Info("archived conversions")
	return nil
}

// convertCmd converts a single measurement.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one measurement.",
	Long: `convert converts the measurement given by the flow, cod, toc, norg,
alkic, and alkvfa options and writes the ADM1 state variables to StateFile,
one value per line in the order Q_D, X_ch, X_li, X_pr, S_ac, S_cat, S_an,
S_gas_ch4, S_IC, S_gas_co2, pH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, log *logrus.Logger, up *uploader) error {
			c, err := CharacterizerConfig(Cfg)
			if err != nil {
				return err
			}
			o, err := OutputterConfig(Cfg)
			if err != nil {
				return err
			}
			stateFile, err := checkOutputFile("StateFile", Cfg.GetString("StateFile"))
			if err != nil {
				return err
			}
			m, err := MeasurementConfig(Cfg)
			if err != nil {
				return err
			}
			if stateFile, err = up.maybeUpload(stateFile); err != nil {
				return err
			}
			r, outputs, err := Convert(log, c, m, Cfg.GetBool("Strict"), o, stateFile)
			if err != nil {
				if r != nil {
					// Keep a record of faulty conversions.
					if aerr := saveArchive(ctx, log, archive.NewRecord("convert", c, r, outputs, err)); aerr != nil {
						log.WithError(aerr).Error("archiving conversion")
					}
				}
				return err
			}
			return saveArchive(ctx, log, archive.NewRecord("convert", c, r, outputs, nil))
		})
	},
	DisableAutoGenTag: true,
}

// batchCmd converts a table of samples.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Convert a table of samples.",
	Long: `batch converts every sample in SamplesFile and writes a table with one
row per sample to ResultsFile. The table columns are the sample name, the ADM1
state variables, and any OutputVariables. Summary statistics are logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, log *logrus.Logger, up *uploader) error {
			c, err := CharacterizerConfig(Cfg)
			if err != nil {
				return err
			}
			o, err := OutputterConfig(Cfg)
			if err != nil {
				return err
			}
			resultsFile, err := checkOutputFile("ResultsFile", Cfg.GetString("ResultsFile"))
			if err != nil {
				return err
			}
			samplesFile := os.ExpandEnv(Cfg.GetString("SamplesFile"))
			if samplesFile == "" {
				return fmt.Errorf("adm1char: you need to specify the SamplesFile configuration variable")
			}
			if samplesFile, err = maybeDownload(ctx, samplesFile, log); err != nil {
				return err
			}
			samples, err := ReadSamples(samplesFile)
			if err != nil {
				return err
			}

			metrics := NewMetrics()
			strict := Cfg.GetBool("Strict")
			results, err := Batch(ctx, log, c, samples, Cfg.GetInt("NumWorkers"), strict, o, metrics)
			if err != nil {
				return err
			}
			var outputNames []string
			if o != nil {
				outputNames = o.Names()
			}
			logSummary(log, results, outputNames)

			if resultsFile, err = up.maybeUpload(resultsFile); err != nil {
				return err
			}
			if err := WriteResults(resultsFile, results, outputNames); err != nil {
				return err
			}
			if mf := os.ExpandEnv(Cfg.GetString("MetricsFile")); mf != "" {
				if mf, err = up.maybeUpload(mf); err != nil {
					return err
				}
				if err := metrics.WriteToTextfile(mf); err != nil {
					return err
				}
			}

			recs := make([]*archive.Record, len(results))
			for i, r := range results {
				res := r.Result
				if res == nil { // The measurement failed its checks.
					res = c.Characterize(r.Measurement)
				}
				recs[i] = archive.NewRecord(r.Name, c, res, r.Outputs, r.Fault)
			}
			return saveArchive(ctx, log, recs...)
		})
	},
	DisableAutoGenTag: true,
}

// paramsCmd prints the effective parameters.
var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the effective parameters.",
	Long: `params prints the parameters that would be used for a conversion, after
applying any configuration file, environment variables, and flags, in TOML
format. The output can be used as a configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := CharacterizerConfig(Cfg)
		if err != nil {
			return err
		}
		return writeParams(cmd.OutOrStdout(), c)
	},
	DisableAutoGenTag: true,
}

// historyCmd prints archived conversions.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print archived conversions.",
	Long: `history prints the conversions recorded in ArchiveFile as a CSV table,
newest first. Use ID to print a single conversion and Limit to change the
number of conversions printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := readHistory(context.Background(), os.ExpandEnv(Cfg.GetString("ArchiveFile")),
			int64(Cfg.GetInt("ID")), Cfg.GetInt("Limit"))
		if err != nil {
			return err
		}
		return WriteHistoryCSV(cmd.OutOrStdout(), recs)
	},
	DisableAutoGenTag: true,
}
