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

package adm1util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/unit"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/adm1char"
	"github.com/spatialmodel/adm1char/cloud"
	"github.com/spf13/cast"
)

// checkOutputVars removes end lines and expands environment
// variables in the output variables. No output variables is
// not an error: the state variables are always written.
func checkOutputVars(vars map[string]string) map[string]string {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(varName, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("adm1util: you need to specify the %s configuration variable (for example: %s=\"results.csv\")", varName, varName)
	}
	f = os.ExpandEnv(f)
	if cloud.IsBlob(f) {
		bucket, _, err := cloud.SplitBlob(f)
		if err != nil {
			return f, err
		}
		b, err := cloud.OpenBucket(context.TODO(), bucket)
		if err != nil {
			return f, fmt.Errorf("adm1util: error when checking %s location: %v", varName, err)
		}
		b.Close()
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("adm1util: the %s directory doesn't exist: %v", varName, err)
	}
	return f, nil
}

// ParametersConfig unmarshals the characterization parameters from
// a viper configuration.
func ParametersConfig(cfg *viper.Viper) (adm1char.Parameters, error) {
	p := adm1char.Parameters{
		NPR:   cfg.GetFloat64("Parameters.NPR"),
		ChVFA: cfg.GetFloat64("Parameters.ChVFA"),
		YPRO:  cfg.GetFloat64("Parameters.YPRO"),
		YCHO:  cfg.GetFloat64("Parameters.YCHO"),
		YLIP:  cfg.GetFloat64("Parameters.YLIP"),
		YVFA:  cfg.GetFloat64("Parameters.YVFA"),
		YCH4:  cfg.GetFloat64("Parameters.YCH4"),
		T:     cfg.GetFloat64("Parameters.T"),
		Kh:    cfg.GetFloat64("Parameters.Kh"),
		Ka:    cfg.GetFloat64("Parameters.Ka"),
		R:     cfg.GetFloat64("Parameters.R"),
		Molar: adm1char.MolarMasses{
			O2: cfg.GetFloat64("Parameters.Molar.O2"),
			C:  cfg.GetFloat64("Parameters.Molar.C"),
			N:  cfg.GetFloat64("Parameters.Molar.N"),
		},
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("adm1util: parsing parameters: %v", err)
	}
	return p, nil
}

// ChargeConfig returns the charge balance policy specified in a viper
// configuration. The "alkalinity" policy uses the split factors in
// Parameters.ChargeSplit.
func ChargeConfig(cfg *viper.Viper) (adm1char.ChargeBalancer, error) {
	cb, err := adm1char.ChargeBalancerByName(os.ExpandEnv(cfg.GetString("ChargeBalance")))
	if err != nil {
		return nil, err
	}
	if _, ok := cb.(adm1char.AlkalinitySplit); ok {
		cb = adm1char.AlkalinitySplit{
			Cation: cfg.GetFloat64("Parameters.ChargeSplit.Cation"),
			Anion:  cfg.GetFloat64("Parameters.ChargeSplit.Anion"),
		}
	}
	return cb, nil
}

// CharacterizerConfig returns a Characterizer as specified by a viper
// configuration.
func CharacterizerConfig(cfg *viper.Viper) (adm1char.Characterizer, error) {
	p, err := ParametersConfig(cfg)
	if err != nil {
		return adm1char.Characterizer{}, err
	}
	cb, err := ChargeConfig(cfg)
	if err != nil {
		return adm1char.Characterizer{}, err
	}
	return adm1char.NewCharacterizer(p, cb), nil
}

// OutputterConfig returns the derived output expressions specified in
// the OutputVariables configuration variable, or nil if there are none.
func OutputterConfig(cfg *viper.Viper) (*adm1char.Outputter, error) {
	vars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return nil, err
	}
	vars = checkOutputVars(vars)
	if len(vars) == 0 {
		return nil, nil
	}
	return adm1char.NewOutputter(vars, nil)
}

// MeasurementConfig returns the single measurement specified by the
// flow, cod, toc, norg, alkic and alkvfa configuration variables.
// If SIUnits is set, flow is in m³/s and is converted to m³/d.
func MeasurementConfig(cfg *viper.Viper) (adm1char.Measurement, error) {
	if !cfg.GetBool("SIUnits") {
		return adm1char.Measurement{
			Flow:   cfg.GetFloat64("flow"),
			COD:    cfg.GetFloat64("cod"),
			TOC:    cfg.GetFloat64("toc"),
			NOrg:   cfg.GetFloat64("norg"),
			AlkIC:  cfg.GetFloat64("alkic"),
			AlkVFA: cfg.GetFloat64("alkvfa"),
		}, nil
	}
	conc := func(name string) *unit.Unit {
		return unit.New(cfg.GetFloat64(name), unit.KilogramPerMeter3)
	}
	m, err := adm1char.MeasurementFromUnits(
		unit.New(cfg.GetFloat64("flow"), unit.Meter3PerSecond),
		conc("cod"), conc("toc"), conc("norg"), conc("alkic"), conc("alkvfa"),
	)
	if err != nil {
		return m, fmt.Errorf("adm1util: %v", err)
	}
	return m, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]string{}, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("adm1util: parsing config variable %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("adm1util: invalid type for config variable %s: %#v", varName, i)
	}
}
