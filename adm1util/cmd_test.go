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
	"encoding/csv"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/kr/pretty"
	"github.com/spatialmodel/adm1char"
	"github.com/spatialmodel/adm1char/archive"
)

// setCfg sets configuration flags for the duration of a test and
// restores their defaults afterwards. Flags are used instead of Cfg.Set
// so that environment variables keep working in later tests.
func setCfg(t *testing.T, vals map[string]interface{}) {
	t.Helper()
	for _, o := range options {
		v, ok := vals[o.name]
		if !ok {
			continue
		}
		f := o.flagsets[0].Lookup(o.name)
		if err := f.Value.Set(fmt.Sprint(v)); err != nil {
			t.Fatalf("setting %s: %v", o.name, err)
		}
		f.Changed = true
		t.Cleanup(func() {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
		delete(vals, o.name)
	}
	for k := range vals {
		t.Fatalf("unknown option %s", k)
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs(args)
	if err := Root.Execute(); err != nil {
		t.Fatalf("%v\n%s", err, buf.String())
	}
	return buf.String()
}

var reference = adm1char.Measurement{Flow: 170, COD: 15, TOC: 5, NOrg: 0.3, AlkIC: 0.00099, AlkVFA: 0.00495}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	if !strings.Contains(out, "adm1char v"+adm1char.Version) {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	stateFile := filepath.Join(dir, "state.csv")
	archiveFile := filepath.Join(dir, "archive.db")
	logFile := filepath.Join(dir, "convert.log")
	setCfg(t, map[string]interface{}{
		"flow":            reference.Flow,
		"cod":             reference.COD,
		"toc":             reference.TOC,
		"norg":            reference.NOrg,
		"alkic":           reference.AlkIC,
		"alkvfa":          reference.AlkVFA,
		"StateFile":       stateFile,
		"ArchiveFile":     archiveFile,
		"LogFile":         logFile,
		"Strict":          true,
		"OutputVariables": `{"X_tot":"X_ch+X_li+X_pr"}`,
	})
	execute(t, "convert")

	f, err := os.Open(stateFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	have, err := adm1char.ReadStateVariables(f)
	if err != nil {
		t.Fatal(err)
	}
	want := adm1char.Characterize(reference).State
	if !reflect.DeepEqual(*have, want) {
		t.Errorf("state variables differ: %v", pretty.Diff(*have, want))
	}

	store, err := archive.Open(context.Background(), archiveFile)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	recs, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("have %d archive records, want 1", len(recs))
	}
	xTot := want.XCh + want.XLi + want.XPr
	if math.Abs(recs[0].Outputs["X_tot"]-xTot) > 1e-12 {
		t.Errorf("X_tot = %g, want %g", recs[0].Outputs["X_tot"], xTot)
	}

	log, err := ioutil.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "state variables") {
		t.Errorf("log file is missing the state variables:\n%s", log)
	}
}

func TestConvertCommandStrict(t *testing.T) {
	dir := t.TempDir()
	setCfg(t, map[string]interface{}{
		"flow":      1.,
		"cod":       1.,
		"toc":       0.,
		"norg":      0.,
		"alkic":     0.,
		"alkvfa":    0.,
		"StateFile": filepath.Join(dir, "state.csv"),
		"Strict":    true,
	})
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"convert"})
	if err := Root.Execute(); err == nil {
		t.Error("expected an error for zero TOC in strict mode")
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	resultsFile := filepath.Join(dir, "results.csv")
	metricsFile := filepath.Join(dir, "metrics.prom")
	archiveFile := filepath.Join(dir, "archive.db")
	setCfg(t, map[string]interface{}{
		"SamplesFile": "testdata/samples.csv",
		"ResultsFile": resultsFile,
		"MetricsFile": metricsFile,
		"ArchiveFile": archiveFile,
		"NumWorkers":  2,
		"Strict":      true,
	})
	execute(t, "batch")

	f, err := os.Open(resultsFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	b, err := ioutil.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 4 {
		t.Fatalf("have %d lines, want 4:\n%s", len(lines), b)
	}
	if want := "name," + strings.Join(adm1char.StateNames, ","); lines[0] != want {
		t.Errorf("header = %s, want %s", lines[0], want)
	}
	ref := strings.SplitN(lines[1], ",", 2)[1]
	dup := strings.SplitN(lines[2], ",", 2)[1]
	if ref != dup {
		t.Errorf("duplicate sample results differ: %s != %s", ref, dup)
	}
	if !strings.HasPrefix(lines[3], "dilute,") {
		t.Errorf("results are out of order: %s", lines[3])
	}

	metrics, err := ioutil.ReadFile(metricsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"adm1char_samples_total 4",
		// The duplicate is served from the cache and the faulty sample
		// is never converted.
		"adm1char_conversions_total 2",
		`adm1char_faults_total{kind="zero_toc"} 1`,
	} {
		if !strings.Contains(string(metrics), want) {
			t.Errorf("metrics are missing %q:\n%s", want, metrics)
		}
	}

	store, err := archive.Open(context.Background(), archiveFile)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	recs, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("have %d archive records, want 4", len(recs))
	}
	if recs[0].Name != "zerotoc" || recs[0].Fault == "" {
		t.Errorf("the faulty sample should be archived with its fault: %# v", pretty.Formatter(recs[0]))
	}
}

func TestParamsCommand(t *testing.T) {
	setCfg(t, map[string]interface{}{
		"Parameters.T":  308.,
		"ChargeBalance": "ic",
	})
	out := execute(t, "params")
	var p paramsFile
	if _, err := toml.Decode(out, &p); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	want := adm1char.DefaultParameters()
	want.T = 308
	if !reflect.DeepEqual(p.Parameters.Parameters, want) {
		t.Errorf("parameters differ: %v", pretty.Diff(p.Parameters.Parameters, want))
	}
	if p.ChargeBalance != "ic" {
		t.Errorf("ChargeBalance = %s", p.ChargeBalance)
	}
}

func TestParamsCommandEnv(t *testing.T) {
	t.Setenv("ADM1_PARAMETERS_T", "310")
	t.Setenv("ADM1_CHARGEBALANCE", "ic")
	out := execute(t, "params")
	var p paramsFile
	if _, err := toml.Decode(out, &p); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if p.Parameters.T != 310 {
		t.Errorf("T = %g, want 310", p.Parameters.T)
	}
	if p.ChargeBalance != "ic" {
		t.Errorf("ChargeBalance = %s, want ic", p.ChargeBalance)
	}

	// Flags take precedence over environment variables.
	setCfg(t, map[string]interface{}{"Parameters.T": 300.})
	out = execute(t, "params")
	p = paramsFile{}
	if _, err := toml.Decode(out, &p); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if p.Parameters.T != 300 {
		t.Errorf("T = %g, want 300", p.Parameters.T)
	}
}

func TestConvertCommandSIUnits(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "state.csv")
	setCfg(t, map[string]interface{}{
		"flow":      reference.Flow / 86400,
		"cod":       reference.COD,
		"toc":       reference.TOC,
		"norg":      reference.NOrg,
		"alkic":     reference.AlkIC,
		"alkvfa":    reference.AlkVFA,
		"SIUnits":   true,
		"StateFile": stateFile,
	})
	execute(t, "convert")

	f, err := os.Open(stateFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	have, err := adm1char.ReadStateVariables(f)
	if err != nil {
		t.Fatal(err)
	}
	want := adm1char.Characterize(reference).State
	if math.Abs(have.QD-want.QD) > 1e-9 {
		t.Errorf("Q_D = %g, want %g", have.QD, want.QD)
	}
	if have.PH != want.PH || have.SGasCH4 != want.SGasCH4 {
		t.Errorf("state variables differ: %v", pretty.Diff(*have, want))
	}
}

func TestHistoryCommand(t *testing.T) {
	archiveFile := filepath.Join(t.TempDir(), "archive.db")
	setCfg(t, map[string]interface{}{
		"SamplesFile": "testdata/samples.csv",
		"ResultsFile": filepath.Join(filepath.Dir(archiveFile), "results.csv"),
		"ArchiveFile": archiveFile,
		"Strict":      true,
	})
	execute(t, "batch")

	rows := func(out string) [][]string {
		t.Helper()
		r, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		if err != nil {
			t.Fatalf("%v\n%s", err, out)
		}
		return r
	}

	setCfg(t, map[string]interface{}{"Limit": 2})
	all := rows(execute(t, "history"))
	if len(all) != 3 {
		t.Fatalf("have %d rows, want header and 2 records", len(all))
	}
	if all[1][2] != "zerotoc" || all[1][4] == "" {
		t.Errorf("newest record should be the faulty sample: %v", all[1])
	}
	if all[2][2] != "dilute" {
		t.Errorf("second record is %s, want dilute", all[2][2])
	}

	setCfg(t, map[string]interface{}{"ID": 1})
	one := rows(execute(t, "history"))
	if len(one) != 2 || one[1][0] != "1" || one[1][2] != "reference" {
		t.Errorf("record 1: %v", one)
	}

	setCfg(t, map[string]interface{}{"ID": 99})
	Root.SetArgs([]string{"history"})
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	if err := Root.Execute(); !errors.Is(err, archive.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHistoryMissingArchive(t *testing.T) {
	if _, err := readHistory(context.Background(), filepath.Join(t.TempDir(), "none.db"), 0, 0); err == nil {
		t.Error("expected an error for a missing archive")
	}
	if _, err := readHistory(context.Background(), "", 0, 0); err == nil {
		t.Error("expected an error for an unset archive")
	}
}
