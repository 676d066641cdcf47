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

package adm1char

import (
	"fmt"
	"math"
	"testing"

	"github.com/kr/pretty"
)

const testTolerance = 1.e-9

// referenceMeasurement returns the reference case: a high-strength
// influent with TOC = COD/3.
func referenceMeasurement() Measurement {
	cod := 15.0
	alkVFA := cod * 0.00033
	return Measurement{
		Flow:   170.0,
		COD:    cod,
		TOC:    cod / 3.0,
		NOrg:   cod * 0.02,
		AlkVFA: alkVFA,
		AlkIC:  alkVFA / 5.0,
	}
}

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	return math.Abs(a-b)/math.Max(math.Abs(a), math.Abs(b)) > tolerance
}

func TestMolar(t *testing.T) {
	m := referenceMeasurement().Molar(DefaultMolarMasses)
	tests := []struct {
		name      string
		have, out float64
	}{
		{"flow", m.Flow, 170},
		{"cod", m.COD, 15.0 / 31.9988},
		{"toc", m.TOC, 5.0 / 12.0107},
		{"norg", m.NOrg, 0.3 / 14.0067},
		{"alkvfa", m.AlkVFA, 0.0495},
		{"alkic", m.AlkIC, 0.0099},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if different(test.have, test.out, testTolerance) {
				t.Errorf("%s = %g, want %g", test.name, test.have, test.out)
			}
		})
	}
}

func TestMolarIndependent(t *testing.T) {
	base := referenceMeasurement()
	m0 := base.Molar(DefaultMolarMasses)
	changed := base
	changed.COD *= 2
	m1 := changed.Molar(DefaultMolarMasses)
	if m1.COD != 2*m0.COD {
		t.Errorf("cod = %g, want %g", m1.COD, 2*m0.COD)
	}
	m1.COD = m0.COD
	if m1 != m0 {
		t.Errorf("changing COD changed other fields: %v", pretty.Diff(m0, m1))
	}
}

func TestCharacterizeReference(t *testing.T) {
	r := Characterize(referenceMeasurement())

	type check struct {
		name      string
		have, out float64
	}
	var tests []check
	add := func(prefix string, have, out []float64) {
		for i := range have {
			tests = append(tests, check{fmt.Sprintf("%s[%d]", prefix, i), have[i], out[i]})
		}
	}
	add("coeff", r.Coefficients.Slice(), []float64{1, 2.268097021072992, 0.8482297452172147,
		0.051449806164192854, -0.11890592999999999})
	add("frac", r.Fractions.Slice(), []float64{0.23781185999999999, 0.1978838698622802,
		0.31916312032499045, 0.2451411498127293})
	add("conc", r.Concentrations.Slice(), []float64{3.1678811999999996, 2.6360022209151555,
		6.037211958341533, 3.2655143433053704})
	add("comp", r.Gas.Slice(), []float64{0.2324093803471086, 0.19378608952558823, 0.0594,
		0.11296776829360639, 0.32708524214241863, 8.439636004184512, 5.975682808870559e-08,
		7.223612463069027})
	add("state", r.State.Values(), []float64{170, 3.2655143433053704, 6.037211958341533,
		2.6360022209151555, 3.1678811999999996, 0.06435, 0.05445, 0.2324093803471086,
		0.19378608952558823, 0.11296776829360639, 7.223612463069027})

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if different(test.have, test.out, testTolerance) {
				t.Errorf("%s = %g, want %g", test.name, test.have, test.out)
			}
		})
	}
	if r.State.PH < 4 || r.State.PH > 9 {
		t.Errorf("pH %g is outside of the plausible range", r.State.PH)
	}
	if err := r.Check(); err != nil {
		t.Error(err)
	}
}

func TestClosure(t *testing.T) {
	c := NewCharacterizer(DefaultParameters(), nil)
	for _, m := range []Measurement{
		referenceMeasurement(),
		{Flow: 1, COD: 0.5, TOC: 0.2, NOrg: 0.01, AlkIC: 0.3, AlkVFA: 0.02},
		{Flow: 1000, COD: 60, TOC: 18, NOrg: 2, AlkIC: 4, AlkVFA: 1},
		{Flow: 10, COD: 2, TOC: 3, NOrg: 0, AlkIC: 0, AlkVFA: 0},
	} {
		t.Run(fmt.Sprint(m.COD), func(t *testing.T) {
			f := c.MolFractions(c.Stoichiometric(m.Molar(c.Parameters.Molar)))
			if sum := f.Sum(); math.Abs(sum-1) > 1.e-12 {
				t.Errorf("fractions sum to %g, want 1", sum)
			}
		})
	}
}

func TestDeterminism(t *testing.T) {
	a := Characterize(referenceMeasurement())
	b := Characterize(referenceMeasurement())
	if *a != *b {
		t.Errorf("results differ: %v", pretty.Diff(a, b))
	}
}

func TestMonotonicCOD(t *testing.T) {
	var lastCH4, lastParticulate float64
	for i, cod := range []float64{10, 12, 15, 20, 25} {
		m := referenceMeasurement()
		m.COD = cod
		s := Characterize(m).State
		particulate := s.XCh + s.XLi + s.XPr
		if i > 0 {
			if !(s.SGasCH4 > lastCH4) {
				t.Errorf("COD %g: S_gas_ch4 %g did not increase from %g", cod, s.SGasCH4, lastCH4)
			}
			if !(particulate > lastParticulate) {
				t.Errorf("COD %g: particulate COD %g did not increase from %g", cod, particulate, lastParticulate)
			}
		}
		lastCH4, lastParticulate = s.SGasCH4, particulate
	}
}

func TestZeroTOC(t *testing.T) {
	m := referenceMeasurement()
	m.TOC = 0
	r := Characterize(m) // Must not panic.
	if !math.IsInf(r.Coefficients.Y, 0) && !math.IsNaN(r.Coefficients.Y) {
		t.Errorf("y = %g, want a non-finite value", r.Coefficients.Y)
	}
	for i, v := range r.State.Values()[1:5] {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			t.Errorf("%s = %g, want a non-finite value", StateNames[i+1], v)
		}
	}
	if !math.IsNaN(r.State.PH) {
		t.Errorf("pH = %g, want NaN", r.State.PH)
	}
}

func TestCustomParameters(t *testing.T) {
	p := DefaultParameters()
	p.T = 308
	r := NewCharacterizer(p, nil).Characterize(referenceMeasurement())
	ref := Characterize(referenceMeasurement())
	if want := ref.Gas.VGas * 308 / 298; different(r.Gas.VGas, want, testTolerance) {
		t.Errorf("vGas = %g, want %g", r.Gas.VGas, want)
	}
	if r.State != ref.State {
		t.Errorf("temperature should only affect gas volume: %v", pretty.Diff(ref.State, r.State))
	}
}

func TestParametersValidate(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatal(err)
	}
	p := DefaultParameters()
	p.YLIP = 4
	if err := p.Validate(); err == nil {
		t.Error("YLIP=4 should be invalid")
	}
	p = DefaultParameters()
	p.T = 0
	if err := p.Validate(); err == nil {
		t.Error("T=0 should be invalid")
	}
}

// This example converts the reference case into ADM1 state variables.
func Example() {
	r := Characterize(Measurement{
		Flow:   170,
		COD:    15,
		TOC:    5,
		NOrg:   0.3,
		AlkVFA: 0.00495,
		AlkIC:  0.00099,
	})
	for i, v := range r.State.Values() {
		fmt.Printf("%s: %.4g\n", StateNames[i], v)
	}
	// Output:
	// Q_D: 170
	// X_ch: 3.266
	// X_li: 6.037
	// X_pr: 2.636
	// S_ac: 3.168
	// S_cat: 0.06435
	// S_an: 0.05445
	// S_gas_ch4: 0.2324
	// S_IC: 0.1938
	// S_gas_co2: 0.113
	// pH: 7.224
}
