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

import "math"

// Stoichiometry holds the per-carbon elemental composition of the lumped
// organic substrate, as coefficients of the formula
// C(X) H(Y) O(Z) N(V) with charge U.
type Stoichiometry struct {
	X, Y, Z, V, U float64
}

// Slice returns the coefficients in the order x, y, z, v, u.
func (s Stoichiometry) Slice() []float64 {
	return []float64{s.X, s.Y, s.Z, s.V, s.U}
}

// Pools holds one value for each of the organic pools. It is used both
// for molar fractions of organic carbon and for COD concentrations.
type Pools struct {
	VFA, PRO, LIP, CHO float64
}

// Slice returns the values in the order VFA, PRO, LIP, CHO.
func (p Pools) Slice() []float64 {
	return []float64{p.VFA, p.PRO, p.LIP, p.CHO}
}

// Sum returns VFA + PRO + LIP + CHO, summed in that order.
func (p Pools) Sum() float64 {
	return p.VFA + p.PRO + p.LIP + p.CHO
}

// GasComposition holds the methane equivalent, the carbonate system and
// the resulting pH.
type GasComposition struct {
	CH4   float64 // Methane equivalent of the organic load
	IC    float64 // Inorganic carbon
	Alk   float64 // Total alkalinity
	CO2   float64 // Dissolved CO2
	PCO2  float64 // CO2 fraction of the CO2 + CH4 gas phase
	VGas  float64 // Gas volume from the ideal gas law
	SHIon float64 // Hydrogen ion concentration
	PH    float64
}

// Slice returns the values in the order CH4, IC, Alk, CO2, pCO2, vGas,
// S_H_ion, pH.
func (g GasComposition) Slice() []float64 {
	return []float64{g.CH4, g.IC, g.Alk, g.CO2, g.PCO2, g.VGas, g.SHIon, g.PH}
}

// Result holds the outcome of a characterization, including all of the
// intermediate values.
type Result struct {
	Input          Measurement
	Molar          Molar
	Coefficients   Stoichiometry
	Fractions      Pools
	Concentrations Pools
	Gas            GasComposition
	State          StateVariables
}

// Characterizer converts measurements into ADM1 state variables.
// It holds no mutable state and can be used concurrently.
type Characterizer struct {
	Parameters Parameters
	Charge     ChargeBalancer
}

// NewCharacterizer returns a Characterizer using the given parameters
// and charge policy. If cb is nil, DefaultChargeSplit is used.
func NewCharacterizer(p Parameters, cb ChargeBalancer) Characterizer {
	if cb == nil {
		cb = DefaultChargeSplit
	}
	return Characterizer{Parameters: p, Charge: cb}
}

// Characterize converts m using DefaultParameters and DefaultChargeSplit.
func Characterize(m Measurement) *Result {
	return NewCharacterizer(DefaultParameters(), nil).Characterize(m)
}

// Characterize converts m into ADM1 state variables. Invalid input is
// not reported; it results in NaN or infinite values. Use Check on
// the input or on the result to detect these cases.
func (c Characterizer) Characterize(m Measurement) *Result {
	r := &Result{Input: m}
	r.Molar = m.Molar(c.Parameters.Molar)
	r.Coefficients = c.Stoichiometric(r.Molar)
	r.Fractions = c.MolFractions(r.Coefficients)
	r.Concentrations = c.CODConcentrations(r.Molar, r.Fractions)
	r.Gas = c.GasComposition(r.Molar, r.Concentrations)

	cb := c.Charge
	if cb == nil {
		cb = DefaultChargeSplit
	}
	cat, an := cb.Ions(r.Molar, r.Gas)

	r.State = StateVariables{
		QD:  r.Molar.Flow,
		XCh: r.Concentrations.CHO,
		XLi: r.Concentrations.LIP,
		XPr: r.Concentrations.PRO,
		// Acetate is taken to be the dominant VFA in the influent.
		SAc:     r.Concentrations.VFA,
		SCat:    cat,
		SAn:     an,
		SGasCH4: r.Gas.CH4,
		SIC:     r.Gas.IC,
		SGasCO2: r.Gas.CO2,
		PH:      r.Gas.PH,
	}
	return r
}

// Stoichiometric derives the elemental composition of the organic
// substrate from the COD, TOC, organic nitrogen and VFA alkalinity
// balances.
func (c Characterizer) Stoichiometric(m Molar) Stoichiometry {
	return Stoichiometry{
		X: 1,
		Y: (2*m.COD + m.AlkVFA - 2*m.NOrg) / m.TOC,
		Z: 2 - (m.COD+0.5*m.NOrg)/m.TOC,
		V: m.NOrg / m.TOC,
		U: -m.AlkVFA / m.TOC,
	}
}

// MolFractions partitions organic carbon into the VFA, protein, lipid
// and carbohydrate pools. VFA and protein follow from the charge and
// nitrogen balances, lipid from the remaining electron balance, and
// carbohydrate is whatever is left, so the fractions always sum to one.
func (c Characterizer) MolFractions(s Stoichiometry) Pools {
	p := c.Parameters
	var f Pools
	f.VFA = s.U / p.ChVFA
	f.PRO = s.V / p.NPR
	f.LIP = (s.Y - 2*s.Z - 3*s.V - s.U) / (p.YLIP - 4)
	f.CHO = 1 - f.LIP - f.VFA - f.PRO
	return f
}

// CODConcentrations converts molar carbon fractions into COD
// concentrations [kg COD/m³] using the electron yield of each pool.
func (c Characterizer) CODConcentrations(m Molar, f Pools) Pools {
	p := c.Parameters
	mw := p.Molar.O2
	return Pools{
		VFA: m.TOC * f.VFA * (p.YVFA / 4) * mw,
		PRO: m.TOC * f.PRO * (p.YPRO / 4) * mw,
		LIP: m.TOC * f.LIP * (p.YLIP / 4) * mw,
		CHO: m.TOC * f.CHO * (p.YCHO / 4) * mw,
	}
}

// GasComposition lumps the organic load into a methane equivalent and
// uses the inorganic carbon and alkalinity balances to calculate CO2,
// its partial pressure, the gas volume, and pH from a simplified
// carbonate equilibrium.
func (c Characterizer) GasComposition(m Molar, conc Pools) GasComposition {
	p := c.Parameters
	var g GasComposition
	g.CH4 = conc.Sum() / p.YCH4
	g.IC = m.TOC - g.CH4 + m.AlkIC
	g.Alk = m.AlkVFA + m.AlkIC
	g.CO2 = g.IC - g.Alk - m.NOrg
	g.PCO2 = g.CO2 / (g.CO2 + g.CH4)
	g.VGas = (g.CO2 + g.CH4) * p.R * p.T
	// HCO3 is assumed to equal Alk + Norg, and H2CO3 to be small
	// compared to HCO3 and gaseous CO2.
	g.SHIon = (p.Ka * g.PCO2) / (p.Kh * (g.Alk + m.NOrg))
	g.PH = -math.Log10(g.SHIon)
	return g
}
