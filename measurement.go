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

	"github.com/ctessum/unit"
)

// MolarMasses holds molar masses [g/mol].
type MolarMasses struct {
	O2 float64 `toml:"O2"`
	C  float64 `toml:"C"`
	N  float64 `toml:"N"`
}

// DefaultMolarMasses are the standard molar masses of O2, C and N.
var DefaultMolarMasses = MolarMasses{
	O2: 31.9988,
	C:  12.0107,
	N:  14.0067,
}

// AlkalinityFactor converts alkalinity in kg CaCO3/m³ to mol charge/m³.
const AlkalinityFactor = 10.

// secondsPerDay converts flow from m³/s to m³/d.
const secondsPerDay = 86400.

// Measurement holds basic wastewater measurements in the units they are
// usually reported in by the lab. Values are stored as given; use Molar
// to put them on a molar basis.
type Measurement struct {
	Flow   float64 // Influent flow rate [m³/d]
	COD    float64 // Chemical oxygen demand [kg COD/m³]
	TOC    float64 // Total organic carbon [kg C/m³]
	NOrg   float64 // Organic nitrogen [kg N/m³]
	AlkIC  float64 // Bicarbonate alkalinity [kg CaCO3/m³]
	AlkVFA float64 // Alkalinity of neutralized fatty acids [kg CaCO3/m³]
}

// Molar holds measurements converted to a molar basis. Flow is carried
// through unchanged.
type Molar struct {
	Flow   float64 // [m³/d]
	COD    float64 // [kmol O2/m³]
	TOC    float64 // [kmol C/m³]
	NOrg   float64 // [kmol N/m³]
	AlkIC  float64 // [mol charge/m³]
	AlkVFA float64 // [mol charge/m³]
}

// Molar converts the receiver to a molar basis using the given molar
// masses. No checking is done: a zero mass gives an infinite result.
func (m Measurement) Molar(mm MolarMasses) Molar {
	return Molar{
		Flow:   m.Flow,
		COD:    m.COD / mm.O2,
		TOC:    m.TOC / mm.C,
		NOrg:   m.NOrg / mm.N,
		AlkIC:  m.AlkIC * AlkalinityFactor,
		AlkVFA: m.AlkVFA * AlkalinityFactor,
	}
}

// MeasurementFromUnits creates a Measurement from dimensioned values.
// flow must be a volumetric flow rate [m³/s] and the remaining values
// must be mass concentrations [kg/m³].
func MeasurementFromUnits(flow, cod, toc, nOrg, alkIC, alkVFA *unit.Unit) (Measurement, error) {
	if err := flow.Check(unit.Meter3PerSecond); err != nil {
		return Measurement{}, fmt.Errorf("adm1char: flow: %v", err)
	}
	conc := []struct {
		name string
		u    *unit.Unit
	}{
		{"cod", cod},
		{"toc", toc},
		{"norg", nOrg},
		{"alkic", alkIC},
		{"alkvfa", alkVFA},
	}
	for _, c := range conc {
		if err := c.u.Check(unit.KilogramPerMeter3); err != nil {
			return Measurement{}, fmt.Errorf("adm1char: %s: %v", c.name, err)
		}
	}
	return Measurement{
		Flow:   flow.Value() * secondsPerDay,
		COD:    cod.Value(),
		TOC:    toc.Value(),
		NOrg:   nOrg.Value(),
		AlkIC:  alkIC.Value(),
		AlkVFA: alkVFA.Value(),
	}, nil
}
