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

import "fmt"

// Parameters holds the elemental ratios, yields and physical constants
// used by the characterization. The values returned by DefaultParameters
// are the ones given by Kleerebezem and van Loosdrecht (2006).
type Parameters struct {
	// NPR is the nitrogen content of protein [mol N / mol C].
	NPR float64 `toml:"NPR"`

	// ChVFA is the charge per carbon of volatile fatty acids.
	ChVFA float64 `toml:"ChVFA"`

	// YPRO, YCHO, YLIP and YVFA are the electron yields per carbon of
	// protein, carbohydrate, lipid and VFA, respectively.
	YPRO float64 `toml:"YPRO"`
	YCHO float64 `toml:"YCHO"`
	YLIP float64 `toml:"YLIP"`
	YVFA float64 `toml:"YVFA"`

	// YCH4 is the empirical divisor that converts the summed COD of all
	// organic pools into a methane equivalent.
	YCH4 float64 `toml:"YCH4"`

	// T is temperature [K].
	T float64 `toml:"T"`

	// Kh is the Henry's law constant for CO2.
	Kh float64 `toml:"Kh"`

	// Ka is the acid dissociation constant of the carbonate system.
	Ka float64 `toml:"Ka"`

	// R is the gas constant [L atm / mol / K].
	R float64 `toml:"R"`

	// Molar holds the molar masses used to put the measurements on a
	// molar basis. Molar.O2 is also used to convert molar pools back
	// to COD.
	Molar MolarMasses `toml:"Molar"`
}

// DefaultParameters returns the published parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		NPR:   0.26,
		ChVFA: -0.5,
		YPRO:  4,
		YCHO:  4,
		YLIP:  5.68,
		YVFA:  4,
		YCH4:  65,
		T:     298,
		Kh:    29.8,
		Ka:    4.40e-7,
		R:     0.082,
		Molar: DefaultMolarMasses,
	}
}

// Validate checks for parameter values that would make every conversion
// undefined, regardless of the measurements.
func (p Parameters) Validate() error {
	divisors := []struct {
		name string
		v    float64
	}{
		{"NPR", p.NPR},
		{"ChVFA", p.ChVFA},
		{"YLIP-4", p.YLIP - 4},
		{"YCH4", p.YCH4},
		{"Kh", p.Kh},
		{"Molar.O2", p.Molar.O2},
		{"Molar.C", p.Molar.C},
		{"Molar.N", p.Molar.N},
	}
	for _, d := range divisors {
		if d.v == 0 {
			return fmt.Errorf("adm1char: parameter %s must not be zero", d.name)
		}
	}
	if !(p.T > 0) {
		return fmt.Errorf("adm1char: temperature T=%g but should be >0", p.T)
	}
	return nil
}
