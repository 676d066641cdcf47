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
	"errors"
	"fmt"
	"math"
)

// Numerical faults reported by Measurement.Check and Result.Check.
// Errors returned by those methods wrap one of these values and can be
// tested with errors.Is.
var (
	ErrZeroTOC               = errors.New("total organic carbon is zero")
	ErrNegativeMeasurement   = errors.New("negative measurement")
	ErrNoGas                 = errors.New("CO2 + CH4 is zero")
	ErrNonPhysicalAlkalinity = errors.New("alkalinity + organic nitrogen is zero")
	ErrNonPositiveHydrogen   = errors.New("hydrogen ion concentration is not positive")
	ErrNonFinite             = errors.New("non-finite value")
)

// Check returns an error if m contains values for which the
// characterization is undefined. Characterize itself never checks its
// input.
func (m Measurement) Check() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"flow", m.Flow},
		{"cod", m.COD},
		{"toc", m.TOC},
		{"norg", m.NOrg},
		{"alkic", m.AlkIC},
		{"alkvfa", m.AlkVFA},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("adm1char: %s=%g: %w", f.name, f.v, ErrNonFinite)
		}
		if f.v < 0 {
			return fmt.Errorf("adm1char: %s=%g: %w", f.name, f.v, ErrNegativeMeasurement)
		}
	}
	if m.TOC == 0 {
		return fmt.Errorf("adm1char: toc: %w", ErrZeroTOC)
	}
	return nil
}

// Check returns an error if any step of the characterization produced
// an undefined value. The first fault in pipeline order is reported.
func (r *Result) Check() error {
	if r.Molar.TOC == 0 {
		return fmt.Errorf("adm1char: toc: %w", ErrZeroTOC)
	}
	if r.Gas.CO2+r.Gas.CH4 == 0 {
		return fmt.Errorf("adm1char: pCO2: %w", ErrNoGas)
	}
	if r.Gas.Alk+r.Molar.NOrg == 0 {
		return fmt.Errorf("adm1char: S_H_ion: %w", ErrNonPhysicalAlkalinity)
	}
	if !(r.Gas.SHIon > 0) {
		return fmt.Errorf("adm1char: S_H_ion=%g: %w", r.Gas.SHIon, ErrNonPositiveHydrogen)
	}
	for i, v := range r.State.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("adm1char: %s=%g: %w", StateNames[i], v, ErrNonFinite)
		}
	}
	return nil
}
