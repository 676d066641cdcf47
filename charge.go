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

// ChargeBalancer estimates the cation (S_cat) and anion (S_an)
// concentrations, which are not measured directly.
type ChargeBalancer interface {
	Ions(m Molar, g GasComposition) (cat, an float64)
	Name() string
}

// AlkalinitySplit attributes all VFA alkalinity to both cations and
// anions and splits bicarbonate alkalinity between them using the
// given factors, so that S_cat - S_an = (Cation - Anion) * AlkIC.
type AlkalinitySplit struct {
	Cation, Anion float64
}

// DefaultChargeSplit assumes anions make up half of the cations
// attributed to bicarbonate alkalinity. This is an estimate rather than
// a derived result; measured ion concentrations should be preferred.
var DefaultChargeSplit = AlkalinitySplit{Cation: 1.5, Anion: 0.5}

// Ions implements ChargeBalancer.
func (a AlkalinitySplit) Ions(m Molar, _ GasComposition) (cat, an float64) {
	return m.AlkVFA + m.AlkIC*a.Cation, m.AlkVFA + m.AlkIC*a.Anion
}

// Name implements ChargeBalancer.
func (a AlkalinitySplit) Name() string { return "alkalinity" }

// InorganicCarbonBalance sets S_cat equal to inorganic carbon and
// chooses S_an so that the net charge equals total alkalinity.
// It does not use S_an = S_IN: inorganic nitrogen is not measured,
// so S_an = S_IC - (AlkVFA + AlkIC) instead.
type InorganicCarbonBalance struct{}

// Ions implements ChargeBalancer.
func (InorganicCarbonBalance) Ions(m Molar, g GasComposition) (cat, an float64) {
	return g.IC, g.IC - (m.AlkVFA + m.AlkIC)
}

// Name implements ChargeBalancer.
func (InorganicCarbonBalance) Name() string { return "ic" }

// ChargeBalancerByName returns the charge policy with the given name.
// Valid names are "alkalinity" (the default split) and "ic".
func ChargeBalancerByName(name string) (ChargeBalancer, error) {
	switch name {
	case "", "alkalinity":
		return DefaultChargeSplit, nil
	case "ic":
		return InorganicCarbonBalance{}, nil
	default:
		return nil, fmt.Errorf("adm1char: invalid charge balance option '%s'; valid options are 'alkalinity' and 'ic'", name)
	}
}
