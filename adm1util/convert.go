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
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/adm1char"
)

// Convert converts a single measurement and writes the state variables
// to StateFile.
//
// If strict is true, the measurement and the result are checked and
// any fault is returned as an error. Otherwise non-physical results
// are written as they are.
//
// o, if not nil, is used to calculate derived outputs, which are
// logged and returned.
func Convert(log logrus.FieldLogger, c adm1char.Characterizer, m adm1char.Measurement, strict bool, o *adm1char.Outputter, StateFile string) (*adm1char.Result, map[string]float64, error) {
	log.WithFields(logrus.Fields{
		"flow":   m.Flow,
		"cod":    m.COD,
		"toc":    m.TOC,
		"norg":   m.NOrg,
		"alkic":  m.AlkIC,
		"alkvfa": m.AlkVFA,
		"charge": chargeName(c),
	}).Info("converting measurement")

	if strict {
		if err := m.Check(); err != nil {
			return nil, nil, err
		}
	}
	r := c.Characterize(m)
	if strict {
		if err := r.Check(); err != nil {
			return r, nil, err
		}
	}

	fields := make(logrus.Fields)
	for k, v := range r.State.Map() {
		fields[k] = v
	}
	log.WithFields(fields).Info("state variables")
	log.WithFields(logrus.Fields{
		"VFA": r.Fractions.VFA,
		"PRO": r.Fractions.PRO,
		"LIP": r.Fractions.LIP,
		"CHO": r.Fractions.CHO,
	}).Debug("molar fractions")

	var outputs map[string]float64
	if o != nil {
		var err error
		if outputs, err = o.Evaluate(r); err != nil {
			return r, nil, err
		}
		fields := make(logrus.Fields)
		for k, v := range outputs {
			fields[k] = v
		}
		log.WithFields(fields).Info("derived outputs")
	}

	f, err := os.Create(StateFile)
	if err != nil {
		return r, outputs, fmt.Errorf("adm1util: creating state file: %v", err)
	}
	if _, err := r.State.WriteTo(f); err != nil {
		f.Close()
		return r, outputs, err
	}
	if err := f.Close(); err != nil {
		return r, outputs, fmt.Errorf("adm1util: closing state file: %v", err)
	}
	return r, outputs, nil
}

func chargeName(c adm1char.Characterizer) string {
	if c.Charge == nil {
		return adm1char.DefaultChargeSplit.Name()
	}
	return c.Charge.Name()
}
