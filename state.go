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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// StateVariables holds the ADM1 influent state produced by a
// characterization. The field order is the order used by Values and by
// the exported state file.
type StateVariables struct {
	QD      float64 // Flow [m³/d]
	XCh     float64 // Particulate carbohydrates [kg COD/m³]
	XLi     float64 // Particulate lipids [kg COD/m³]
	XPr     float64 // Particulate proteins [kg COD/m³]
	SAc     float64 // Acetate [kg COD/m³]
	SCat    float64 // Cations [kmol/m³]
	SAn     float64 // Anions [kmol/m³]
	SGasCH4 float64 // Methane gas
	SIC     float64 // Inorganic carbon [kmol C/m³]
	SGasCO2 float64 // Carbon dioxide gas
	PH      float64
}

// StateNames are the ADM1 names of the state variables, in the same
// order as Values.
var StateNames = []string{
	"Q_D",
	"X_ch",
	"X_li",
	"X_pr",
	"S_ac",
	"S_cat",
	"S_an",
	"S_gas_ch4",
	"S_IC",
	"S_gas_co2",
	"pH",
}

// Names returns StateNames.
func (s *StateVariables) Names() []string {
	o := make([]string, len(StateNames))
	copy(o, StateNames)
	return o
}

// Values returns the state variables in the order flow, X_ch, X_li, X_pr,
// S_ac, S_cat, S_an, S_gas_ch4, S_IC, S_gas_co2, pH.
func (s *StateVariables) Values() []float64 {
	return []float64{
		s.QD,
		s.XCh,
		s.XLi,
		s.XPr,
		s.SAc,
		s.SCat,
		s.SAn,
		s.SGasCH4,
		s.SIC,
		s.SGasCO2,
		s.PH,
	}
}

// Map returns the state variables keyed by their ADM1 names.
func (s *StateVariables) Map() map[string]float64 {
	o := make(map[string]float64, len(StateNames))
	for i, v := range s.Values() {
		o[StateNames[i]] = v
	}
	return o
}

// setValues is the inverse of Values.
func (s *StateVariables) setValues(v []float64) error {
	if len(v) != len(StateNames) {
		return fmt.Errorf("adm1char: have %d state values but need %d", len(v), len(StateNames))
	}
	*s = StateVariables{
		QD:      v[0],
		XCh:     v[1],
		XLi:     v[2],
		XPr:     v[3],
		SAc:     v[4],
		SCat:    v[5],
		SAn:     v[6],
		SGasCH4: v[7],
		SIC:     v[8],
		SGasCO2: v[9],
		PH:      v[10],
	}
	return nil
}

// WriteTo writes the state variables to w, one value per line with no
// header, in the order of Values. It fulfils the io.WriterTo interface.
func (s *StateVariables) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, v := range s.Values() {
		nn, err := fmt.Fprintln(w, strconv.FormatFloat(v, 'g', -1, 64))
		n += int64(nn)
		if err != nil {
			return n, fmt.Errorf("adm1char: writing state variables: %v", err)
		}
	}
	return n, nil
}

// ReadStateVariables reads state variables in the format written by
// WriteTo. Blank lines are ignored.
func ReadStateVariables(r io.Reader) (*StateVariables, error) {
	var vals []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		v, err := strconv.ParseFloat(txt, 64)
		if err != nil {
			return nil, fmt.Errorf("adm1char: reading state variables line %d: %v", line, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("adm1char: reading state variables: %v", err)
	}
	s := new(StateVariables)
	if err := s.setValues(vals); err != nil {
		return nil, err
	}
	return s, nil
}
