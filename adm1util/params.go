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
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/adm1char"
)

// paramsFile is the layout of the parameter section of a
// configuration file.
type paramsFile struct {
	ChargeBalance string
	Parameters    struct {
		adm1char.Parameters
		ChargeSplit adm1char.AlkalinitySplit
	}
}

// writeParams writes the parameters of c to w in TOML format.
func writeParams(w io.Writer, c adm1char.Characterizer) error {
	var p paramsFile
	p.ChargeBalance = chargeName(c)
	p.Parameters.Parameters = c.Parameters
	p.Parameters.ChargeSplit = adm1char.DefaultChargeSplit
	if s, ok := c.Charge.(adm1char.AlkalinitySplit); ok {
		p.Parameters.ChargeSplit = s
	}
	if err := toml.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("adm1util: writing parameters: %v", err)
	}
	return nil
}
