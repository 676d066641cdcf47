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

// Command adm1char is a command-line interface for converting wastewater
// measurements into ADM1 influent state variables.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/adm1char/adm1util"
)

func main() {
	if err := adm1util.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
