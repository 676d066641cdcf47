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

// Package adm1char converts basic wastewater measurements (flow, COD, TOC,
// organic nitrogen and alkalinity) into initial state variables for the
// Anaerobic Digestion Model No. 1 (ADM1), following the method described in:
//
// Kleerebezem, R., and M. C. M. van Loosdrecht (2006). Waste Characterization
// for Implementation in ADM1. Water Science and Technology 54(4):167–174.
// doi:10.2166/wst.2006.538.
//
// The conversion is a pure function of the measurements and a set of
// fixed parameters. It performs no time integration; the resulting
// StateVariables are meant to be handed to an ADM1 simulator.
package adm1char

// Version gives the version number.
const Version = "0.2.0"
