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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spatialmodel/adm1char"
	"github.com/tealeg/xlsx"
)

// Sample is a named measurement, typically one row of a sample table.
type Sample struct {
	Name string
	adm1char.Measurement
}

// sampleColumns are the required columns of a sample table.
var sampleColumns = []string{"flow", "cod", "toc", "norg", "alkic", "alkvfa"}

// ReadSamples reads a sample table from a CSV file or, if the file
// name ends in ".xlsx", from the first sheet of an Excel file.
// The first row must hold the column names flow, cod, toc, norg, alkic
// and alkvfa in any order and case. An optional name column gives the
// sample names.
func ReadSamples(fileName string) ([]Sample, error) {
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return readSamplesXLSX(fileName)
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("adm1util: opening sample file: %v", err)
	}
	defer f.Close()
	return ReadSamplesCSV(f)
}

// ReadSamplesCSV reads a sample table in CSV format.
func ReadSamplesCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("adm1util: reading sample CSV: %v", err)
	}
	return parseSamples(rows)
}

func readSamplesXLSX(fileName string) ([]Sample, error) {
	f, err := xlsx.OpenFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("adm1util: opening xlsx file: %v", err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("adm1util: xlsx file %s has no sheets", fileName)
	}
	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		r := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			r[i] = c.Value
		}
		rows = append(rows, r)
	}
	return parseSamples(rows)
}

// parseSamples converts the rows of a sample table into samples.
// Blank rows are skipped.
func parseSamples(rows [][]string) ([]Sample, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("adm1util: sample table is empty")
	}
	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range sampleColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("adm1util: sample table is missing column '%s'", c)
		}
	}
	nameCol, hasName := col["name"]

	var o []Sample
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := i + 2
		v := make([]float64, len(sampleColumns))
		for j, c := range sampleColumns {
			s := cell(row, col[c])
			if s == "" {
				return nil, fmt.Errorf("adm1util: sample table row %d: missing %s", line, c)
			}
			var err error
			if v[j], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("adm1util: sample table row %d: %s: %v", line, c, err)
			}
		}
		name := fmt.Sprintf("row%d", line)
		if hasName {
			if n := cell(row, nameCol); n != "" {
				name = n
			}
		}
		o = append(o, Sample{
			Name: name,
			Measurement: adm1char.Measurement{
				Flow: v[0], COD: v[1], TOC: v[2], NOrg: v[3], AlkIC: v[4], AlkVFA: v[5],
			},
		})
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("adm1util: sample table has no samples")
	}
	return o, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
