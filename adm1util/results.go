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

// resultsHeader returns the column names of a results table.
func resultsHeader(outputNames []string) []string {
	h := append([]string{"name"}, adm1char.StateNames...)
	return append(h, outputNames...)
}

// resultsRow returns the values of one results table row.
func resultsRow(r *SampleResult, outputNames []string) []float64 {
	v := r.Result.State.Values()
	for _, n := range outputNames {
		v = append(v, r.Outputs[n])
	}
	return v
}

// WriteResults writes a results table to a CSV file or, if the file
// name ends in ".xlsx", to an Excel file. Samples with a fault are
// left out.
func WriteResults(fileName string, results []*SampleResult, outputNames []string) error {
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return writeResultsXLSX(fileName, results, outputNames)
	}
	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("adm1util: creating results file: %v", err)
	}
	if err := WriteResultsCSV(f, results, outputNames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteResultsCSV writes a results table in CSV format.
func WriteResultsCSV(w io.Writer, results []*SampleResult, outputNames []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader(outputNames)); err != nil {
		return fmt.Errorf("adm1util: writing results: %v", err)
	}
	for _, r := range results {
		if r.Fault != nil {
			continue
		}
		row := []string{r.Name}
		for _, v := range resultsRow(r, outputNames) {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("adm1util: writing results: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("adm1util: writing results: %v", err)
	}
	return nil
}

func writeResultsXLSX(fileName string, results []*SampleResult, outputNames []string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	if err != nil {
		return fmt.Errorf("adm1util: creating results sheet: %v", err)
	}
	row := sheet.AddRow()
	for _, h := range resultsHeader(outputNames) {
		row.AddCell().SetString(h)
	}
	for _, r := range results {
		if r.Fault != nil {
			continue
		}
		row = sheet.AddRow()
		row.AddCell().SetString(r.Name)
		for _, v := range resultsRow(r, outputNames) {
			row.AddCell().SetFloat(v)
		}
	}
	if err := f.Save(fileName); err != nil {
		return fmt.Errorf("adm1util: saving results file: %v", err)
	}
	return nil
}
