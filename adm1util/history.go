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
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spatialmodel/adm1char"
	"github.com/spatialmodel/adm1char/archive"
)

// readHistory returns the archived record with the given ID or, if id
// is zero, the newest limit records.
func readHistory(ctx context.Context, path string, id int64, limit int) ([]*archive.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("adm1char: you need to specify the ArchiveFile configuration variable")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("adm1util: opening archive: %v", err)
	}
	store, err := archive.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if id != 0 {
		r, err := store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		return []*archive.Record{r}, nil
	}
	return store.List(ctx, limit)
}

// WriteHistoryCSV writes archived records as a CSV table with the
// columns id, created, name, charge and fault, followed by the state
// variables and the union of all derived output names.
func WriteHistoryCSV(w io.Writer, recs []*archive.Record) error {
	outputs := make(map[string]struct{})
	for _, r := range recs {
		for k := range r.Outputs {
			outputs[k] = struct{}{}
		}
	}
	outputNames := make([]string, 0, len(outputs))
	for k := range outputs {
		outputNames = append(outputNames, k)
	}
	sort.Strings(outputNames)

	cw := csv.NewWriter(w)
	h := append([]string{"id", "created", "name", "charge", "fault"}, adm1char.StateNames...)
	if err := cw.Write(append(h, outputNames...)); err != nil {
		return fmt.Errorf("adm1util: writing history: %v", err)
	}
	for _, r := range recs {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Created.Format(time.RFC3339),
			r.Name,
			r.Charge,
			r.Fault,
		}
		for _, v := range r.State.Values() {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for _, n := range outputNames {
			v, ok := r.Outputs[n]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("adm1util: writing history: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("adm1util: writing history: %v", err)
	}
	return nil
}
