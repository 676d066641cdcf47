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

package hash

import (
	"math"
	"testing"
)

type record struct {
	A, B float64
}

func TestHash(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		same bool
	}{
		{"equalStructs", record{1, 2}, record{1, 2}, true},
		{"differentStructs", record{1, 2}, record{2, 1}, false},
		{"lastBit", record{1, 0}, record{math.Nextafter(1, 2), 0}, false},
		{"nan", record{math.NaN(), 0}, record{math.NaN(), 0}, true},
		{"negativeZero", record{0, 0}, record{math.Copysign(0, -1), 0}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ha, hb := Hash(test.a), Hash(test.b)
			if len(ha) != 32 {
				t.Errorf("key %s has length %d, want 32", ha, len(ha))
			}
			if (ha == hb) != test.same {
				t.Errorf("%s vs %s: same = %v, want %v", ha, hb, ha == hb, test.same)
			}
		})
	}
}
