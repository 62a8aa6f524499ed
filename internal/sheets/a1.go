package sheets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// cellRange is a parsed A1 range. Columns are 0-based, rows 1-based; a zero row is open.
type cellRange struct {
	startCol, endCol int
	startRow, endRow int
}

var a1Pattern = regexp.MustCompile(`^([A-Z]+)(\d*)(?::([A-Z]+)(\d*))?$`)

func parseA1(rng string) (cellRange, error) {
	if i := strings.LastIndexByte(rng, '!'); i >= 0 {
		rng = rng[i+1:]
	}
	m := a1Pattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(rng)))
	if m == nil {
		return cellRange{}, fmt.Errorf("unsupported range %q", rng)
	}

	r := cellRange{startCol: colIndex(m[1]), endCol: colIndex(m[1])}
	r.startRow, _ = strconv.Atoi(m[2])
	r.endRow = r.startRow
	if m[3] != "" {
		r.endCol = colIndex(m[3])
		r.endRow, _ = strconv.Atoi(m[4])
	}
	if r.endCol < r.startCol {
		return cellRange{}, fmt.Errorf("inverted range %q", rng)
	}
	return r, nil
}

func colIndex(letters string) int {
	n := 0
	for _, c := range letters {
		n = n*26 + int(c-'A'+1)
	}
	return n - 1
}

func colName(i int) string {
	s := ""
	for i++; i > 0; i = (i - 1) / 26 {
		s = string(rune('A'+(i-1)%26)) + s
	}
	return s
}
