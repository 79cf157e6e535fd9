package field

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// NoData marks undefined cells in ESRI ASCII output.
const NoData = -9999.0

// ErrEmptySurface reports a surface with fewer than two samples on an axis.
var ErrEmptySurface = errors.New("surface needs at least two samples per axis")

// WriteASCII writes the surface as an ESRI ASCII grid, rows north to south.
// Cells that are not square are described with dx/dy headers, which GDAL's
// AAIGrid reader understands.
func (s Surface) WriteASCII(w io.Writer) error {
	nc, nr := s.Dims()
	if nc < 2 || nr < 2 {
		return ErrEmptySurface
	}
	dx := s.X[1] - s.X[0]
	dy := s.Y[1] - s.Y[0]

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", nc)
	fmt.Fprintf(bw, "nrows %d\n", nr)
	fmt.Fprintf(bw, "xllcenter %s\n", formatFloat(s.X[0]))
	fmt.Fprintf(bw, "yllcenter %s\n", formatFloat(s.Y[0]))
	if math.Abs(dx-dy) <= 1e-9*math.Max(math.Abs(dx), math.Abs(dy)) {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(dx))
	} else {
		fmt.Fprintf(bw, "dx %s\n", formatFloat(dx))
		fmt.Fprintf(bw, "dy %s\n", formatFloat(dy))
	}
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(NoData))

	for r := nr - 1; r >= 0; r-- {
		for c := 0; c < nc; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			v := s.Value(c, r)
			if math.IsNaN(v) {
				v = NoData
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
