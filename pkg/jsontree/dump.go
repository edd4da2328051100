package jsontree

import (
	"bufio"
	"io"
	"strings"
)

// Dump writes the structure of v as an indented outline: object keys two
// spaces per depth, array elements at their parent's depth, scalar leaves on
// their own line. Nulls are omitted.
func Dump(w io.Writer, v *Value) error {
	bw := bufio.NewWriter(w)
	dump(bw, v, 0)
	return bw.Flush()
}

func dump(w *bufio.Writer, v *Value, level int) {
	indent := strings.Repeat(" ", level*2)
	switch v.Kind() {
	case Object:
		for _, m := range v.members {
			w.WriteString(indent + m.Key + "\n")
			dump(w, m.Value, level+1)
		}
	case Array:
		for _, item := range v.items {
			dump(w, item, level)
		}
	case Null:
	default:
		w.WriteString(indent + v.Scalar() + "\n")
	}
}
