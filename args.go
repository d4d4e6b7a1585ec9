package talon

import "strconv"

// Command arguments cross the core boundary as raw bytes. The helpers below
// keep the per-command builders terse.

func arg(s string) []byte { return []byte(s) }

func argInt(i int64) []byte {
	return strconv.AppendInt(nil, i, 10)
}

func argFloat(f float64) []byte {
	return strconv.AppendFloat(nil, f, 'f', -1, 64)
}

func stringsToArgs(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
