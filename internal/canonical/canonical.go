// Package canonical produces the deterministic byte form of a signable
// payload. Signer and verifier must agree byte-for-byte, so keys are sorted
// and every value type has exactly one encoding.
package canonical

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindBool
)

type (
	// Field is one named signable value. The constructors below are the only
	// way to build one, which keeps the signable set closed to string, int64
	// and bool.
	Field struct {
		key  string
		kind fieldKind
		s    string
		i    int64
		b    bool
	}

	Fields []Field
)

func String(key, value string) Field {
	return Field{key: key, kind: kindString, s: value}
}

func Int(key string, value int64) Field {
	return Field{key: key, kind: kindInt, i: value}
}

func Bool(key string, value bool) Field {
	return Field{key: key, kind: kindBool, b: value}
}

// Canonicalize serializes the fields as a JSON object with keys sorted
// lexicographically ascending. Insertion order never affects the output.
func (fs Fields) Canonicalize() string {
	sorted := make(Fields, len(fs))
	copy(sorted, fs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].key < sorted[j].key
	})

	var b strings.Builder
	b.WriteByte('{')
	for i, f := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(&b, f.key)
		b.WriteByte(':')
		switch f.kind {
		case kindString:
			writeString(&b, f.s)
		case kindInt:
			b.WriteString(strconv.FormatInt(f.i, 10))
		case kindBool:
			b.WriteString(strconv.FormatBool(f.b))
		}
	}
	b.WriteByte('}')
	return b.String()
}

func writeString(b *strings.Builder, s string) {
	quoted, _ := json.Marshal(s)
	b.Write(quoted)
}
