package bridge

import (
	"strings"

	"github.com/wippyai/trigger-call/codec"
	"github.com/wippyai/trigger-call/value"
)

// Render writes the outcome line "name(a, b) -> r1, r2". A function
// without results renders its result list as "()".
func Render(name string, args, results []value.Value) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	writeList(&b, args)
	b.WriteString(") -> ")
	if len(results) == 0 {
		b.WriteString("()")
	} else {
		writeList(&b, results)
	}
	return b.String()
}

func writeList(b *strings.Builder, vals []value.Value) {
	for i, v := range vals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(codec.Format(v))
	}
}
