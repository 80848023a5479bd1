package lexer

import "strings"

// parseAnnotation implements the grammar in spec.md §4.3: split on the
// first "->" into lhs/rhs; a single segment is treated as the returns with
// no arguments; a leading "!" on the returns sets ignoreReturn and is
// stripped; each side is split on "," into stack slots.
func parseAnnotation(value string) (args, returns []string, ignoreReturn bool) {
	parts := strings.SplitN(value, "->", 2)
	argsRaw := parts[0]
	returnsRaw := parts[0]
	if len(parts) == 2 {
		returnsRaw = parts[1]
	} else {
		argsRaw = ""
	}

	returnsRaw = strings.TrimSpace(returnsRaw)
	if strings.HasPrefix(returnsRaw, "!") {
		ignoreReturn = true
		returnsRaw = returnsRaw[1:]
	}

	return splitSlots(argsRaw), splitSlots(returnsRaw), ignoreReturn
}

func splitSlots(value string) []string {
	var out []string
	for _, slot := range strings.Split(value, ",") {
		slot = strings.TrimSpace(slot)
		if slot != "" {
			out = append(out, slot)
		}
	}
	return out
}
