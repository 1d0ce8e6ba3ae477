package player

import "strings"

// ParseArgs splits extra mpv arguments from the config file.  Whitespace separates arguments unless it is
// inside single or double quotes; a quote of the other kind inside a quoted section is kept literally.
// An empty quoted section yields an empty argument.
func ParseArgs(argsString string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		pending bool
	)

	flush := func() {
		if pending {
			args = append(args, current.String())
			current.Reset()
			pending = false
		}
	}

	for _, r := range argsString {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			pending = true
		case quote == 0 && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()

	return args
}
