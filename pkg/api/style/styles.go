package style

import (
	"fmt"
	"strings"
)

// markdown characters that change formatting when they appear in user supplied text
var escaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "~", `\~`, "`", "\\`", "|", `\|`, ">", `\>`)

func Bold(s string) string {
	return "**" + s + "**"
}

func Italics(s string) string {
	return "*" + s + "*"
}

func Underline(s string) string {
	return "__" + s + "__"
}

func Strikethrough(s string) string {
	return "~~" + s + "~~"
}

func Monospace(s string) string {
	return "`" + s + "`"
}

// Quote prefixes every line of s as a block quote.
func Quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n")
}

// Escape neutralizes markdown in s so it renders literally.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Field renders a bold label followed by its value, e.g. "**Users:** 5".
func Field(label string, value any) string {
	return fmt.Sprintf("%s %v", Bold(label+":"), value)
}
