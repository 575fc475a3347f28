package utils

import (
	"fmt"
	"strings"
)

var markdownV2Replacer = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdownV2 escapes every character the Telegram MarkdownV2 parser
// treats as markup. Apply it to dynamic values only, never to intentional
// formatting.
func EscapeMarkdownV2(text string) string {
	return markdownV2Replacer.Replace(text)
}

func FormatPercentage(value float64) string {
	return fmt.Sprintf("%+.1f%%", value)
}

func FormatMoney(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
