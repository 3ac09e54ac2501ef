// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"fmt"
	"regexp"
	"strings"
)

// Marker transcribes scanned math into LaTeX that pandoc's texmath parser
// rejects: plain-TeX \rm font switches, array environments whose column
// spec never closes, code snippets wrapped in math delimiters, and stray
// trailing backslashes before a closing delimiter. Each rule below targets
// one of those, in an order where later rules see the output of earlier
// ones.
var (
	// \rm {text} and \rm text carry their operand into \mathrm{...}.
	// Whatever remains, e.g. {\rm \alpha}, becomes a bare \mathrm.
	rmBracedRE   = regexp.MustCompile(`\\rm\s*\{([^}]+)\}`)
	rmUnbracedRE = regexp.MustCompile(`\\rm\s*([a-zA-Z0-9]+)`)

	// A column spec like \begin{array}{ccc is matched together with its
	// closing brace when one is present, so an unterminated spec can be
	// told apart and closed.
	arraySpecRE = regexp.MustCompile(`\\begin\{array\}\{[clr|]+\}?`)

	// Code fragments that OCR wrapped in $ or $$ delimiters.
	codeInMathREs = buildCodeInMathREs()

	// Backslash runs directly before a closing math delimiter.
	trailingParenRE   = regexp.MustCompile(`\\+\s*\\\)`)
	trailingBracketRE = regexp.MustCompile(`\\+\s*\\\]`)
)

// codeMarkers identify a "math" span as mis-detected source code.
var codeMarkers = []string{
	`printf\s*\(`,
	`fprintf\s*\(`,
	`cout\s*<<`,
	`System\.out\.print`,
	`console\.log\s*\(`,
}

func buildCodeInMathREs() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(codeMarkers)*2)
	for _, marker := range codeMarkers {
		// Display math first, so the inline pattern never matches half
		// of a $$ pair.
		res = append(res,
			regexp.MustCompile(fmt.Sprintf(`(?s)\$\$([^$]*?%s.*?)\$\$`, marker)),
			regexp.MustCompile(fmt.Sprintf(`(?s)\$([^$]*?%s.*?)\$`, marker)),
		)
	}
	return res
}

// RepairMath rewrites the LaTeX constructs in marker's Markdown output
// that are known to break pandoc's math parsing. Content without math is
// returned unchanged.
func RepairMath(markdown string) string {
	out := rmBracedRE.ReplaceAllString(markdown, `\mathrm{${1}}`)
	out = rmUnbracedRE.ReplaceAllString(out, `\mathrm{${1}}`)
	out = strings.ReplaceAll(out, `\rm`, `\mathrm`)

	out = arraySpecRE.ReplaceAllStringFunc(out, closeArraySpec)

	for _, re := range codeInMathREs {
		out = re.ReplaceAllString(out, `${1}`)
	}

	out = trailingParenRE.ReplaceAllString(out, ` \)`)
	out = trailingBracketRE.ReplaceAllString(out, ` \]`)

	return out
}

func closeArraySpec(spec string) string {
	if strings.HasSuffix(spec, "}") {
		return spec
	}
	return spec + "}"
}
