package homework

import "regexp"

var fractionPattern = regexp.MustCompile(`(-?)(\d+)/(\d+)`)

// LatexFraction rewrites every "a/b" in s as the scorer's fraction markup,
// keeping a leading minus outside: "-3/4" becomes `-\\frac{3}{4}`.
func LatexFraction(s string) string {
	return fractionPattern.ReplaceAllString(s, `$1\\frac{$2}{$3}`)
}
