package jcursor

import (
	_ "embed"
	"strings"
)

//go:embed words.txt
var wordList string

var words = strings.Fields(wordList)

// randomWords builds a passphrase of n capitalized words.
func randomWords(n int) (string, error) {
	var b strings.Builder
	for range n {
		i, err := randomInt(0, len(words)-1)
		if err != nil {
			return "", err
		}
		b.WriteString(capitalize(words[i]))
	}
	return b.String(), nil
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}
