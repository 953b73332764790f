package jcursor

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Character classes for random strings.
const (
	CharsHex                  = "0123456789abcdef"
	CharsAlphanumeric         = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	CharsDistinguishable      = "23456789abcdefghjkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	CharsDistinguishableUpper = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CharsPrintable            = "!\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"
	CharsNumeric              = "0123456789"
	CharsURLSafe              = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._~"
)

// Generator types that are not a plain character class.
const (
	TypeBase64 = "base64"
	TypeWords  = "words"
	TypePort   = "port"
)

// Port range used when a port spec leaves bounds out.
const (
	DefaultPortMin = 10000
	DefaultPortMax = 65536
)

// DefaultRandomLength is the length used when nothing else is specified.
const DefaultRandomLength = 16

// Upper bounds accepted for lengths and port bounds.
const (
	MaxRandomLength = 1 << 20
	MaxPort         = 1<<31 - 1
)

// RandomConfig is the structured form of a random string request. Characters
// wins over Type when both are set; with neither, url-safe characters are
// used.
type RandomConfig struct {
	Length     int
	Characters string
	Type       string
	URLSafe    bool
}

// RandomSpec is a parsed textual spec. It is either a port request or a
// string request.
type RandomSpec struct {
	Port     bool
	Min, Max int
	RandomConfig
}

type randomClass struct {
	name string
	cfg  RandomConfig
}

// randomClasses is matched in order; the first name the token prefixes wins.
var randomClasses = []randomClass{
	{"hex", RandomConfig{Characters: CharsHex}},
	{"b64", RandomConfig{Type: TypeBase64}},
	{"b64url", RandomConfig{Type: TypeBase64, URLSafe: true}},
	{"base64", RandomConfig{Type: TypeBase64}},
	{"base64url", RandomConfig{Type: TypeBase64, URLSafe: true}},
	{"words", RandomConfig{Type: TypeWords}},
	{"alphanumeric", RandomConfig{Characters: CharsAlphanumeric}},
	{"distinguishable", RandomConfig{Characters: CharsDistinguishable}},
	{"Distinguishable", RandomConfig{Characters: CharsDistinguishableUpper}},
	{"printable", RandomConfig{Characters: CharsPrintable}},
	{"numeric", RandomConfig{Characters: CharsNumeric}},
	{"urlsafe", RandomConfig{Characters: CharsURLSafe}},
}

var (
	portSpec   = regexp.MustCompile(`^port(?:\s+(\d+))?(?:\s+(\d+))?$`)
	lengthSpec = regexp.MustCompile(`^(\d+)\s+(?:(?:c|char|chars):(.+)|(\S+))$`)
)

// ParseRandomSpec parses one of:
//
//	port [min] [max]
//	<length> <class-prefix>
//	<length> c:<characters>    (also char: and chars:)
//
// An unknown class prefix keeps the length and the default characters.
func ParseRandomSpec(text string) (RandomSpec, error) {
	text = strings.TrimSpace(text)
	if m := portSpec.FindStringSubmatch(text); m != nil {
		spec := RandomSpec{Port: true, Min: DefaultPortMin, Max: DefaultPortMax}
		var err error
		if m[1] != "" {
			if spec.Min, err = boundedInt("port min", m[1], MaxPort); err != nil {
				return RandomSpec{}, err
			}
		}
		if m[2] != "" {
			if spec.Max, err = boundedInt("port max", m[2], MaxPort); err != nil {
				return RandomSpec{}, err
			}
		}
		if spec.Min > spec.Max {
			spec.Min, spec.Max = spec.Max, spec.Min
		}
		return spec, nil
	}

	m := lengthSpec.FindStringSubmatch(text)
	if m == nil {
		return RandomSpec{}, fmt.Errorf("%w: random spec %q", ErrParse, text)
	}
	length, err := boundedInt("length", m[1], MaxRandomLength)
	if err != nil {
		return RandomSpec{}, err
	}
	spec := RandomSpec{RandomConfig: RandomConfig{Length: length}}
	if m[2] != "" {
		spec.Characters = m[2]
		return spec, nil
	}
	for _, class := range randomClasses {
		if strings.HasPrefix(class.name, m[3]) {
			cfg := class.cfg
			cfg.Length = length
			spec.RandomConfig = cfg
			break
		}
	}
	return spec, nil
}

func boundedInt(what, s string, limit int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrParse, what, s, err)
	}
	if n > limit {
		return 0, fmt.Errorf("%w: %s %d exceeds %d", ErrParse, what, n, limit)
	}
	return n, nil
}

// Generate produces a value for the spec: a decimal port number or a string.
func (s RandomSpec) Generate() (string, error) {
	if s.Port {
		if s.Min < 0 || s.Max > MaxPort || s.Min > s.Max {
			return "", fmt.Errorf("%w: port range [%d, %d]", ErrParse, s.Min, s.Max)
		}
		n, err := randomInt(s.Min, s.Max)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	}
	return s.RandomConfig.Generate()
}

// Generate produces a random string for c. Every draw comes from crypto/rand.
func (c RandomConfig) Generate() (string, error) {
	length := c.Length
	if length <= 0 {
		length = DefaultRandomLength
	}
	if length > MaxRandomLength {
		return "", fmt.Errorf("%w: length %d exceeds %d", ErrParse, length, MaxRandomLength)
	}
	switch {
	case c.Characters != "":
		return randomChars(length, c.Characters)
	case c.Type == TypeWords:
		return randomWords(length)
	case c.Type == TypeBase64:
		b := make([]byte, length)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		s := base64.StdEncoding.EncodeToString(b)
		if c.URLSafe {
			s = strings.NewReplacer("+", "_", "/", "_").Replace(s)
		}
		return s, nil
	}
	for _, class := range randomClasses {
		if class.name == c.Type {
			class.cfg.Length = length
			return class.cfg.Generate()
		}
	}
	return randomChars(length, CharsURLSafe)
}

// RandomString generates a value for one spec line on top of base. A line
// that does not parse falls back to base.
func RandomString(base RandomConfig, line string) (string, error) {
	spec, err := ParseRandomSpec(line)
	if err != nil {
		return base.Generate()
	}
	if spec.Port {
		return spec.Generate()
	}
	cfg := base
	cfg.Length = spec.Length
	if spec.Characters != "" || spec.Type != "" {
		cfg.Characters, cfg.Type, cfg.URLSafe = spec.Characters, spec.Type, spec.URLSafe
	}
	return cfg.Generate()
}

// randomInt returns a uniform integer in [lo, hi].
func randomInt(lo, hi int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(hi-lo)+1))
	if err != nil {
		return 0, err
	}
	return lo + int(n.Int64()), nil
}

func randomChars(length int, chars string) (string, error) {
	alphabet := []rune(chars)
	var b strings.Builder
	b.Grow(length)
	for range length {
		i, err := randomInt(0, len(alphabet)-1)
		if err != nil {
			return "", err
		}
		b.WriteRune(alphabet[i])
	}
	return b.String(), nil
}
