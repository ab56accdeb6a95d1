package generators

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/rules"
)

var ErrUnknownProvider = errors.New("unknown synthetic provider")

// Synthetic answers "faker." rule calls such as "name()" or
// "date_between(start_date='-30y', end_date='today')". Results are rendered
// as text and cut to the column length by the caller.
type Synthetic struct {
	Now func() time.Time
}

type providerFunc func(s *Synthetic, rng *rand.Rand, c call) (interface{}, error)

type call struct {
	args   []string
	kwargs map[string]string
}

func (c call) arg(i int, kw, def string) string {
	if v, ok := c.kwargs[kw]; ok {
		return v
	}
	if i < len(c.args) {
		return c.args[i]
	}
	return def
}

var providers = map[string]providerFunc{
	"name":              func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Name(), nil },
	"first_name":        func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.FirstName(), nil },
	"first_name_male":   func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.FirstNameMale(), nil },
	"first_name_female": func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.FirstNameFemale(), nil },
	"last_name":         func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.LastName(), nil },
	"prefix":            func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.TitleMale(), nil },
	"email":             func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Email(), nil },
	"free_email":        func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Email(), nil },
	"user_name":         func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Username(), nil },
	"domain_name":       func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.DomainName(), nil },
	"url":               func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.URL(), nil },
	"ipv4":              func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.IPv4(), nil },
	"mac_address":       func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.MacAddress(), nil },
	"phone_number":      func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Phonenumber(), nil },
	"word":              func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Word(), nil },
	"sentence":          func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Sentence(), nil },
	"paragraph":         func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Paragraph(), nil },
	"text":              func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Paragraph(), nil },
	"currency_code":     func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Currency(), nil },
	"credit_card_number": func(*Synthetic, *rand.Rand, call) (interface{}, error) {
		return faker.CCNumber(), nil
	},
	"timezone": func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Timezone(), nil },
	"street_address": func(*Synthetic, *rand.Rand, call) (interface{}, error) {
		return faker.GetRealAddress().Address, nil
	},
	"city":     func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.GetRealAddress().City, nil },
	"state":    func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.GetRealAddress().State, nil },
	"postcode": func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.GetRealAddress().PostalCode, nil },
	"zipcode":  func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.GetRealAddress().PostalCode, nil },
	"company": func(_ *Synthetic, rng *rand.Rand, _ call) (interface{}, error) {
		suffixes := []string{"Inc", "LLC", "Ltd", "Group", "and Sons", "Corp"}
		return faker.LastName() + " " + suffixes[rng.Intn(len(suffixes))], nil
	},
	"uuid4": func(_ *Synthetic, rng *rand.Rand, _ call) (interface{}, error) {
		return (&UUID4Generator{}).Generate(rng, Context{})
	},
	"bothify": func(_ *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
		return Bothify(rng, c.arg(0, "text", "## ??")), nil
	},
	"numerify": func(_ *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
		return Numerify(rng, c.arg(0, "text", "###")), nil
	},
	"lexify": func(_ *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
		return Lexify(rng, c.arg(0, "text", "????")), nil
	},
	"bban": func(_ *Synthetic, rng *rand.Rand, _ call) (interface{}, error) {
		return Numerify(rng, strings.Repeat("#", 10+rng.Intn(8))), nil
	},
	"iban": func(_ *Synthetic, rng *rand.Rand, _ call) (interface{}, error) {
		return "GB" + Numerify(rng, "##") + Lexify(rng, "????") + Numerify(rng, "##############"), nil
	},
	"random_int":    randomInt,
	"random_number": randomNumber,
	"date":          func(*Synthetic, *rand.Rand, call) (interface{}, error) { return faker.Date(), nil },
	"date_between":  dateBetween,
	"date_time_between": func(s *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
		v, err := dateBetween(s, rng, c)
		if err != nil {
			return nil, err
		}
		t := v.(time.Time).Add(time.Duration(rng.Intn(86400)) * time.Second)
		return t.Format("2006-01-02 15:04:05"), nil
	},
	"date_of_birth": dateOfBirth,
}

// Providers lists the supported call names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}

// Has reports whether the call text names a supported provider.
func (s *Synthetic) Has(text string) bool {
	name, _, err := rules.SplitCall(text)
	if err != nil {
		return false
	}
	_, ok := providers[name]
	return ok
}

func (s *Synthetic) Call(rng *rand.Rand, text string) (string, error) {
	name, tokens, err := rules.SplitCall(text)
	if err != nil {
		return "", err
	}
	fn, ok := providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	c := call{kwargs: map[string]string{}}
	for _, tok := range tokens {
		if k, v, ok := splitKwarg(tok); ok {
			c.kwargs[k] = v
			continue
		}
		v, _ := rules.Unquote(tok)
		c.args = append(c.args, v)
	}
	v, err := fn(s, rng, c)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return domain.FormatValue(v), nil
}

// SeedFaker resets go-faker's package-level random source. Faker values and
// type defaults drawn after the call repeat for the same seed. The source is
// shared by the whole process, so tables must not be generated concurrently.
func SeedFaker(seed int64) {
	faker.SetRandomSource(faker.NewSafeSource(rand.NewSource(seed)))
}

func (s *Synthetic) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func splitKwarg(tok string) (string, string, bool) {
	eq := strings.IndexByte(tok, '=')
	if eq <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(tok[:eq])
	for _, r := range key {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", "", false
		}
	}
	v, _ := rules.Unquote(strings.TrimSpace(tok[eq+1:]))
	return key, v, true
}

func randomInt(_ *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
	lo, err := strconv.ParseInt(c.arg(0, "min", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("min: %w", err)
	}
	hi, err := strconv.ParseInt(c.arg(1, "max", "9999"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("max: %w", err)
	}
	if hi < lo {
		return nil, fmt.Errorf("max (%d) must not be less than min (%d)", hi, lo)
	}
	return IntBetween(rng, lo, hi), nil
}

func randomNumber(_ *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
	digits, err := strconv.Atoi(c.arg(0, "digits", "6"))
	if err != nil || digits <= 0 {
		return nil, fmt.Errorf("digits must be a positive integer")
	}
	return Digits(rng, digits), nil
}

func dateBetween(s *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
	now := s.now()
	lo, err := fakerDate(c.arg(0, "start_date", "-30y"), now)
	if err != nil {
		return nil, err
	}
	hi, err := fakerDate(c.arg(1, "end_date", "today"), now)
	if err != nil {
		return nil, err
	}
	if hi.Before(lo) {
		return nil, errors.New("end_date is before start_date")
	}
	return RandomDay(rng, lo, hi), nil
}

func dateOfBirth(s *Synthetic, rng *rand.Rand, c call) (interface{}, error) {
	minAge, err := strconv.Atoi(c.arg(0, "minimum_age", "18"))
	if err != nil {
		return nil, fmt.Errorf("minimum_age: %w", err)
	}
	maxAge, err := strconv.Atoi(c.arg(1, "maximum_age", "80"))
	if err != nil {
		return nil, fmt.Errorf("maximum_age: %w", err)
	}
	if maxAge < minAge {
		return nil, errors.New("maximum_age is below minimum_age")
	}
	now := s.now()
	return RandomDay(rng, now.AddDate(-maxAge-1, 0, 1), now.AddDate(-minAge, 0, 0)), nil
}

// fakerDate reads "today", "now", ISO dates and offsets such as "-30y",
// "+6m", "-10d" or "-2w".
func fakerDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "today", "now", "":
		return now, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if len(s) >= 3 && (s[0] == '-' || s[0] == '+') {
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err == nil {
			if s[0] == '-' {
				n = -n
			}
			switch s[len(s)-1] {
			case 'y':
				return now.AddDate(n, 0, 0), nil
			case 'm':
				return now.AddDate(0, n, 0), nil
			case 'w':
				return now.AddDate(0, 0, 7*n), nil
			case 'd':
				return now.AddDate(0, 0, n), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date expression %q", s)
}

const (
	digitChars  = "0123456789"
	letterChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Bothify replaces '#' with a digit and '?' with an upper-case letter.
func Bothify(rng *rand.Rand, pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, r := range pattern {
		switch r {
		case '#':
			b.WriteByte(digitChars[rng.Intn(len(digitChars))])
		case '?':
			b.WriteByte(letterChars[rng.Intn(len(letterChars))])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Numerify replaces only '#'.
func Numerify(rng *rand.Rand, pattern string) string {
	return bothifyOnly(rng, pattern, '#')
}

// Lexify replaces only '?'.
func Lexify(rng *rand.Rand, pattern string) string {
	return bothifyOnly(rng, pattern, '?')
}

func bothifyOnly(rng *rand.Rand, pattern string, mark rune) string {
	var b strings.Builder
	for _, r := range pattern {
		switch {
		case r == mark && mark == '#':
			b.WriteByte(digitChars[rng.Intn(len(digitChars))])
		case r == mark && mark == '?':
			b.WriteByte(letterChars[rng.Intn(len(letterChars))])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Digits returns n random digits without a leading zero when n > 1.
func Digits(rng *rand.Rand, n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = digitChars[rng.Intn(len(digitChars))]
	}
	if n > 1 && b[0] == '0' {
		b[0] = digitChars[1+rng.Intn(9)]
	}
	return string(b)
}
