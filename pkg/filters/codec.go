package filters

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Query string keys, in the order Encode emits them.
const (
	KeySearch   = "search"
	KeyAuthor   = "author"
	KeyYear     = "yr"
	KeyRating   = "rtg"
	KeyLanguage = "lng"
	KeyPages    = "pgs"
	KeyISBN     = "isbn"
	KeyImage    = "img"
	KeyPage     = "page"

	// keyLegacySearch is accepted on decode for old bookmarked links.
	keyLegacySearch = "q"
)

// DecodeAnomaly describes a query value that was ignored because it couldn't
// be used.
type DecodeAnomaly struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// rawParams holds every recognized key as strings so that binding can never
// fail on a type conversion. Unknown keys are dropped by the decoder.
type rawParams struct {
	Search       []string `schema:"search" mod:"dive,trim"`
	LegacySearch []string `schema:"q" mod:"dive,trim"`
	Author       []string `schema:"author" mod:"dive,trim"`
	Year         []string `schema:"yr" mod:"dive,trim"`
	Rating       []string `schema:"rtg" mod:"dive,trim"`
	Language     []string `schema:"lng" mod:"dive,trim"`
	Pages        []string `schema:"pgs" mod:"dive,trim"`
	ISBN         []string `schema:"isbn" mod:"dive,trim"`
	Image        []string `schema:"img" mod:"dive,trim"`
	Page         []string `schema:"page" mod:"dive,trim"`
}

// Codec converts between raw query parameters and State. It's safe for
// concurrent use.
type Codec struct {
	decoder  *schema.Decoder
	conform  *mold.Transformer
	validate *validator.Validate
}

func NewCodec() *Codec {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Codec{
		decoder:  decoder,
		conform:  modifiers.New(),
		validate: validator.New(),
	}
}

// Decode parses query parameters into a canonical State. It never fails:
// malformed values are logged at debug level and treated as absent.
func (c *Codec) Decode(ctx context.Context, values url.Values) State {
	state, anomalies := c.DecodeWithAnomalies(ctx, values)
	if len(anomalies) > 0 {
		log := logger.FromContext(ctx)
		for _, a := range anomalies {
			log.Debug("ignoring query parameter", logger.Data{
				"key":    a.Key,
				"value":  a.Value,
				"reason": a.Reason,
			})
		}
	}
	return state
}

// DecodeWithAnomalies is Decode, but also returns the values it ignored.
func (c *Codec) DecodeWithAnomalies(ctx context.Context, values url.Values) (State, []DecodeAnomaly) {
	state := Empty()
	var anomalies []DecodeAnomaly
	note := func(key, value, reason string) {
		anomalies = append(anomalies, DecodeAnomaly{Key: key, Value: value, Reason: reason})
	}

	raw := rawParams{}
	if err := c.decoder.Decode(&raw, values); err != nil {
		// Every field is a []string, so this only happens on a broken
		// decoder setup. Fall back to the unconstrained listing.
		note("", values.Encode(), err.Error())
		return state, anomalies
	}
	if err := c.conform.Struct(ctx, &raw); err != nil {
		note("", values.Encode(), err.Error())
		return state, anomalies
	}

	// search, falling back to the legacy key
	for _, v := range append(raw.Search, raw.LegacySearch...) {
		if s := normalizeSearch(v); s != nil {
			if c.validate.Var(v, "max=100") != nil {
				note(KeySearch, v, "longer than 100 characters, truncated")
			}
			state.SearchText = s
			break
		}
	}

	// Authors are names and may contain commas, so only repeated keys
	// select more than one.
	state.Authors = canonicalSet(raw.Author)

	if len(raw.Year) > 0 {
		bounds := make([]int, 0, 2)
		for _, v := range splitList(raw.Year) {
			n, err := strconv.Atoi(v)
			if err != nil {
				note(KeyYear, v, "not a number")
				continue
			}
			bounds = append(bounds, n)
		}
		if len(bounds) < 2 {
			note(KeyYear, strings.Join(raw.Year, ","), "needs a lower and an upper bound")
		} else {
			for _, extra := range bounds[2:] {
				note(KeyYear, strconv.Itoa(extra), "more than two bounds, ignored")
			}
			lo, hi := bounds[0], bounds[1]
			if lo > hi {
				lo, hi = hi, lo
			}
			state.YearRange = &YearRange{Min: lo, Max: hi}
		}
	}

	if v, ok := last(raw.Rating); ok {
		r, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil || math.IsNaN(r):
			note(KeyRating, v, "not a number")
		case c.validate.Var(r, "gte=0,lte=5") != nil:
			note(KeyRating, v, "outside 0 to 5")
		default:
			state.MinRating = &r
		}
	}

	if v, ok := last(raw.Language); ok {
		state.Language = &v
	}

	if v, ok := last(raw.Pages); ok {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			note(KeyPages, v, "not a number")
		case c.validate.Var(n, "gte=0") != nil:
			note(KeyPages, v, "negative")
		default:
			state.MaxPages = &n
		}
	}

	state.ISBNs = canonicalSet(splitList(raw.ISBN))

	if v, ok := last(raw.Image); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			note(KeyImage, v, "not a boolean")
		}
		state.RequireImage = b
	}

	if v, ok := last(raw.Page); ok {
		n, reason := parsePage(v)
		if reason != "" {
			note(KeyPage, v, reason)
		}
		state.Page = max(1, n)
	}

	return state, anomalies
}

// parsePage reads a requested page. Pages too large for an int saturate so
// that they clamp to the last page, and fractional pages are truncated. A
// non-empty reason means the value was adjusted or ignored.
func parsePage(v string) (int, string) {
	n, err := strconv.Atoi(v)
	if err == nil {
		return n, ""
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(v, "-") {
			return 1, ""
		}
		return math.MaxInt, ""
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return 1, "not a number"
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt, ""
	case f < 1:
		return 1, ""
	}
	if f != math.Trunc(f) {
		return int(f), "not a whole number, truncated"
	}
	return int(f), ""
}

// Encode serializes s into its canonical query string: keys in a fixed
// order, one repeated key per value of a multi-valued field, and absent
// fields (and page 1) left out.
func Encode(s State) string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	if s.SearchText != nil && *s.SearchText != "" {
		add(KeySearch, *s.SearchText)
	}
	for _, a := range canonicalSet(s.Authors) {
		add(KeyAuthor, a)
	}
	if s.YearRange != nil {
		add(KeyYear, strconv.Itoa(s.YearRange.Min))
		add(KeyYear, strconv.Itoa(s.YearRange.Max))
	}
	if s.MinRating != nil {
		add(KeyRating, strconv.FormatFloat(*s.MinRating, 'f', -1, 64))
	}
	if s.Language != nil && *s.Language != "" {
		add(KeyLanguage, *s.Language)
	}
	if s.MaxPages != nil {
		add(KeyPages, strconv.Itoa(*s.MaxPages))
	}
	for _, isbn := range canonicalSet(s.ISBNs) {
		add(KeyISBN, isbn)
	}
	if s.RequireImage {
		add(KeyImage, "1")
	}
	if s.Page > 1 {
		add(KeyPage, strconv.Itoa(s.Page))
	}
	return b.String()
}

// last returns the last non-empty value, which wins when a single-valued key
// is repeated.
func last(values []string) (string, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != "" {
			return values[i], true
		}
	}
	return "", false
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
