package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/autocrawl/autocrawl/internal/model"
)

// ErrMissingYear is returned when a listing title does not start with a
// four digit year.
var ErrMissingYear = errors.New("listing title does not start with a year")

// CSS selectors of the carsales.com.au results markup.
const (
	selectorListing      = ".listing-item"
	selectorTitle        = "h2"
	selectorPrice        = ".price"
	selectorFeatureTitle = ".feature-title"
	selectorFeatureText  = ".feature-text"
	selectorState        = ".state"
	selectorNext         = ".next a"

	odometerFeature = "Odometer"
)

var yearPattern = regexp.MustCompile(`^(\d{4})`)

// Carsales extracts listings from carsales.com.au search results.
type Carsales struct {
	// lenientYear keeps listings whose title has no leading year, with
	// Year left at zero, instead of failing the page.
	lenientYear bool
}

// Option configures a Carsales extractor.
type Option func(*Carsales)

// WithLenientYear accepts titles without a leading year.
func WithLenientYear() Option {
	return func(c *Carsales) {
		c.lenientYear = true
	}
}

// NewCarsales creates a Carsales extractor.
func NewCarsales(opts ...Option) *Carsales {
	c := &Carsales{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract parses body, served from baseURL, into listings and the next
// page URL.
func (c *Carsales) Extract(body []byte, baseURL string) (*model.PageResult, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	result := &model.PageResult{
		Listings: []model.Listing{},
	}

	var extractErr error
	doc.Find(selectorListing).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		listing, err := c.extractListing(item, base)
		if err != nil {
			extractErr = err
			return false
		}
		if listing.Valid() {
			result.Listings = append(result.Listings, listing)
		}
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}

	if href, ok := doc.Find(selectorNext).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		next, err := resolve(base, href)
		if err != nil {
			return nil, fmt.Errorf("invalid next page link %q: %w", href, err)
		}
		result.NextURL = next
	}

	return result, nil
}

// extractListing reads one listing item. Missing fields stay zero.
func (c *Carsales) extractListing(item *goquery.Selection, base *url.URL) (model.Listing, error) {
	var listing model.Listing

	heading := item.Find(selectorTitle).First()
	if heading.Length() > 0 {
		listing.Title = strings.TrimSpace(heading.Contents().First().Text())

		if href, ok := heading.Parent().Filter("a").Attr("href"); ok {
			u, err := resolve(base, href)
			if err != nil {
				return listing, fmt.Errorf("invalid listing link %q: %w", href, err)
			}
			listing.URL = u
		}
	}

	if listing.Title == "" {
		return listing, nil
	}

	if m := yearPattern.FindStringSubmatch(listing.Title); m != nil {
		listing.Year, _ = strconv.Atoi(m[1])
	} else if !c.lenientYear {
		return listing, fmt.Errorf("%w: %q", ErrMissingYear, listing.Title)
	}

	listing.Price = leadingNumber(item.Find(selectorPrice).First().Text())

	item.Find(selectorFeatureTitle).EachWithBreak(func(_ int, feature *goquery.Selection) bool {
		if strings.TrimSpace(feature.Text()) != odometerFeature {
			return true
		}
		listing.Odometer = leadingNumber(feature.Parent().Find(selectorFeatureText).First().Text())
		return false
	})

	listing.State = strings.TrimSpace(item.Find(selectorState).First().Text())

	return listing, nil
}

// leadingNumber returns the first run of digits in s, ignoring thousands
// separators inside it. "$12,990*" gives 12990 and "150,000 km" gives
// 150000. It returns 0 when s holds no digits.
func leadingNumber(s string) int {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0
	}

	var b strings.Builder
	for _, r := range s[start:] {
		switch {
		case isDigit(r):
			b.WriteRune(r)
		case r == ',':
		default:
			n, _ := strconv.Atoi(b.String())
			return n
		}
	}

	n, _ := strconv.Atoi(b.String())
	return n
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
