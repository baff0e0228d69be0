package dmc

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/floodwatch-lk/flood-data-api/internal/cache"
)

// Resolver locates the identifier of the newest upstream data artifact.
// An empty identifier with a nil error means no matching artifact exists.
type Resolver interface {
	Latest(ctx context.Context) (string, error)
}

// artifactNameRe matches the fixed-width "YYYYMMDD.HHMMSS" prefix every
// dated artifact carries. Filtering on it before sorting keeps a stray
// differently-shaped filename from winning the lexicographic sort.
var artifactNameRe = regexp.MustCompile(`^\d{8}\.\d{6}`)

// ListingResolver picks the newest artifact from a directory listing.
// Correctness rests on the zero-padded date-time filenames: lexicographic
// descending order equals chronological order.
type ListingResolver struct {
	client     *Client
	listingURL string
	suffix     string
	cache      *cache.Cache
	cacheKey   string
}

// NewListingResolver creates a resolver over a contents-API directory
// listing, memoized in the shared cache under cacheKey.
func NewListingResolver(client *Client, listingURL, suffix string, c *cache.Cache, cacheKey string) *ListingResolver {
	return &ListingResolver{
		client:     client,
		listingURL: listingURL,
		suffix:     suffix,
		cache:      c,
		cacheKey:   cacheKey,
	}
}

type listingEntry struct {
	Name string `json:"name"`
}

func (r *ListingResolver) Latest(ctx context.Context) (string, error) {
	if v, ok := r.cache.Get(r.cacheKey); ok {
		return v.(string), nil
	}

	var entries []listingEntry
	if err := r.client.GetJSON(ctx, "listing", r.listingURL, &entries); err != nil {
		return "", err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name, r.suffix) && artifactNameRe.MatchString(e.Name) {
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		return "", nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	r.cache.Set(r.cacheKey, names[0])
	return names[0], nil
}

// IndexResolver picks the newest matching document from a tab-separated
// manifest of recent documents, newest first. Rows whose identifier lacks
// the content marker (e.g. flood-warning entries with no JSON body) are
// skipped.
type IndexResolver struct {
	client   *Client
	indexURL string
	marker   string
	cache    *cache.Cache
	cacheKey string
}

// NewIndexResolver creates a resolver over a TSV document manifest,
// memoized in the shared cache under cacheKey.
func NewIndexResolver(client *Client, indexURL, marker string, c *cache.Cache, cacheKey string) *IndexResolver {
	return &IndexResolver{
		client:   client,
		indexURL: indexURL,
		marker:   marker,
		cache:    c,
		cacheKey: cacheKey,
	}
}

func (r *IndexResolver) Latest(ctx context.Context) (string, error) {
	if v, ok := r.cache.Get(r.cacheKey); ok {
		return v.(string), nil
	}

	text, err := r.client.GetText(ctx, "index", r.indexURL)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		id := strings.TrimSpace(fields[0])
		if id == "" || !strings.Contains(id, r.marker) {
			continue
		}
		r.cache.Set(r.cacheKey, id)
		return id, nil
	}
	return "", nil
}

// timestampFromArtifact converts the fixed-width "YYYYMMDD.HHMMSS" artifact
// prefix into a display timestamp. Returns "" when the name carries no
// parseable prefix.
func timestampFromArtifact(name string) string {
	m := artifactNameRe.FindString(name)
	if m == "" {
		return ""
	}
	t, err := time.Parse("20060102.150405", m)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
