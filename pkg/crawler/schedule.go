package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kasuboski/umaru/pkg/catalog"
	mhttp "github.com/kasuboski/umaru/pkg/http"
	"github.com/kasuboski/umaru/pkg/logger"
)

// Selectors locate shows on a release schedule page. Title and Episode are
// evaluated inside each Item; an empty Title uses the item text itself.
type Selectors struct {
	Item    string
	Title   string
	Episode string
}

// ScheduleCrawler scrapes an HTML release schedule
type ScheduleCrawler struct {
	client    mhttp.HTTPClient
	url       string
	selectors Selectors
	now       func() time.Time
}

func NewScheduleCrawler(client mhttp.HTTPClient, url string, selectors Selectors) *ScheduleCrawler {
	return &ScheduleCrawler{
		client:    client,
		url:       url,
		selectors: selectors,
		now:       time.Now,
	}
}

func (c *ScheduleCrawler) Crawl(ctx context.Context) (catalog.Snapshot, error) {
	log := logger.FromCtx(ctx, "url", c.url)

	if c.selectors.Item == "" {
		return catalog.Snapshot{}, fail(KindSchedule, fmt.Errorf("item selector is required"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return catalog.Snapshot{}, fail(KindSchedule, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return catalog.Snapshot{}, fail(KindSchedule, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return catalog.Snapshot{}, fail(KindSchedule, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return catalog.Snapshot{}, fail(KindSchedule, fmt.Errorf("failed to parse schedule: %w", err))
	}

	snapshot := catalog.NewSnapshot(c.parse(doc), c.now())
	if snapshot.Len() == 0 {
		log.Warnw("schedule page matched no shows", "selector", c.selectors.Item)
	}

	return snapshot, nil
}

func (c *ScheduleCrawler) parse(doc *goquery.Document) []catalog.Entry {
	entries := make([]catalog.Entry, 0)

	doc.Find(c.selectors.Item).Each(func(_ int, s *goquery.Selection) {
		titleSel := s
		if c.selectors.Title != "" {
			titleSel = s.Find(c.selectors.Title).First()
		}

		entry := catalog.Entry{Title: normSpace(titleSel.Text())}
		if c.selectors.Episode != "" {
			if ep := firstNumber(s.Find(c.selectors.Episode).First().Text()); ep != "" {
				entry.Metadata = map[string]string{catalog.LatestEpisodeKey: ep}
			}
		}

		entries = append(entries, entry)
	})

	return entries
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstNumber returns the first run of ASCII digits in s
func firstNumber(s string) string {
	isDigit := func(r rune) bool { return r >= '0' && r <= '9' }

	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return ""
	}
	end := strings.IndexFunc(s[start:], func(r rune) bool { return !isDigit(r) })
	if end < 0 {
		return s[start:]
	}
	return s[start : start+end]
}
