package dispatcher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kasuboski/umaru/pkg/manager"
	"github.com/kasuboski/umaru/pkg/watchlist"
)

const (
	activeText = "Umaru-chan is working hard!\n"
	idleText   = "All done for the day!\n"

	refreshSucceeded = "Catalog refreshed successfully!\n"
)

// FormatStatus renders the send-status response. now is shown as local time and
// again in the catalog source's zone.
func FormatStatus(status manager.Status, now time.Time, source *time.Location) string {
	var b strings.Builder

	sourceNow := now.In(source)
	fmt.Fprintf(&b, "Local Time: %s\t%s: %s\n",
		now.Format(time.TimeOnly), sourceNow.Format("MST"), sourceNow.Format(time.TimeOnly))

	if last, err := status.LastRefresh.Get(); err == nil {
		fmt.Fprintf(&b, "Last Refresh: %s (%s)\n",
			last.In(now.Location()).Format(time.ANSIC), humanize.RelTime(last, now, "ago", "from now"))
	}

	fmt.Fprintf(&b, "Catalog: %d shows, %d matched\n", status.CatalogSize, status.Matched)

	if status.Active {
		b.WriteString(activeText)
	} else {
		b.WriteString(idleText)
	}

	return b.String()
}

// FormatWatchlist renders entries as a JSON array
func FormatWatchlist(entries []watchlist.Entry) (string, error) {
	b, err := json.Marshal(watchlist.Strings(entries))
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func formatLogin(user string) string {
	return fmt.Sprintf("Login ID set for %s!\n", user) +
		"Auto list updates are on. Don't forget to add anime to your 'Watching' list!\n"
}

func formatRefresh(err error) string {
	if err != nil {
		return fmt.Sprintf("Catalog refresh failed: %v\n", err)
	}
	return refreshSucceeded
}
