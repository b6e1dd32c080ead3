package dumper

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shpavel7/hik-log-dump-raw/internal/config"
	"github.com/shpavel7/hik-log-dump-raw/internal/hikclient"
)

// maxPages is the firmware ceiling on result pages per CMSearch job. A
// window that fills all of them must be split and retried.
const maxPages = 20

// Outcome reports how a single window fetch ended. Truncation is not an
// error; it is the trigger for splitting the window.
type Outcome int

const (
	// Complete means the window was drained down to an empty page.
	Complete Outcome = iota
	// Truncated means the page ceiling was hit with rows still unread.
	Truncated
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Truncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// SearchClient is the slice of the recorder client the dumper needs.
type SearchClient interface {
	LogSearch(job hikclient.SearchJob, position int) (hikclient.Page, error)
}

// Stats counts work done across one DumpRange call tree.
type Stats struct {
	Windows int   // search jobs attempted
	Splits  int   // windows that truncated and were halved
	Pages   int   // non-empty pages written
	Bytes   int64 // payload bytes written, separators included
}

type Dumper struct {
	client   SearchClient
	pageSize int
	out      io.Writer
	stats    Stats
}

var pageSeparator = []byte("\n")

func NewDumper(client SearchClient, out io.Writer, config config.DumperConfig) *Dumper {
	return &Dumper{
		client:   client,
		pageSize: config.PageSize,
		out:      out,
	}
}

func (d *Dumper) Stats() Stats {
	return d.stats
}

// DumpRange downloads every log row in [start, end), halving the window
// whenever the recorder truncates it at the page ceiling. The left half is
// fully flushed before the right half begins, so the file stays in time
// order at the granularity of the split tree.
func (d *Dumper) DumpRange(start, end time.Time) error {
	job := hikclient.SearchJob{
		ID:       uuid.NewString(),
		Start:    start,
		End:      end,
		PageSize: d.pageSize,
	}
	d.stats.Windows++

	outcome, err := d.fetchWindow(job)
	if err != nil {
		return err
	}
	if outcome == Complete {
		return nil
	}

	if end.Sub(start) <= time.Second {
		// The recorder's timestamps have one-second resolution; a window
		// this small cannot shrink, and recursing would never terminate.
		return fmt.Errorf("window [%s, %s) is truncated but too small to split: raise --batch",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	mid := start.Add(end.Sub(start) / 2).Truncate(time.Second)
	if !mid.After(start) || !mid.Before(end) {
		return fmt.Errorf("window [%s, %s) has no whole-second midpoint",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	d.stats.Splits++
	slog.Debug("Window truncated, splitting", "start", start, "mid", mid, "end", end)

	if err := d.DumpRange(start, mid); err != nil {
		return err
	}
	return d.DumpRange(mid, end)
}

// fetchWindow pages through one search job. Every non-empty page is flushed
// to the sink before the next request goes out, so rows already received
// survive a failure later in the same job.
func (d *Dumper) fetchWindow(job hikclient.SearchJob) (Outcome, error) {
	position := hikclient.NoPosition
	pages := 0

	for {
		page, err := d.client.LogSearch(job, position)
		if err != nil {
			return 0, fmt.Errorf("search page %d of job %s: %w", pages, job.ID, err)
		}

		if page.Empty() {
			slog.Debug("Window complete", "search_id", job.ID, "pages", pages)
			return Complete, nil
		}

		if err := d.writePage(page); err != nil {
			return 0, fmt.Errorf("writing page %d of job %s: %w", pages, job.ID, err)
		}

		pages++
		if pages == maxPages {
			slog.Debug("Window hit page ceiling", "search_id", job.ID, "pages", pages)
			return Truncated, nil
		}
		position = pages * job.PageSize
	}
}

func (d *Dumper) writePage(page hikclient.Page) error {
	if _, err := d.out.Write(page.Raw); err != nil {
		return err
	}
	if _, err := d.out.Write(pageSeparator); err != nil {
		return err
	}
	d.stats.Pages++
	d.stats.Bytes += int64(len(page.Raw)) + int64(len(pageSeparator))
	return nil
}
