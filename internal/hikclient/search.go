package hikclient

import (
	"bytes"
	"fmt"
	"log/slog"
)

const searchPath = "/ISAPI/ContentMgmt/logSearch"

// timeLayout is the only timestamp format the firmware accepts inside a
// timeSpan. Second resolution, always Z-suffixed.
const timeLayout = "2006-01-02T15:04:05Z"

// NoPosition requests the first page of a job, which must carry no resume
// cursor at all.
const NoPosition = -1

// matchMarker opens every returned log row. Counting occurrences is the
// only inspection the payload gets before it is written out verbatim.
var matchMarker = []byte("<searchMatchItem")

var searchHeaders = map[string]string{
	"Content-Type":     "application/x-www-form-urlencoded; charset=UTF-8",
	"X-Requested-With": "XMLHttpRequest",
	"Accept":           "*/*",
}

const searchBodyTemplate = `<?xml version="1.0" encoding="utf-8"?>
<CMSearchDescription>
    <searchID>%s</searchID>
    <metaId>log.std-cgi.com</metaId>
    <timeSpanList>
        <timeSpan>
            <startTime>%s</startTime>
            <endTime>%s</endTime>
        </timeSpan>
    </timeSpanList>
    <maxResults>%d</maxResults>
    %s
</CMSearchDescription>`

// buildSearchBody renders the CMSearch POST body. searchResultPostion is
// the firmware's own spelling; correcting it breaks pagination.
func buildSearchBody(job SearchJob, position int) []byte {
	var posXML string
	if position != NoPosition {
		posXML = fmt.Sprintf("<searchResultPostion>%d</searchResultPostion>", position)
	}

	body := fmt.Sprintf(searchBodyTemplate,
		job.ID,
		job.Start.Format(timeLayout),
		job.End.Format(timeLayout),
		job.PageSize,
		posXML,
	)
	return []byte(body)
}

// LogSearch runs a single CMSearch page request. position is the row offset
// to resume from, or NoPosition for the first page of the job.
func (c *Client) LogSearch(job SearchJob, position int) (Page, error) {
	body := buildSearchBody(job, position)

	response, err := c.Post(searchPath, searchHeaders, body)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Raw:     response,
		Matches: bytes.Count(response, matchMarker),
	}

	slog.Debug("Search page received", "search_id", job.ID, "position", position, "matches", page.Matches, "response_size", len(response))
	return page, nil
}
