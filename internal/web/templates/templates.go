// Package templates renders the HTML views of the web UI as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/a-h/templ"
)

// PageData is what the dataset page shows.
type PageData struct {
	Status    core.Status
	Catalog   []core.YearRounds
	Entries   []core.Entry
	Truncated bool
	Error     *core.UserMessage
}

// Page renders the full dataset page: the selection form, the load status
// and the visible entries in the active sort order.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(pageTitle(data.Status))
		p.raw(`</title></head><body><main>`)
		p.raw(`<h1>Opening and closing ranks</h1>`)

		selectionForm(p, data.Catalog, data.Status)

		if data.Error != nil {
			if err := ErrorAlert(data.Error.Message, data.Error.Action, data.Error.Code).Render(ctx, w); err != nil {
				return err
			}
		}

		if !data.Status.Loaded {
			p.raw(`<p class="empty">Pick a year and round to load a dataset.</p>`)
			p.raw(`</main></body></html>`)
			return p.err
		}

		p.raw(`<p class="status">`)
		p.text(fmt.Sprintf("%d of %d entries, sorted %s", data.Status.Visible, data.Status.Entries, data.Status.Sort))
		if data.Truncated {
			p.text(fmt.Sprintf(" (showing the first %d)", len(data.Entries)))
		}
		p.raw(`</p>`)

		entryTable(p, data.Entries)
		p.raw(`</main></body></html>`)
		return p.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<div class="alert alert-error" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if action != "" {
			p.raw(`<p>`)
			p.text(action)
			p.raw(`</p>`)
		}
		p.raw(`<small>Code: `)
		p.text(code)
		p.raw(`</small></div>`)
		return p.err
	})
}

func pageTitle(st core.Status) string {
	if !st.Loaded {
		return "rankview"
	}
	return "rankview " + st.Selection.String()
}

func selectionForm(p *printer, catalog []core.YearRounds, st core.Status) {
	p.raw(`<form method="post" action="/load" class="selection">`)

	p.raw(`<label>Year <select name="year">`)
	for _, yr := range catalog {
		option(p, strconv.Itoa(int(yr.Year)), st.Loaded && st.Selection.Year == yr.Year)
	}
	p.raw(`</select></label>`)

	maxRound := 0
	for _, yr := range catalog {
		for _, r := range yr.Rounds {
			maxRound = max(maxRound, r)
		}
	}
	p.raw(`<label>Round <select name="round">`)
	for r := 1; r <= maxRound; r++ {
		option(p, strconv.Itoa(r), st.Loaded && int(st.Selection.Round) == r)
	}
	p.raw(`</select></label>`)

	p.raw(`<button type="submit">Load</button></form>`)
}

func option(p *printer, value string, selected bool) {
	p.raw(`<option value="`)
	p.text(value)
	p.raw(`"`)
	if selected {
		p.raw(` selected`)
	}
	p.raw(`>`)
	p.text(value)
	p.raw(`</option>`)
}

var entryColumns = []string{"Institute", "Branch", "Quota", "Seat type", "Gender", "Opening rank", "Closing rank"}

func entryTable(p *printer, entries []core.Entry) {
	if len(entries) == 0 {
		p.raw(`<p class="empty">No entries match the current filters.</p>`)
		return
	}

	p.raw(`<table><thead><tr>`)
	for _, c := range entryColumns {
		p.raw(`<th>`)
		p.text(c)
		p.raw(`</th>`)
	}
	p.raw(`</tr></thead><tbody>`)
	for i := range entries {
		e := &entries[i]
		p.raw(`<tr>`)
		for _, v := range []string{
			e.Institute(),
			e.Branch(),
			e.Quota(),
			e.SeatType(),
			e.Gender(),
			strconv.FormatUint(uint64(e.OpeningRank()), 10),
			strconv.FormatUint(uint64(e.ClosingRank()), 10),
		} {
			p.raw(`<td>`)
			p.text(v)
			p.raw(`</td>`)
		}
		p.raw(`</tr>`)
	}
	p.raw(`</tbody></table>`)
}

// printer writes markup and keeps the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}
