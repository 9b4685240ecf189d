package terminal

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/ports"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderDrafts lists pending drafts with their selection number.
func RenderDrafts(w io.Writer, drafts []domain.DraftSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Kind", "Slug", "Modified", "Path"})
	for i, d := range drafts {
		t.AppendRow(table.Row{i + 1, d.Kind, d.Slug, d.ModifiedAt.Format("2006-01-02 15:04"), d.Path})
	}
	t.Render()
}

// RenderReview shows extracted metadata per reference.
func RenderReview(w io.Writer, rows []ports.ReviewRow, degraded bool) {
	if degraded {
		fmt.Fprintln(w, "Extraction service unavailable: metadata left empty, fill it in after publishing.")
	}
	t := newTable(w)
	t.SetTitle("Extracted metadata")
	t.AppendHeader(table.Row{"Kind", "URL", "Metadata", "Confidence"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Kind, r.URL, r.Summary, fmt.Sprintf("%.2f", r.Confidence)})
	}
	t.Render()
}

// RenderReport prints the outcome of a publish run.
func RenderReport(w io.Writer, report domain.PublishReport) {
	t := newTable(w)
	t.SetTitle("Published")
	t.AppendRows([]table.Row{
		{"Document", report.DocumentPath},
		{"Archived draft", report.ArchivePath},
		{"New uploads", report.NewUploads},
		{"Reused from library", report.Reused},
		{"Links", report.Links},
		{"Degraded extraction", report.Degraded},
	})
	t.Render()
}

// RenderLibrary lists library entries.
func RenderLibrary(w io.Writer, entries []domain.LibraryEntry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Kind", "Added", "Source URL", "Public URL"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.Kind, e.AddedAt.Format("2006-01-02 15:04"), e.SourceURL, e.PublicURL()})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(entries)})
	t.Render()
}
