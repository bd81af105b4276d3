package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/xxxsen/cen64-launcher/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const EmptyHint = "No layout selected. Set view.layout to \"Table View\", \"Grid View\" or \"List View\"."

const NoRomsHint = "No ROMs found. Add *.z64, *.n64, *.zip or *.7z files to the ROM directory and run scan."

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	gridStyle   = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(24)
	listStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))
)

// lipgloss/table styles the header line as row 0 and data from row 1.
const tableHeaderRow = 0

func tableCellStyle(row, _ int) lipgloss.Style {
	if row == tableHeaderRow {
		return headerStyle.Inherit(cellStyle)
	}
	return cellStyle
}

type renderFunc func(opts Options, records []model.RomRecord) string

var renderers = map[Layout]renderFunc{
	LayoutEmpty: renderEmpty,
	LayoutTable: renderTable,
	LayoutGrid:  renderGrid,
	LayoutList:  renderList,
}

// Render writes records in the layout selected by opts.
func Render(w io.Writer, opts Options, records []model.RomRecord) error {
	fn, ok := renderers[opts.Layout]
	if !ok {
		return fmt.Errorf("no renderer for layout %s", opts.Layout)
	}
	var out string
	if opts.Layout != LayoutEmpty && len(records) == 0 {
		out = NoRomsHint
	} else {
		out = fn(opts, records)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

func renderEmpty(_ Options, _ []model.RomRecord) string {
	return EmptyHint
}

func renderTable(opts Options, records []model.RomRecord) string {
	cols := opts.TableColumns
	if len(cols) == 0 {
		cols = DefaultOptions().TableColumns
	}
	headers := make([]string, 0, len(cols))
	for _, f := range cols {
		headers = append(headers, f.String())
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, 0, len(cols))
		for _, f := range cols {
			row = append(row, f.Display(r))
		}
		rows = append(rows, row)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(tableCellStyle)
	return t.Render()
}

func renderGrid(opts Options, records []model.RomRecord) string {
	perRow := opts.GridColumns
	if perRow <= 0 {
		perRow = DefaultOptions().GridColumns
	}
	cells := make([]string, 0, len(records))
	for _, r := range records {
		title := model.FieldGoodName.Display(r)
		if r.Info != nil && r.Info.GameTitle != "" {
			title = r.Info.GameTitle
		}
		body := headerStyle.Render(title)
		if opts.GridLabel {
			body += "\n" + opts.GridText.Display(r)
		}
		cells = append(cells, gridStyle.Render(body))
	}
	var lines []string
	for i := 0; i < len(cells); i += perRow {
		end := i + perRow
		if end > len(cells) {
			end = len(cells)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderList(opts Options, records []model.RomRecord) string {
	cols := opts.ListColumns
	if len(cols) == 0 {
		cols = DefaultOptions().ListColumns
	}
	blocks := make([]string, 0, len(records))
	for _, r := range records {
		var lines []string
		for i, f := range cols {
			v := f.Display(r)
			if i == 0 && opts.ListHeader {
				lines = append(lines, headerStyle.Render(v))
				continue
			}
			if v == "" {
				continue
			}
			lines = append(lines, headerStyle.Render(f.String()+":")+" "+v)
		}
		blocks = append(blocks, listStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}
