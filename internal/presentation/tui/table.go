package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aretw0/lightpivot/pkg/domain"
)

// layout controls how a result is laid out as a table.
type layout struct {
	Width      int
	PageSize   int
	RowNumbers bool
	Stretch    bool
	Selected   map[int]bool
	Panel      domain.PanelOptions
}

type styles struct {
	border   lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
	negative lipgloss.Style
	selected lipgloss.Style
	title    lipgloss.Style
	message  lipgloss.Style
	footer   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		border:   r.NewStyle().Foreground(lipgloss.Color("240")),
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		negative: r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("203")),
		selected: r.NewStyle().Padding(0, 1).Reverse(true),
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("141")),
		message:  r.NewStyle().Foreground(lipgloss.Color("214")),
		footer:   r.NewStyle().Faint(true),
	}
}

// grid is a result flattened into header and body rows of text.
type grid struct {
	headers [][]string
	body    [][]string
	raw     [][]any
	left    int
}

func toGrid(result *domain.Result) grid {
	g := grid{}
	if result.Info != nil {
		g.left = result.Info.LeftHeaderColumnsNumber
	}

	if len(result.RawData) > 0 {
		split := min(result.HeaderRows(), len(result.RawData))
		for _, row := range result.RawData[:split] {
			g.headers = append(g.headers, cellsText(row))
		}
		for _, row := range result.RawData[split:] {
			g.body = append(g.body, cellsText(row))
			g.raw = append(g.raw, row)
		}
		return g
	}

	// Without a raw grid the table is rebuilt from the axes.
	var cols, rows []domain.Member
	if len(result.Dimensions) > 0 {
		cols = result.Dimensions[0]
	}
	if len(result.Dimensions) > 1 {
		rows = result.Dimensions[1]
	}
	header := make([]string, 0, len(cols)+1)
	if len(rows) > 0 {
		header = append(header, "")
		g.left = 1
	} else {
		g.left = 0
	}
	for _, c := range cols {
		header = append(header, c.Caption)
	}
	g.headers = [][]string{header}

	width := max(len(cols), 1)
	lines := max(len(rows), (len(result.DataArray)+width-1)/width)
	for i := range lines {
		var raw []any
		if i < len(rows) {
			raw = append(raw, rows[i].Caption)
		}
		for j := range width {
			k := i*width + j
			if k < len(result.DataArray) {
				raw = append(raw, result.DataArray[k])
			} else {
				raw = append(raw, nil)
			}
		}
		g.body = append(g.body, cellsText(raw))
		g.raw = append(g.raw, raw)
	}
	return g
}

func cellsText(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cellText(v)
	}
	return out
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

func isNegative(v any) bool {
	switch x := v.(type) {
	case float64:
		return x < 0
	case float32:
		return x < 0
	case int:
		return x < 0
	case int64:
		return x < 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return err == nil && f < 0
	default:
		return false
	}
}

// renderTable lays a result out as a bordered table. The second value is the
// number of body rows cut by the page size.
func renderTable(result *domain.Result, l layout, st styles) (string, int) {
	g := toGrid(result)

	hidden := 0
	if l.PageSize > 0 && len(g.body) > l.PageSize {
		hidden = len(g.body) - l.PageSize
		g.body = g.body[:l.PageSize]
		g.raw = g.raw[:l.PageSize]
	}

	numbered := l.RowNumbers && result.IsListing()
	if numbered {
		for i := range g.headers {
			label := ""
			if i == 0 {
				label = "#"
			}
			g.headers[i] = append([]string{label}, g.headers[i]...)
		}
		for i := range g.body {
			g.body[i] = append([]string{strconv.Itoa(i + 1)}, g.body[i]...)
			g.raw[i] = append([]any{nil}, g.raw[i]...)
		}
	}

	var headers []string
	if len(g.headers) > 0 {
		headers = g.headers[0]
	}
	extraHeaders := 0
	rows := make([][]string, 0, len(g.headers)+len(g.body))
	if len(g.headers) > 1 {
		extraHeaders = len(g.headers) - 1
		rows = append(rows, g.headers[1:]...)
	}
	rows = append(rows, g.body...)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || row < extraHeaders {
				return st.header
			}
			bodyRow := row - extraHeaders
			if l.Selected[bodyRow+1] {
				return st.selected
			}
			if col < g.left || (numbered && col == 0) {
				return st.header
			}
			if !l.Panel.DisableConditionalFormatting && bodyRow < len(g.raw) && col < len(g.raw[bodyRow]) && isNegative(g.raw[bodyRow][col]) {
				return st.negative
			}
			return st.cell
		})
	if l.Stretch && l.Width > 0 {
		t = t.Width(l.Width)
	}

	return t.Render(), hidden
}
