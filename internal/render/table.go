package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fuel-economy/internal/common/config"
	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/fueleconomy"

	"github.com/charmbracelet/lipgloss"
)

// TableRenderer prints each variant as its model followed by "Range: N miles".
// Colours are only emitted when out is a terminal.
type TableRenderer struct {
	nopCloser
	out   io.Writer
	title string

	titleStyle lipgloss.Style
	modelStyle lipgloss.Style
	rangeStyle lipgloss.Style
	emptyStyle lipgloss.Style
}

func NewTableRenderer(out io.Writer, title string) *TableRenderer {
	r := lipgloss.NewRenderer(out)
	return &TableRenderer{
		out:        out,
		title:      title,
		titleStyle: r.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#5B8DEF")),
		modelStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50")),
		rangeStyle: r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		emptyStyle: r.NewStyle().Foreground(lipgloss.Color("#999999")),
	}
}

func (t *TableRenderer) Render(_ context.Context, records []fueleconomy.VariantRecord) error {
	var b strings.Builder

	if t.title != "" {
		b.WriteString(t.titleStyle.Render(t.title))
		b.WriteString("\n\n")
	}

	if len(records) == 0 {
		b.WriteString(t.emptyStyle.Render("No vehicles found."))
		b.WriteString("\n")
	}

	for _, r := range records {
		b.WriteString(t.modelStyle.Render(r.Model))
		b.WriteString("\n")
		b.WriteString(t.rangeStyle.Render(fmt.Sprintf("Range: %s miles", FormatRange(r.Range))))
		b.WriteString("\n\n")
	}

	if _, err := io.WriteString(t.out, b.String()); err != nil {
		return errors.NewRenderFailedError(config.SinkTable, err)
	}
	return nil
}

// FormatRange prints whole ranges without a decimal part.
func FormatRange(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
