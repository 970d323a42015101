package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/vmihailenco/msgpack/v5"

	"ecgen/internal/assign"
	"ecgen/internal/codec"
)

// LayoutDoc mirrors codec.Layout in serialized tables.
type LayoutDoc struct {
	ModuleBits    uint8 `json:"module_bits" msgpack:"module_bits"`
	SubmoduleBits uint8 `json:"submodule_bits" msgpack:"submodule_bits"`
	ErrorBits     uint8 `json:"error_bits" msgpack:"error_bits"`
	TotalBits     uint8 `json:"total_bits" msgpack:"total_bits"`
}

// RecordDoc is one serialized descriptor.
type RecordDoc struct {
	Module      string `json:"module" msgpack:"module"`
	Submodule   string `json:"submodule,omitempty" msgpack:"submodule,omitempty"`
	Name        string `json:"name" msgpack:"name"`
	Code        uint32 `json:"code" msgpack:"code"`
	Hex         string `json:"hex" msgpack:"hex"`
	ModuleID    int    `json:"module_id" msgpack:"module_id"`
	SubmoduleID int    `json:"submodule_id" msgpack:"submodule_id"`
	ErrorID     int    `json:"error_id" msgpack:"error_id"`
	Description string `json:"description" msgpack:"description"`
}

// TableDoc is the serialized descriptor table shared by the json and msgpack
// formats.
type TableDoc struct {
	Layout     LayoutDoc   `json:"layout" msgpack:"layout"`
	MaxNameLen int         `json:"max_name_len" msgpack:"max_name_len"`
	Errors     []RecordDoc `json:"errors" msgpack:"errors"`
}

// NewTableDoc converts a result into its serialized form.
func NewTableDoc(res *assign.Result) TableDoc {
	doc := TableDoc{
		Layout: LayoutDoc{
			ModuleBits:    res.Layout.ModuleBits,
			SubmoduleBits: res.Layout.SubmoduleBits,
			ErrorBits:     res.Layout.ErrorBits,
			TotalBits:     res.Layout.TotalBits,
		},
		MaxNameLen: res.MaxNameLen,
		Errors:     make([]RecordDoc, 0, len(res.Records)),
	}
	for _, r := range res.Records {
		doc.Errors = append(doc.Errors, RecordDoc{
			Module:      r.Module,
			Submodule:   r.Submodule,
			Name:        r.Name,
			Code:        r.Code.Value(),
			Hex:         r.Code.Hex(),
			ModuleID:    r.ModuleID,
			SubmoduleID: r.SubmoduleID,
			ErrorID:     r.ErrorID,
			Description: r.Description,
		})
	}
	return doc
}

// Result rebuilds an assign.Result from a decoded table, e.g. for lookups
// against a previously generated artifact.
func (d TableDoc) Result() *assign.Result {
	res := &assign.Result{
		Layout: codec.Layout{
			ModuleBits:    d.Layout.ModuleBits,
			SubmoduleBits: d.Layout.SubmoduleBits,
			ErrorBits:     d.Layout.ErrorBits,
			TotalBits:     d.Layout.TotalBits,
		},
		MaxNameLen: d.MaxNameLen,
		Records:    make([]assign.Record, 0, len(d.Errors)),
	}
	for _, e := range d.Errors {
		res.Records = append(res.Records, assign.Record{
			Module:      e.Module,
			Submodule:   e.Submodule,
			Name:        e.Name,
			Code:        codec.Code(e.Code),
			Description: e.Description,
			ModuleID:    e.ModuleID,
			SubmoduleID: e.SubmoduleID,
			ErrorID:     e.ErrorID,
		})
	}
	return res
}

type jsonTable struct{}

func (jsonTable) Render(w io.Writer, res *assign.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewTableDoc(res))
}

type msgpackTable struct{}

func (msgpackTable) Render(w io.Writer, res *assign.Result) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(NewTableDoc(res))
}

// DecodeMsgpack reads a table written by the msgpack format.
func DecodeMsgpack(r io.Reader) (TableDoc, error) {
	var doc TableDoc
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return TableDoc{}, fmt.Errorf("failed to decode msgpack table: %w", err)
	}
	return doc, nil
}

// termTable is a human listing for terminals.
type termTable struct {
	color bool
}

func (t termTable) Render(w io.Writer, res *assign.Result) error {
	headers := [...]string{"CODE", "SCOPE", "NAME", "DESCRIPTION"}
	rows := make([][4]string, 0, len(res.Records))
	widths := [4]int{}
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range res.Records {
		row := [4]string{r.Code.Hex(), r.Scope(), r.Name, oneLine(r.Description)}
		for i, cell := range row[:3] {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
		rows = append(rows, row)
	}

	header := formatRow(headers, widths)
	if t.color {
		header = lipgloss.NewStyle().Bold(true).Render(header)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	codeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	for _, row := range rows {
		line := formatRow(row, widths)
		if t.color {
			code := runewidth.FillRight(row[0], widths[0])
			line = codeStyle.Render(code) + line[len(code):]
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d errors\n", len(rows))
	return err
}

func formatRow(cells [4]string, widths [4]int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
