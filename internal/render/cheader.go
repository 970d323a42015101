package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"ecgen/internal/assign"
)

// cHeader emits #define constants followed by the EC_DEF_STRERROR_ARRAY
// descriptor table:
//
//	// net
//	#define E_NET_DOWN   (-0x0801)
//	...
//	#define EC_DEF_STRERROR_ARRAY \
//	static struct error_desc error_desc_array[] = { \
//	    /* net */\
//	    {E_NET_DOWN, "Network is down"}, \
//	}
type cHeader struct {
	opts Options
}

func (h cHeader) Render(w io.Writer, res *assign.Result) error {
	var (
		defines []string
		table   = []string{
			"#define EC_DEF_STRERROR_ARRAY \\",
			"static struct error_desc error_desc_array[] = { \\",
		}
		module, submodule string
		started           bool
	)
	width := res.MaxNameLen
	for _, rec := range res.Records {
		if !started || rec.Module != module {
			if started {
				defines = append(defines, "")
			}
			defines = append(defines, "// "+rec.Module)
			table = append(table, fmt.Sprintf("    /* %s */\\", rec.Module))
			submodule = ""
		}
		if rec.InSubmodule() && rec.Submodule != submodule {
			scope := rec.Module + "::" + rec.Submodule
			defines = append(defines, "", "// "+scope)
			table = append(table, fmt.Sprintf("    /* %s */\\", scope))
		}
		pad := width - utf8.RuneCountInString(rec.Name)
		defines = append(defines, fmt.Sprintf("#define %s%s (%s)", rec.Name, spaces(pad+2), rec.Code.Hex()))
		table = append(table, fmt.Sprintf("    {%s, %s\"%s\"}, \\", rec.Name, spaces(pad), cString(rec.Description)))
		module, submodule, started = rec.Module, rec.Submodule, true
	}
	table = append(table, "}")

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#ifndef %s\n#define %s\n\n", h.opts.Guard, h.opts.Guard)
	bw.WriteString("// Auto-generated file. Do not edit. Changes will be overwritten.\n\n")
	fmt.Fprintf(bw, "#include <%s>\n\n", h.opts.Include)
	for _, line := range defines {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	for _, line := range table {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "\n#endif // %s\n", h.opts.Guard)
	return bw.Flush()
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// cString escapes s for a C string literal. Text is NFC-normalised first so
// equal descriptions always produce equal bytes.
func cString(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\%03o`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
