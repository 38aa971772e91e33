package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"
)

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// TableFormatter prints aligned text tables. Without Wide, columns tagged
// `table:"wide"` are hidden and long cells are clipped.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format prints a slice of structs one row per element and a single
// struct or map as FIELD/VALUE rows. Nested structs flatten into dotted
// column names. Other values print as JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data, f.Wide)
	if err != nil {
		return (&JSONFormatter{}).Format(w, data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(data any, wide bool) (*Table, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return &Table{}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceToTable(v, wide)
	case reflect.Map:
		return mapToTable(v, wide)
	case reflect.Struct:
		if leafType(v.Type()) {
			return nil, fmt.Errorf("unsupported type: %s", v.Type())
		}
		return structToTable(v, wide)
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

// column is one flattened struct field.
type column struct {
	name  string
	index []int
}

// columns lists the displayable fields of t, descending into nested
// structs that are not rendered as a single value.
func columns(t reflect.Type, prefix string, base []int, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("table")
		if tag == "-" || (strings.Contains(tag, "wide") && !wide) {
			continue
		}
		name := fieldName(field)
		if name == "" {
			continue
		}

		index := append(append([]int(nil), base...), i)
		ft := field.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && !leafType(ft) {
			cols = append(cols, columns(ft, prefix+name+".", index, wide)...)
			continue
		}
		cols = append(cols, column{name: prefix + name, index: index})
	}
	return cols
}

// fieldName returns the json name of a field, or "" when json skips it.
func fieldName(field reflect.StructField) string {
	if jsonTag := field.Tag.Get("json"); jsonTag != "" {
		name := strings.Split(jsonTag, ",")[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(field.Name)
}

// fieldByIndex walks index, returning an invalid Value when a nil pointer
// is crossed.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 {
			for v.Kind() == reflect.Ptr {
				if v.IsNil() {
					return reflect.Value{}
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v
}

func sliceToTable(v reflect.Value, wide bool) (*Table, error) {
	elemType := v.Type().Elem()
	for elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}

	if elemType.Kind() != reflect.Struct || leafType(elemType) {
		table := &Table{Headers: []string{"VALUE"}}
		for i := 0; i < v.Len(); i++ {
			table.AddRow(cell(v.Index(i), wide))
		}
		return table, nil
	}

	cols := columns(elemType, "", nil, wide)
	table := &Table{}
	for _, c := range cols {
		table.Headers = append(table.Headers, strings.ToUpper(c.name))
	}

	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		for elem.Kind() == reflect.Ptr && !elem.IsNil() {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			continue
		}
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = cell(fieldByIndex(elem, c.index), wide)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func mapToTable(v reflect.Value, wide bool) (*Table, error) {
	table := &Table{Headers: []string{"KEY", "VALUE"}}
	iter := v.MapRange()
	for iter.Next() {
		table.AddRow(cell(iter.Key(), true), cell(iter.Value(), wide))
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i][0] < table.Rows[j][0] })
	return table, nil
}

func structToTable(v reflect.Value, wide bool) (*Table, error) {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range columns(v.Type(), "", nil, wide) {
		table.AddRow(c.name, cell(fieldByIndex(v, c.index), wide))
	}
	return table, nil
}

// leafType reports whether values of t print as one cell.
func leafType(t reflect.Type) bool {
	return t == timeType ||
		t.Implements(stringerType) ||
		reflect.PointerTo(t).Implements(stringerType)
}

// maxCell bounds cells outside wide mode.
const maxCell = 48

var timeType = reflect.TypeOf(time.Time{})

// cell renders one value. Missing, nil, zero-time and empty values print as
// "-"; slices and maps print their size.
func cell(v reflect.Value, wide bool) string {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "-"
	}

	var s string
	switch {
	case v.Type() == timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		s = t.Format(time.DateTime)
	case v.Kind() != reflect.String && v.Type().Implements(stringerType):
		s = v.Interface().(fmt.Stringer).String()
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		s = fmt.Sprintf("[%d items]", v.Len())
	case v.Kind() == reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		s = fmt.Sprintf("{%d keys}", v.Len())
	default:
		s = fmt.Sprint(v.Interface())
	}
	if s == "" {
		return "-"
	}
	return clip(s, wide)
}

// clip shortens s to maxCell runes on one line unless wide is set.
func clip(s string, wide bool) string {
	if wide {
		return s
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxCell {
		return string(r[:maxCell-3]) + "..."
	}
	return s
}

// toSnakeCase turns a Go field name into a column name, keeping acronyms
// together: CAFile becomes ca_file.
func toSnakeCase(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && !unicode.IsUpper(r[i-1])
			acronymEnd := i > 0 && i+1 < len(r) && unicode.IsUpper(r[i-1]) && unicode.IsLower(r[i+1])
			if prevLower || acronymEnd {
				b.WriteByte('_')
			}
			c = unicode.ToLower(c)
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Table is a pre-built table that TableFormatter prints as is.
type Table struct {
	Headers []string
	Rows    [][]string
}

// SetHeaders replaces the header row.
func (t *Table) SetHeaders(headers ...string) { t.Headers = headers }

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) { t.Rows = append(t.Rows, cells) }

// Render writes the table with headers.
func (t *Table) Render(w io.Writer) error { return t.RenderWithOptions(w, false) }

// RenderWithOptions writes the table, columns separated by two spaces.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := t.Rows
	if !noHeaders && len(t.Headers) > 0 {
		rows = append([][]string{t.Headers}, rows...)
	}
	for _, row := range rows {
		if _, err := io.WriteString(tw, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
