package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var csvHeader = []string{"name", "category", "stock", "purchasePrice", "sellingPrice", "lowStockThreshold"}

// ParseCSV reads product rows from r. The first row must be a header and
// column order is free; header matching is case-insensitive. Every parsed
// row becomes an item, since services carry no stock worth importing.
func ParseCSV(r io.Reader) ([]ProductInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: csv header: %w", err)
	}
	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := idx["name"]; !ok {
		return nil, ValidationError{Field: "name", Reason: "missing csv column"}
	}

	field := func(row []string, col string) string {
		i, ok := idx[strings.ToLower(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var inputs []ProductInput
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: csv line %d: %w", line+1, err)
		}
		line++

		in := ProductInput{
			Name:     field(row, "name"),
			Kind:     string(KindItem),
			Category: field(row, "category"),
		}
		if in.Stock, err = parseInt(field(row, "stock")); err != nil {
			return nil, ValidationError{Field: "stock", Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		if in.PurchasePrice, err = parseFloat(field(row, "purchasePrice")); err != nil {
			return nil, ValidationError{Field: "purchasePrice", Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		if in.SellingPrice, err = parseFloat(field(row, "sellingPrice")); err != nil {
			return nil, ValidationError{Field: "sellingPrice", Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		if in.LowStockThreshold, err = parseInt(field(row, "lowStockThreshold")); err != nil {
			return nil, ValidationError{Field: "lowStockThreshold", Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// WriteCSV writes the catalog with the same header ParseCSV accepts.
func WriteCSV(w io.Writer, products []Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range products {
		row := []string{
			p.Name,
			p.Category,
			strconv.FormatInt(p.Stock, 10),
			formatFloat(p.PurchasePrice),
			formatFloat(p.SellingPrice),
			strconv.FormatInt(p.LowStockThreshold, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
