package core

// csv.go reads and writes the item collection as CSV.
//
// Export writes one header row with ExportColumns followed by one row per
// item. Import accepts any header order; columns are matched by name,
// case-insensitively. Only the columns in importColumns are read: the
// Item ID, Supplier and Is Low Stock columns of an export are ignored, so
// an export can be fed straight back to the importer.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	ColItemID            = "Item ID"
	ColName              = "Name"
	ColQuantity          = "Quantity"
	ColSupplier          = "Supplier"
	ColSupplierID        = "Supplier ID"
	ColPrice             = "Price"
	ColDescription       = "Description"
	ColLowStockThreshold = "Low Stock Threshold"
	ColIsLowStock        = "Is Low Stock"
)

// ExportColumns is the header of an exported file, in order.
var ExportColumns = []string{
	ColItemID,
	ColName,
	ColQuantity,
	ColSupplier,
	ColPrice,
	ColDescription,
	ColLowStockThreshold,
	ColIsLowStock,
}

// flushEvery bounds how many rows sit in the csv.Writer buffer.
const flushEvery = 1000

// DecodedBatch is the result of reading an import file.
type DecodedBatch struct {
	Descriptors []ItemPatch
	RowErrors   []RowError
	BytesRead   int64
}

// DecodeItems reads an import file into name-keyed descriptors. Rows with a
// blank Name are skipped and reported in RowErrors. Any structural problem
// (unparseable CSV, no header, no Name column) fails the whole file with an
// error wrapping ErrInvalidCSV, before anything is returned.
func DecodeItems(r io.Reader) (*DecodedBatch, error) {
	src := WrapForStreaming(r)
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	idx := MakeHeaderIndex(header)
	if !idx.Has(ColName) {
		return nil, fmt.Errorf("%w: missing required column %q", ErrInvalidCSV, ColName)
	}

	batch := &DecodedBatch{Descriptors: []ItemPatch{}}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		line, _ := reader.FieldPos(0)

		if isBlankRow(row) {
			continue
		}

		p := descriptorFromRow(idx, row)
		if p.Name == nil || strings.TrimSpace(*p.Name) == "" {
			batch.RowErrors = append(batch.RowErrors, RowError{Line: line, Reason: "missing name"})
			continue
		}
		batch.Descriptors = append(batch.Descriptors, p)
	}

	batch.BytesRead = src.BytesRead
	return batch, nil
}

// descriptorFromRow coerces each known column; cells that are empty or do
// not parse are left out of the descriptor. Name and Description are kept
// as read so an exported name matches its record on re-import.
func descriptorFromRow(idx HeaderIndex, row []string) ItemPatch {
	return ItemPatch{
		Name:              ParseText(idx.Raw(row, ColName)),
		Quantity:          ParseCount(idx.Get(row, ColQuantity)),
		SupplierID:        ParseUUID(idx.Raw(row, ColSupplierID)),
		Price:             ParsePrice(idx.Get(row, ColPrice)),
		Description:       ParseText(idx.Raw(row, ColDescription)),
		LowStockThreshold: ParseCount(idx.Get(row, ColLowStockThreshold)),
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// EncodeItems writes the export file. The Supplier column carries the
// resolved supplier name, or is empty when the reference dangles.
func EncodeItems(w io.Writer, items []ItemView) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ExportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(ExportColumns))
	for i, it := range items {
		supplier := ""
		if it.Supplier != nil {
			supplier = it.Supplier.Name
		}

		record[0] = it.ID
		record[1] = it.Name
		record[2] = strconv.Itoa(it.Quantity)
		record[3] = supplier
		record[4] = FormatPrice(it.Price)
		record[5] = it.Description
		record[6] = strconv.Itoa(it.LowStockThreshold)
		record[7] = strconv.FormatBool(it.IsLowStock)

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if (i+1)%flushEvery == 0 {
			writer.Flush()
			if err := writer.Error(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
