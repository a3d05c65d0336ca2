package flatfile

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inventario/internal/domain"

	"github.com/shopspring/decimal"
)

// Format names one of the supported export formats
type Format string

const (
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Formats lists every supported format
var Formats = []Format{FormatTXT, FormatJSON, FormatCSV}

var (
	ErrUnknownFormat = errors.New("unknown file format")
	ErrUnencodable   = errors.New("product name cannot be written in the line format")
)

// csvHeader is also the key set of the json format
var csvHeader = []string{"id", "nombre", "cantidad", "precio"}

// Filename is the fixed file name for the format inside the data directory
func (f Format) Filename() string {
	return "productos." + string(f)
}

// Record is one product as written to a flat file
type Record struct {
	ID       int64           `json:"id"`
	Name     string          `json:"nombre"`
	Quantity int             `json:"cantidad"`
	Price    decimal.Decimal `json:"precio"`
}

// FromProducts snapshots the catalog into records
func FromProducts(products []*domain.Product) []Record {
	records := make([]Record, 0, len(products))
	for _, p := range products {
		records = append(records, Record{ID: p.ID, Name: p.Name, Quantity: p.Quantity, Price: p.Price})
	}
	return records
}

// Encode writes records in the given format
func Encode(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatTXT:
		return encodeTXT(w, records)
	case FormatJSON:
		return encodeJSON(w, records)
	case FormatCSV:
		return encodeCSV(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode reads records in the given format
func Decode(r io.Reader, format Format) ([]Record, error) {
	switch format {
	case FormatTXT:
		return decodeTXT(r)
	case FormatJSON:
		return decodeJSON(r)
	case FormatCSV:
		return decodeCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func encodeTXT(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if strings.ContainsAny(rec.Name, ",\r\n") {
			return fmt.Errorf("%w: %q", ErrUnencodable, rec.Name)
		}
		if _, err := fmt.Fprintf(bw, "%d,%s,%d,%s\n", rec.ID, rec.Name, rec.Quantity, rec.Price.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// decodeTXT keeps only lines with exactly four fields
func decodeTXT(r io.Reader) ([]Record, error) {
	records := []Record{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parts := strings.Split(strings.TrimSpace(scanner.Text()), ",")
		if len(parts) != len(csvHeader) {
			continue
		}
		rec, err := parseFields(parts[0], parts[1], parts[2], parts[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type jsonRecord struct {
	ID       int64       `json:"id"`
	Name     string      `json:"nombre"`
	Quantity int         `json:"cantidad"`
	Price    json.Number `json:"precio"`
}

// encodeJSON writes a pretty-printed array with prices as JSON numbers
func encodeJSON(w io.Writer, records []Record) error {
	out := make([]jsonRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, jsonRecord{
			ID:       rec.ID,
			Name:     rec.Name,
			Quantity: rec.Quantity,
			Price:    json.Number(rec.Price.String()),
		})
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func decodeJSON(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var in []jsonRecord
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("invalid json document: %w", err)
	}

	records := make([]Record, 0, len(in))
	for i, rec := range in {
		price, err := decimal.NewFromString(rec.Price.String())
		if err != nil {
			return nil, fmt.Errorf("item %d: invalid price %q", i, rec.Price)
		}
		records = append(records, Record{ID: rec.ID, Name: rec.Name, Quantity: rec.Quantity, Price: price})
	}
	return records, nil
}

func encodeCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Name,
			strconv.Itoa(rec.Quantity),
			rec.Price.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// decodeCSV maps columns by header name so column order does not matter
func decodeCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range csvHeader {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", name)
		}
	}

	records := []Record{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseFields(row[index["id"]], row[index["nombre"]], row[index["cantidad"]], row[index["precio"]])
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseFields(id, name, quantity, price string) (Record, error) {
	parsedID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid id %q", id)
	}
	parsedQty, err := strconv.Atoi(strings.TrimSpace(quantity))
	if err != nil {
		return Record{}, fmt.Errorf("invalid quantity %q", quantity)
	}
	parsedPrice, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return Record{}, fmt.Errorf("invalid price %q", price)
	}
	return Record{ID: parsedID, Name: name, Quantity: parsedQty, Price: parsedPrice}, nil
}
