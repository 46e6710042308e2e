// Package catalog loads the region catalog from two delimited text tables.
//
// The boxes table has the columns region_id,min_lat,max_lat,min_lon,max_lon.
// Repeated rows for the same region form a union of boxes. The notifications
// table has the columns region_id,title,body; each row appends one candidate
// to the region's notification pool. Regions keep the order in which they are
// first seen. A leading header row and lines starting with '#' are skipped.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

const (
	boxColumns          = 5
	notificationColumns = 3
)

type row struct {
	line   int
	fields []string
}

// LoadFiles reads both tables from disk.
func LoadFiles(boxesPath, notificationsPath string) ([]domain.Region, error) {
	boxes, err := os.Open(boxesPath)
	if err != nil {
		return nil, fmt.Errorf("open boxes table: %w", err)
	}
	defer func() { _ = boxes.Close() }()

	notes, err := os.Open(notificationsPath)
	if err != nil {
		return nil, fmt.Errorf("open notifications table: %w", err)
	}
	defer func() { _ = notes.Close() }()

	return Load(boxes, notes)
}

// Load builds and validates the catalog. Every malformed row is reported in a
// single *domain.CatalogValidationError.
func Load(boxes, notifications io.Reader) ([]domain.Region, error) {
	var problems []string
	var order []domain.RegionID
	byID := map[domain.RegionID]*domain.Region{}

	region := func(id domain.RegionID) *domain.Region {
		r, ok := byID[id]
		if !ok {
			r = &domain.Region{ID: id}
			byID[id] = r
			order = append(order, id)
		}
		return r
	}

	boxRows, badBoxes, err := readTable(boxes, "boxes", boxColumns)
	if err != nil {
		return nil, err
	}
	problems = append(problems, badBoxes...)

	for _, rw := range boxRows {
		box, err := parseBox(rw.fields[1:])
		if err != nil {
			problems = append(problems, fmt.Sprintf("boxes line %d: %v", rw.line, err))
			continue
		}
		r := region(domain.RegionID(rw.fields[0]))
		r.Boxes = append(r.Boxes, box)
	}

	noteRows, badNotes, err := readTable(notifications, "notifications", notificationColumns)
	if err != nil {
		return nil, err
	}
	problems = append(problems, badNotes...)

	// a region named only here ends up with no boxes and fails validation
	for _, rw := range noteRows {
		r := region(domain.RegionID(rw.fields[0]))
		r.Pool = append(r.Pool, domain.NotificationContent{Title: rw.fields[1], Body: rw.fields[2]})
	}

	regions := make([]domain.Region, 0, len(order))
	for _, id := range order {
		regions = append(regions, *byID[id])
	}

	if err := domain.ValidateCatalog(regions); err != nil {
		var cve *domain.CatalogValidationError
		if !errors.As(err, &cve) {
			return nil, err
		}
		problems = append(problems, cve.Problems...)
	}

	if len(problems) > 0 {
		return nil, &domain.CatalogValidationError{Problems: problems}
	}
	return regions, nil
}

func readTable(r io.Reader, name string, columns int) ([]row, []string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []row
	var problems []string
	first := true

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, nil, &domain.CatalogValidationError{
					Problems: []string{fmt.Sprintf("%s line %d: %v", name, pe.Line, pe.Err)},
				}
			}
			return nil, nil, fmt.Errorf("read %s table: %w", name, err)
		}

		line, _ := cr.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}

		if first {
			first = false
			if strings.EqualFold(rec[0], "region_id") {
				continue
			}
		}

		if len(rec) != columns {
			problems = append(problems, fmt.Sprintf("%s line %d: expected %d columns, got %d", name, line, columns, len(rec)))
			continue
		}
		rows = append(rows, row{line: line, fields: rec})
	}

	return rows, problems, nil
}

func parseBox(fields []string) (domain.BoundingBox, error) {
	var vals [4]float64
	names := [4]string{"min_lat", "max_lat", "min_lon", "max_lon"}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("%s: invalid number %q", names[i], f)
		}
		vals[i] = v
	}
	return domain.BoundingBox{MinLat: vals[0], MaxLat: vals[1], MinLon: vals[2], MaxLon: vals[3]}, nil
}
