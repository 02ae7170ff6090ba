package medicine

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 1000

type Service struct {
	DB *gorm.DB
}

// SearchFilter matches catalog rows on any combination of fields. Empty
// fields are ignored.
type SearchFilter struct {
	Seq   string
	Name  string
	Print string
	Shape string
	Color string
	Type  string
	Line  string
}

func (s *Service) Search(ctx context.Context, f SearchFilter) ([]Medicine, error) {
	q := s.DB.WithContext(ctx).Model(&Medicine{})
	if f.Seq != "" {
		q = q.Where("seq = ?", f.Seq)
	}
	if f.Name != "" {
		q = q.Where("name = ?", f.Name)
	}
	if f.Print != "" {
		q = q.Where("print = ?", f.Print)
	}
	if f.Shape != "" {
		q = q.Where("shape = ?", f.Shape)
	}
	if f.Color != "" {
		q = q.Where("color = ?", f.Color)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Line != "" {
		q = q.Where("line = ?", f.Line)
	}

	var out []Medicine
	if err := q.Order("seq").Limit(200).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ImportCSV seeds the catalog from a drug-info CSV. Rows are inserted in
// batches; rows whose seq already exists are skipped, so re-running the
// import on boot is safe. Returns the number of rows read.
func (s *Service) ImportCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.importFrom(ctx, f)
}

func (s *Service) importFrom(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"ITEM_SEQ", "ITEM_NAME"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("csv missing column %s", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	total := 0
	batch := make([]Medicine, 0, importBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "seq"}}, DoNothing: true}).
			Create(&batch).Error
		batch = batch[:0]
		return err
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read csv row: %w", err)
		}
		seq := field(rec, "ITEM_SEQ")
		if seq == "" {
			continue
		}
		batch = append(batch, Medicine{
			Seq:       seq,
			Name:      field(rec, "ITEM_NAME"),
			Print:     field(rec, "PRINT"),
			Shape:     field(rec, "DRUG_SHAPE"),
			Color:     field(rec, "COLOR"),
			Type:      field(rec, "TYPE"),
			Line:      field(rec, "LINE"),
			Tokenized: field(rec, "TOKENIZED"),
		})
		total++
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
