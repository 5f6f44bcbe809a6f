package audit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetRow struct {
	Sequence    int64  `parquet:"name=sequence, type=INT64"`
	ID          string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	OperationID string `parquet:"name=operation_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Operation   string `parquet:"name=operation, type=BYTE_ARRAY, convertedtype=UTF8"`
	Type        string `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Subject     string `parquet:"name=subject, type=BYTE_ARRAY, convertedtype=UTF8"`
	WindowID    string `parquet:"name=window_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Attributes  string `parquet:"name=attributes, type=BYTE_ARRAY, convertedtype=UTF8"`
	CommittedAt string `parquet:"name=committed_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ExportParquet writes every record matching filter to path and returns the
// number of rows written.
func (j *Journal) ExportParquet(ctx context.Context, path string, filter Filter) (int, error) {
	records, err := j.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("audit: create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("audit: parquet schema: %w", err)
	}
	pw.RowGroupSize = 16 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		row := &parquetRow{
			Sequence:    int64(rec.Sequence),
			ID:          rec.ID.String(),
			OperationID: rec.OperationID.String(),
			Operation:   rec.Operation,
			Type:        rec.Type,
			Subject:     rec.Subject,
			WindowID:    rec.WindowID,
			Attributes:  rec.Attributes,
			CommittedAt: rec.CommittedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			file.Close()
			return 0, fmt.Errorf("audit: write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return 0, fmt.Errorf("audit: finalise parquet: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("audit: close parquet: %w", err)
	}
	return len(records), nil
}
