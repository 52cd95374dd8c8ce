// Package archive exports archived games as a Parquet table for offline
// analysis.
package archive

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/hailam/chessrules/internal/storage"
)

// Row is one game in the exported table.
type Row struct {
	GameID    int64  `parquet:"name=game_id, type=INT64"`
	FEN       string `parquet:"name=fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinalFEN  string `parquet:"name=final_fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	White     string `parquet:"name=white, type=BYTE_ARRAY, convertedtype=UTF8"`
	Black     string `parquet:"name=black, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result    string `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	Method    string `parquet:"name=method, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlyCount  int32  `parquet:"name=ply_count, type=INT32"`
	Moves     string `parquet:"name=moves, type=BYTE_ARRAY, convertedtype=UTF8"`
	SAN       string `parquet:"name=san, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedMs int64  `parquet:"name=created_ms, type=INT64"`
}

// RowFromRecord flattens a record. Move lists are space separated.
func RowFromRecord(rec *storage.GameRecord) Row {
	return Row{
		GameID:    int64(rec.ID),
		FEN:       rec.FEN,
		FinalFEN:  rec.FinalFEN,
		White:     rec.White,
		Black:     rec.Black,
		Result:    rec.Result,
		Method:    rec.Method,
		PlyCount:  int32(len(rec.Moves)),
		Moves:     strings.Join(rec.Moves, " "),
		SAN:       strings.Join(rec.SAN, " "),
		CreatedMs: rec.Created.UnixMilli(),
	}
}

// WriteParquet writes the records to path with snappy compression.
func WriteParquet(path string, recs []*storage.GameRecord, parallel int64) error {
	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(Row), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range recs {
		if err := parquetWriter.Write(RowFromRecord(rec)); err != nil {
			return fmt.Errorf("write game %d: %w", rec.ID, err)
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadParquet loads every row of a file written by WriteParquet.
func ReadParquet(path string, parallel int64) ([]Row, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(Row), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	rows := make([]Row, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		if remain := num - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]Row, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}

// Export writes every game in the store to path and returns the count.
func Export(s *storage.Store, path string) (int, error) {
	recs, err := s.Games()
	if err != nil {
		return 0, err
	}
	if err := WriteParquet(path, recs, 4); err != nil {
		return 0, err
	}
	return len(recs), nil
}
