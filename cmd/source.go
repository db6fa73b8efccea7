package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/csvparser"
	"github.com/ginjaninja78/salesloader/internal/loader"
	"github.com/ginjaninja78/salesloader/internal/types"
	"github.com/ginjaninja78/salesloader/internal/xlsxparser"
	"github.com/ginjaninja78/salesloader/pkg/utils"
)

// source is a record stream over an input file of either format.
type source interface {
	loader.RecordStream
	Sheets() []types.SheetReport
	Close() error
}

// openSource checks the input file and opens the matching reader.
func openSource(src config.SourceConfig, log *slog.Logger) (source, error) {
	if err := utils.CheckInputFile(src.File); err != nil {
		return nil, err
	}
	format, err := utils.DetectFormat(src.File)
	if err != nil {
		return nil, err
	}

	switch format {
	case utils.FormatCSV:
		r, err := csvparser.Open(src.File, src.CSV, log)
		if err != nil {
			return nil, err
		}
		return r, nil
	case utils.FormatXLSX:
		r, err := xlsxparser.Open(src.File, xlsxparser.Options{
			Sheets:        src.Sheets,
			SkipBlankRows: src.SkipBlankRows,
			Logger:        log,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("no reader for format %q", format)
	}
}
