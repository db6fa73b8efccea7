package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/types"
	"github.com/ginjaninja78/salesloader/internal/validation"
	"github.com/ginjaninja78/salesloader/pkg/utils"
)

func writeSalesBook(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Year 2010-2011"))
	require.NoError(t, f.SetSheetRow("Year 2010-2011", "A1", &[]any{"Invoice", "StockCode", "Description", "Quantity", "InvoiceDate", "Price", "Customer ID", "Country"}))
	for i := 2; i <= 6; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Year 2010-2011", cell, &[]any{"5370" + string(rune('0'+i)), "22423", "REGENCY CAKESTAND 3 TIER", 2, "6/12/2010 9:15", 12.75, 15311, "United Kingdom"}))
	}
	_, err := f.NewSheet("Pivot")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Pivot", "A1", &[]any{"Country", "Total"}))

	path := filepath.Join(dir, "online_retail_II.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func sqliteConfig(t *testing.T, dir string) *config.Config {
	t.Helper()

	c := config.Default()
	c.Database.Driver = "sqlite"
	c.Database.DSN = filepath.Join(dir, "sales.db")
	c.Load.BatchSize = 2
	require.NoError(t, c.Validate())
	return c
}

func TestRunLoad_SQLite(t *testing.T) {
	dir := t.TempDir()
	c := sqliteConfig(t, dir)
	c.Source.File = writeSalesBook(t, dir)
	c.Load.Verify = true
	c.Load.Summary = filepath.Join(dir, "summary.yaml")

	var out bytes.Buffer
	require.NoError(t, runLoad(context.Background(), c, &out))

	assert.Contains(t, out.String(), "Loaded 5 rows into online_retail_raw in 3 batches")
	assert.Contains(t, out.String(), "Pivot")

	data, err := os.ReadFile(c.Load.Summary)
	require.NoError(t, err)
	var summary utils.RunSummary
	require.NoError(t, yaml.Unmarshal(data, &summary))
	assert.Equal(t, int64(5), summary.Inserted)
	assert.Equal(t, 3, summary.Batches)
	require.NotNil(t, summary.Verified)
	assert.Equal(t, int64(5), *summary.Verified)
	assert.Equal(t, 1, summary.SkippedSheets())
	assert.Empty(t, summary.Error)
	assert.Equal(t, int64(5), summary.Quality.Records)

	// A second run recreates the table, so verification still matches.
	out.Reset()
	require.NoError(t, runLoad(context.Background(), c, &out))

	// Appending keeps the old rows and verifies the difference.
	c.Load.KeepTable = true
	out.Reset()
	require.NoError(t, runLoad(context.Background(), c, &out))
	require.NoError(t, yaml.Unmarshal(mustRead(t, c.Load.Summary), &summary))
	assert.Equal(t, int64(10), *summary.Verified)
}

func TestRunLoad_MissingFileBeforeDatabase(t *testing.T) {
	c := config.Default()
	c.Source.File = filepath.Join(t.TempDir(), "missing.xlsx")
	// Unreachable on purpose; the file check must fail first.
	c.Database.Host = "203.0.113.1"

	err := runLoad(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestRunLoad_UnknownDriver(t *testing.T) {
	dir := t.TempDir()
	c := sqliteConfig(t, dir)
	c.Source.File = writeSalesBook(t, dir)
	c.Database.Driver = "oracle"

	err := runLoad(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}

func TestRunInspect(t *testing.T) {
	dir := t.TempDir()
	c := config.Default()
	c.Source.File = writeSalesBook(t, dir)

	var out bytes.Buffer
	require.NoError(t, runInspect(context.Background(), c, &out))

	var report inspectReport
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
	reports := report.Sheets
	require.Len(t, reports, 2)
	assert.Equal(t, types.SheetLoaded, reports[0].Status)
	assert.Equal(t, 5, reports[0].Rows)
	assert.Equal(t, 5, reports[0].Columns["unit_price"])
	assert.Equal(t, types.SheetSkipped, reports[1].Status)

	assert.Equal(t, int64(5), report.Quality.Records)
	assert.Zero(t, report.Quality.Count(validation.ZeroQuantity))
	assert.Zero(t, report.Quality.Count(validation.MissingInvoiceDate))
}

func TestShowConfig_RedactsPassword(t *testing.T) {
	c := config.Default()
	c.Database.Password = "hunter2"

	var out bytes.Buffer
	require.NoError(t, showConfig(c, &out))
	assert.NotContains(t, out.String(), "hunter2")
	assert.Contains(t, out.String(), "table: online_retail_raw")
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
