package fetcher

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

type testSheet struct {
	name string
	rows [][]string
}

func createTestXLSX(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestDecodeXLSX_FirstSheet(t *testing.T) {
	data := createTestXLSX(t, testSheet{"Shops", [][]string{
		{"Shop Name", "Latitude", "Longitude", "Rating"},
		{"Crystal Store", "16.8661", "96.1951", "5"},
	}})

	rows, err := DecodeXLSX(data, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Shop Name", "Latitude", "Longitude", "Rating"}, rows[0])
	assert.Equal(t, []string{"Crystal Store", "16.8661", "96.1951", "5"}, rows[1])
}

func TestDecodeXLSX_BySheetName(t *testing.T) {
	data := createTestXLSX(t,
		testSheet{"Readme", [][]string{{"ignore me"}}},
		testSheet{"Shops", [][]string{{"name"}, {"Ruby Mart"}}},
	)

	rows, err := DecodeXLSX(data, XLSXOptions{SheetName: "Shops"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Ruby Mart"}, rows[1])
}

func TestDecodeXLSX_MissingSheet(t *testing.T) {
	data := createTestXLSX(t, testSheet{"Shops", [][]string{{"name"}}})

	_, err := DecodeXLSX(data, XLSXOptions{SheetName: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = DecodeXLSX(data, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestDecodeXLSX_NotAWorkbook(t *testing.T) {
	_, err := DecodeXLSX([]byte("name,lat\n"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open workbook")
}
