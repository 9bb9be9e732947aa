package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/Vovarama1992/pdf_ziper/internal/convert"
	"github.com/Vovarama1992/pdf_ziper/internal/pdf"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPages() []pdf.Page {
	return []pdf.Page{
		{Number: 1, Bytes: []byte("jpeg-page-1")},
		{Number: 2, Bytes: []byte("jpeg-page-2")},
	}
}

func entryNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func readEntry(t *testing.T, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return b
	}
	t.Fatalf("entry %s not found", name)
	return nil
}

func TestAssembleSingleDocumentFlat(t *testing.T) {
	data, rep, err := Assemble([]convert.Result{
		{ID: "doc_1", Pages: twoPages()},
	}, NamingFlat)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Total)
	assert.Equal(t, 1, rep.Succeeded)
	assert.Equal(t, 2, rep.Pages)

	// один документ — простые имена и никакого summary
	assert.Equal(t, []string{"page_1.jpg", "page_2.jpg"}, entryNames(t, data))
	assert.Equal(t, []byte("jpeg-page-1"), readEntry(t, data, "page_1.jpg"))
}

func TestAssembleMultipleFlatSortedByID(t *testing.T) {
	// порядок результатов — порядок завершения, раскладка всё равно по id
	data, rep, err := Assemble([]convert.Result{
		{ID: "b", Pages: twoPages()},
		{ID: "a", Pages: twoPages()},
	}, NamingFlat)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Succeeded)

	assert.Equal(t, []string{
		"a_page_1.jpg", "a_page_2.jpg",
		"b_page_1.jpg", "b_page_2.jpg",
		"summary.json",
	}, entryNames(t, data))
}

func TestAssembleGrouped(t *testing.T) {
	data, _, err := Assemble([]convert.Result{
		{ID: "b", Pages: twoPages()},
		{ID: "a", Pages: twoPages()},
	}, NamingGrouped)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a/page_1.jpg", "a/page_2.jpg",
		"b/page_1.jpg", "b/page_2.jpg",
		"summary.json",
	}, entryNames(t, data))
}

func TestAssemblePartialFailure(t *testing.T) {
	data, rep, err := Assemble([]convert.Result{
		{ID: "doc_1", Pages: twoPages()},
		{ID: "doc_2", Err: errors.New("pdftoppm: exit status 1")},
		{ID: "doc_3", Err: errors.New("fetch timeout")},
	}, NamingFlat)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.Succeeded)
	assert.Equal(t, 2, rep.Failed)

	// страницы только успешного документа, имена с id — документов было несколько
	names := entryNames(t, data)
	assert.Contains(t, names, "doc_1_page_1.jpg")
	assert.Contains(t, names, "summary.json")
	assert.NotContains(t, names, "page_1.jpg")

	var summary Report
	require.NoError(t, json.Unmarshal(readEntry(t, data, "summary.json"), &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Documents, 3)
	assert.Equal(t, "success", summary.Documents[0].Status)
	assert.Equal(t, "failure", summary.Documents[1].Status)
	assert.Contains(t, summary.Documents[1].Error, "pdftoppm")
}

func TestAssembleAllFailed(t *testing.T) {
	data, rep, err := Assemble([]convert.Result{
		{ID: "doc_1", Err: errors.New("boom")},
		{ID: "doc_2", Err: errors.New("bang")},
	}, NamingFlat)

	require.ErrorIs(t, err, ErrEmpty)
	assert.Nil(t, data)

	// отчёт заполнен даже при фатальном исходе
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 0, rep.Succeeded)
	assert.Equal(t, 2, rep.Failed)
	require.Len(t, rep.Documents, 2)
}
