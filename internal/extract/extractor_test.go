package extract

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF")

func wrap60(s string) string {
	var b strings.Builder
	for len(s) > 60 {
		b.WriteString(s[:60])
		b.WriteString("\n")
		s = s[60:]
	}
	b.WriteString(s)
	return b.String()
}

func multipartBlob(bodies ...string) []byte {
	var b strings.Builder
	for _, body := range bodies {
		b.WriteString("--WebKitFormBoundary7MA4YWxkTrZu0gW\n")
		b.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"doc.pdf\"\n")
		b.WriteString("Content-Type: application/pdf\n")
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	b.WriteString("--WebKitFormBoundary7MA4YWxkTrZu0gW--\n")
	return []byte(b.String())
}

func TestExtractSingleBase64Section(t *testing.T) {
	blob := multipartBlob(wrap60(base64.StdEncoding.EncodeToString(samplePDF)))

	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, samplePDF, docs[0])
}

func TestExtractOuterBase64RoundTrip(t *testing.T) {
	inner := multipartBlob(wrap60(base64.StdEncoding.EncodeToString(samplePDF)))
	outer := []byte(base64.StdEncoding.EncodeToString(inner))

	docs, err := Extract(DecodeOuter(outer), Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, samplePDF, docs[0])
}

func TestExtractTwoSections(t *testing.T) {
	second := []byte("%PDF-1.7\nsecond document\n%%EOF")
	blob := multipartBlob(
		wrap60(base64.StdEncoding.EncodeToString(samplePDF)),
		wrap60(base64.StdEncoding.EncodeToString(second)),
	)

	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, samplePDF, docs[0])
	assert.Equal(t, second, docs[1])
}

func TestExtractRawSectionBody(t *testing.T) {
	// тело секции — сырой PDF, никакого base64
	blob := multipartBlob(string(samplePDF))

	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, samplePDF, docs[0])
}

func TestExtractCRLFMultipart(t *testing.T) {
	body := wrap60(base64.StdEncoding.EncodeToString(samplePDF))
	crlf := strings.ReplaceAll(string(multipartBlob(body)), "\n", "\r\n")

	docs, err := Extract([]byte(crlf), Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, samplePDF, docs[0])
}

func TestExtractFilenameMarkerOnly(t *testing.T) {
	blob := []byte("" +
		"--boundary-aaaa-bbbb\n" +
		"Content-Disposition: form-data; filename=\"scan.PDF\"\n" +
		"\n" +
		base64.StdEncoding.EncodeToString(samplePDF) + "\n" +
		"--boundary-aaaa-bbbb--\n")

	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, samplePDF, docs[0])
}

func TestBinaryScanFallback(t *testing.T) {
	blob := []byte("no markers here at all %PDF-1.4 first doc %%EOF noise between %PDF-1.5 second doc %%EOF tail")

	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.True(t, strings.HasPrefix(string(d), "%PDF"))
		assert.True(t, strings.HasSuffix(string(d), "%%EOF"))
	}
}

func TestBinaryScanNoEOFMarker(t *testing.T) {
	blob := []byte("junk %PDF-1.4 first no eof %PDF-1.5 second also no eof")

	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "%PDF-1.4 first no eof ", string(docs[0]))
	assert.Equal(t, "%PDF-1.5 second also no eof", string(docs[1]))
}

func TestExtractNothingRecoverable(t *testing.T) {
	blob := []byte("absolutely nothing pdf-like in here")

	docs, err := Extract(blob, Options{})
	assert.Nil(t, docs)

	var extErr *Error
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, len(blob), extErr.BlobLen)
}

func TestGarbledSectionSkipped(t *testing.T) {
	// первая секция битая, вторая валидная — битую молча пропускаем
	blob := multipartBlob(
		"this is neither base64 nor pdf",
		wrap60(base64.StdEncoding.EncodeToString(samplePDF)),
	)

	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, samplePDF, docs[0])
}

func TestBoundaryMinLenKnob(t *testing.T) {
	// сырой PDF с "--"-строкой внутри тела
	pdfWithDashes := []byte("%PDF-1.4\n--boundary123456\nstream data\n%%EOF")
	blob := multipartBlob(string(pdfWithDashes))

	// с дефолтным порогом строка считается границей и тело обрезается
	docs, err := Extract(blob, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "%PDF-1.4", string(docs[0]))

	// с поднятым порогом строка остаётся частью тела
	docs, err = Extract(blob, Options{MinBoundaryLen: 30})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, pdfWithDashes, docs[0])
}

func TestDecodeOuter(t *testing.T) {
	encoded := []byte(base64.StdEncoding.EncodeToString(samplePDF))
	assert.Equal(t, samplePDF, DecodeOuter(encoded))

	// не base64 — возвращается как есть
	raw := []byte("%PDF-1.4 raw bytes")
	assert.Equal(t, raw, DecodeOuter(raw))
}
