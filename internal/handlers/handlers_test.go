package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/niklasemond/diploma-generator-2/internal/batch"
	"github.com/niklasemond/diploma-generator-2/internal/pdf"
	"github.com/niklasemond/diploma-generator-2/internal/pdftest"
	"github.com/niklasemond/diploma-generator-2/internal/session"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pdfapi.DisableConfigDir()
	os.Exit(m.Run())
}

type upload struct {
	name, filename string
	content        []byte
}

func newHandler(t *testing.T) *APIHandler {
	t.Helper()
	processor := batch.NewProcessor(pdf.NewStamper(pdf.NewFontResolver(nil, ""), 1))
	return NewAPIHandler(session.NewSessionManager(), processor, Options{UploadDir: t.TempDir()})
}

func multipartRequest(t *testing.T, target, placeholder string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.name, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	if placeholder != "" {
		require.NoError(t, writer.WriteField("placeholder", placeholder))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func certificateUpload(t *testing.T) upload {
	return upload{"template", "certificate.pdf", pdftest.Certificate(t, "{{NAME}}")}
}

func namesUpload(content string) upload {
	return upload{"names", "names.txt", []byte(content)}
}

func assertUploadDirEmpty(t *testing.T, h *APIHandler) {
	t.Helper()
	entries, err := os.ReadDir(h.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "request files are removed")
}

func TestGenerateReturnsArchive(t *testing.T) {
	h := newHandler(t)
	req := multipartRequest(t, "/", "{{NAME}}", certificateUpload(t), namesUpload("Ada Lovelace\nGrace Hopper\n"))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="diplomas.zip"`)

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	var entries []string
	for _, f := range zr.File {
		entries = append(entries, f.Name)
	}
	assert.Equal(t, []string{"Ada Lovelace.pdf", "Grace Hopper.pdf"}, entries)
	assertUploadDirEmpty(t, h)
}

func TestGenerateFlashesErrors(t *testing.T) {
	tests := []struct {
		name        string
		placeholder string
		files       func(t *testing.T) []upload
		want        string
	}{
		{
			name:        "missing names file",
			placeholder: "{{NAME}}",
			files:       func(t *testing.T) []upload { return []upload{certificateUpload(t)} },
			want:        "Both template and names files are required",
		},
		{
			name: "missing placeholder",
			files: func(t *testing.T) []upload {
				return []upload{certificateUpload(t), namesUpload("Ada\n")}
			},
			want: "Placeholder text is required",
		},
		{
			name:        "wrong names extension",
			placeholder: "{{NAME}}",
			files: func(t *testing.T) []upload {
				return []upload{certificateUpload(t), {"names", "names.csv", []byte("Ada\n")}}
			},
			want: "Invalid file type",
		},
		{
			name:        "template is not a pdf",
			placeholder: "{{NAME}}",
			files: func(t *testing.T) []upload {
				return []upload{{"template", "certificate.pdf", []byte("hello")}, namesUpload("Ada\n")}
			},
			want: "Invalid file type",
		},
		{
			name:        "no names",
			placeholder: "{{NAME}}",
			files: func(t *testing.T) []upload {
				return []upload{certificateUpload(t), namesUpload("\n  \n")}
			},
			want: "The names file does not contain any names",
		},
		{
			name:        "placeholder not in template",
			placeholder: "{{STUDENT}}",
			files: func(t *testing.T) []upload {
				return []upload{certificateUpload(t), namesUpload("Ada\n")}
			},
			want: "Placeholder text '{{STUDENT}}' not found in the template",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(t)
			rec := httptest.NewRecorder()
			h.Generate(rec, multipartRequest(t, "/", tc.placeholder, tc.files(t)...))

			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			next := httptest.NewRequest(http.MethodGet, "/", nil)
			next.AddCookie(cookies[0])
			assert.Equal(t, []string{tc.want}, h.SessionManager.PopMessages(next))
			assertUploadDirEmpty(t, h)
		})
	}
}

func TestIndexShowsFlashedMessages(t *testing.T) {
	h := newHandler(t)
	rec := httptest.NewRecorder()
	h.SessionManager.Flash(rec, httptest.NewRequest(http.MethodPost, "/", nil), "Invalid file type")
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.Index(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Invalid file type")

	rec = httptest.NewRecorder()
	h.Index(rec, req)
	assert.NotContains(t, rec.Body.String(), "Invalid file type")
}

func TestCreateBatchErrors(t *testing.T) {
	tests := []struct {
		name        string
		placeholder string
		files       func(t *testing.T) []upload
		status      int
		want        string
	}{
		{
			name:        "missing template",
			placeholder: "{{NAME}}",
			files:       func(t *testing.T) []upload { return []upload{namesUpload("Ada\n")} },
			status:      http.StatusBadRequest,
			want:        "Both template and names files are required",
		},
		{
			name:        "wrong template extension",
			placeholder: "{{NAME}}",
			files: func(t *testing.T) []upload {
				return []upload{{"template", "certificate.docx", []byte("x")}, namesUpload("Ada\n")}
			},
			status: http.StatusBadRequest,
			want:   "Invalid file type",
		},
		{
			name:        "placeholder not found",
			placeholder: "{{STUDENT}}",
			files: func(t *testing.T) []upload {
				return []upload{certificateUpload(t), namesUpload("Ada\n")}
			},
			status: http.StatusUnprocessableEntity,
			want:   "Placeholder text '{{STUDENT}}' not found in the template",
		},
		{
			name:        "broken template",
			placeholder: "{{NAME}}",
			files: func(t *testing.T) []upload {
				return []upload{{"template", "certificate.pdf", []byte("%PDF-1.4\ngarbage")}, namesUpload("Ada\n")}
			},
			status: http.StatusInternalServerError,
			want:   "Error processing files",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(t)
			rec := httptest.NewRecorder()
			h.CreateBatch(rec, multipartRequest(t, "/api/batches", tc.placeholder, tc.files(t)...))

			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.want, body["error"])
			assertUploadDirEmpty(t, h)
		})
	}
}

func TestCreateBatchTooLarge(t *testing.T) {
	h := newHandler(t)
	h.MaxUploadBytes = 1024
	big := upload{"template", "certificate.pdf", bytes.Repeat([]byte("x"), 64<<10)}

	rec := httptest.NewRecorder()
	h.CreateBatch(rec, multipartRequest(t, "/api/batches", "{{NAME}}", big, namesUpload("Ada\n")))

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"File too large"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUserMessageNamesFailingEntry(t *testing.T) {
	err := &batch.NameError{Index: 2, Name: "Grace Hopper", Err: batch.ErrProcessing}
	assert.Equal(t, `Error processing files: could not generate the document for "Grace Hopper"`, userMessage(err, "{{NAME}}"))
	assert.Equal(t, http.StatusInternalServerError, statusFor(err))
}

func TestCreateBatchLatin2NameWithoutUnicodeFont(t *testing.T) {
	h := newHandler(t)
	req := multipartRequest(t, "/api/batches", "{{NAME}}", certificateUpload(t), namesUpload("Ada Lovelace\nErdős Pál\n"))
	rec := httptest.NewRecorder()

	h.CreateBatch(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body["error"], `No installed font can draw the name "Erdős Pál"`)
	assertUploadDirEmpty(t, h)
}
