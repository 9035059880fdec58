package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/niklasemond/diploma-generator-2/internal/pdf"
	"github.com/niklasemond/diploma-generator-2/internal/pdftest"
	"github.com/niklasemond/diploma-generator-2/internal/utils"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pdfapi.DisableConfigDir()
	os.Exit(m.Run())
}

func newProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(pdf.NewStamper(pdf.NewFontResolver([]string{t.TempDir()}, ""), 1))
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = body
	}
	return files
}

func TestRunProducesOneDocumentPerName(t *testing.T) {
	names := []string{"Ada Lovelace", "Grace Hopper", "Kovács Ödön"}
	job := Job{
		Template:    pdftest.Certificate(t, "{{NAME}}"),
		Placeholder: "{{NAME}}",
		Names:       names,
		WorkDir:     t.TempDir(),
	}

	var buf bytes.Buffer
	res, err := newProcessor(t).Run(context.Background(), job, &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace.pdf", "Grace Hopper.pdf", "Kovács Ödön.pdf"}, res.Entries)

	files := readArchive(t, buf.Bytes())
	require.Len(t, files, len(names))
	assert.Contains(t, pdftest.Streams(t, files["Grace Hopper.pdf"], 1), "(Grace Hopper)Tj")
}

func TestRunKeepsDuplicatesAndUnprintableNames(t *testing.T) {
	job := Job{
		Template:    pdftest.Certificate(t, "{{NAME}}"),
		Placeholder: "{{NAME}}",
		Names:       []string{"Ada", "ada", "???", "Ada"},
		WorkDir:     t.TempDir(),
	}

	var buf bytes.Buffer
	res, err := newProcessor(t).Run(context.Background(), job, &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada.pdf", "ada_2.pdf", "document-3.pdf", "Ada_3.pdf"}, res.Entries)
	assert.Len(t, readArchive(t, buf.Bytes()), 4)
}

func TestRunPlaceholderNotFound(t *testing.T) {
	job := Job{
		Template:    pdftest.Certificate(t, "{{NAME}}"),
		Placeholder: "{{STUDENT}}",
		Names:       []string{"Ada"},
		WorkDir:     t.TempDir(),
	}

	var buf bytes.Buffer
	res, err := newProcessor(t).Run(context.Background(), job, &buf)
	assert.ErrorIs(t, err, pdf.ErrPlaceholderNotFound)
	assert.Nil(t, res)
	assert.Zero(t, buf.Len(), "no archive bytes are written")
}

func TestRunRejectsBadInput(t *testing.T) {
	tpl := pdftest.Certificate(t, "{{NAME}}")
	tests := []struct {
		name string
		job  Job
		want error
	}{
		{"no template", Job{Placeholder: "{{NAME}}", Names: []string{"A"}}, ErrMissingInput},
		{"no placeholder", Job{Template: tpl, Names: []string{"A"}}, ErrMissingInput},
		{"no names", Job{Template: tpl, Placeholder: "{{NAME}}"}, ErrNoNames},
		{"not a pdf", Job{Template: []byte("Ada\nGrace\n"), Placeholder: "{{NAME}}", Names: []string{"A"}}, ErrFileType},
		{"broken pdf", Job{Template: []byte("%PDF-1.4\ngarbage"), Placeholder: "{{NAME}}", Names: []string{"A"}}, ErrProcessing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newProcessor(t).Run(context.Background(), tc.job, io.Discard)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

type failingStamper struct {
	*pdf.Stamper
	failOn string
	calls  []string
}

func (f *failingStamper) Substitute(tpl *pdf.Template, name, workDir string, w io.Writer) error {
	f.calls = append(f.calls, name)
	if name == f.failOn {
		return errors.New("font exploded")
	}
	return f.Stamper.Substitute(tpl, name, workDir, w)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	stamper := &failingStamper{
		Stamper: pdf.NewStamper(pdf.NewFontResolver(nil, ""), 1),
		failOn:  "Grace Hopper",
	}
	job := Job{
		Template:    pdftest.Certificate(t, "{{NAME}}"),
		Placeholder: "{{NAME}}",
		Names:       []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"},
		WorkDir:     t.TempDir(),
	}

	_, err := NewProcessor(stamper).Run(context.Background(), job, io.Discard)

	var nameErr *NameError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, 1, nameErr.Index)
	assert.Equal(t, "Grace Hopper", nameErr.Name)
	assert.ErrorIs(t, err, ErrProcessing)
	assert.Contains(t, err.Error(), `"Grace Hopper"`)
	assert.Equal(t, []string{"Ada Lovelace", "Grace Hopper"}, stamper.calls)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := Job{
		Template:    pdftest.Certificate(t, "{{NAME}}"),
		Placeholder: "{{NAME}}",
		Names:       []string{"Ada"},
		WorkDir:     t.TempDir(),
	}
	_, err := newProcessor(t).Run(ctx, job, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunIsDeterministic(t *testing.T) {
	job := Job{
		Template:    pdftest.Certificate(t, "{{NAME}}"),
		Placeholder: "{{NAME}}",
		Names:       []string{"Ada Lovelace", "Grace Hopper"},
		WorkDir:     t.TempDir(),
	}
	p := newProcessor(t)

	var first, second bytes.Buffer
	_, err := p.Run(context.Background(), job, &first)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), job, &second)
	require.NoError(t, err)

	a, b := readArchive(t, first.Bytes()), readArchive(t, second.Bytes())
	require.Len(t, b, len(a))
	for entry, doc := range a {
		require.Contains(t, b, entry)
		assert.Equal(t, pdftest.Streams(t, doc, 1), pdftest.Streams(t, b[entry], 1), entry)
	}
}

func TestEntryNamer(t *testing.T) {
	n := newEntryNamer()
	assert.Equal(t, "Ada.pdf", n.next(0, "Ada"))
	assert.Equal(t, "Ada_2.pdf", n.next(1, "Ada!"))
	assert.Equal(t, "document-3.pdf", n.next(2, "@@"))
	assert.Equal(t, "Ada_3.pdf", n.next(3, " Ada "))
}

func TestEntryNamesStayInsideSanitizedCharset(t *testing.T) {
	n := newEntryNamer()
	for i, name := range []string{"Ada", "Ada", "ADA", "Ada_2", "Ada"} {
		entry := strings.TrimSuffix(n.next(i, name), ".pdf")
		assert.Equal(t, utils.SanitizeName(entry), entry)
	}
}
