// Package batch turns one template and a list of names into a zip archive
// holding one document per name.
//
// Names are processed in order, one at a time. The first failing name stops
// the batch and is reported as a *NameError.
package batch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/niklasemond/diploma-generator-2/internal/logging"
	"github.com/niklasemond/diploma-generator-2/internal/pdf"
	"github.com/niklasemond/diploma-generator-2/internal/utils"
)

// Substituter loads templates and renders one document per name.
// *pdf.Stamper implements it.
type Substituter interface {
	LoadTemplate(data []byte, placeholder string) (*pdf.Template, error)
	Substitute(tpl *pdf.Template, name, workDir string, w io.Writer) error
}

// Job is the input of one batch.
type Job struct {
	Template    []byte
	Placeholder string
	Names       []string
	// WorkDir holds scratch files and is owned by the caller.
	WorkDir string
}

// Result lists the archive entries in name order.
type Result struct {
	Entries []string
}

type Processor struct {
	stamper Substituter
}

func NewProcessor(s Substituter) *Processor {
	return &Processor{stamper: s}
}

// Run writes the zip archive for job to w. On error the bytes already written
// to w are not a usable archive.
func (p *Processor) Run(ctx context.Context, job Job, w io.Writer) (*Result, error) {
	if len(job.Template) == 0 || job.Placeholder == "" {
		return nil, ErrMissingInput
	}
	if len(job.Names) == 0 {
		return nil, ErrNoNames
	}

	tpl, err := p.stamper.LoadTemplate(job.Template, job.Placeholder)
	switch {
	case err == nil:
	case errors.Is(err, pdf.ErrNotPDF):
		return nil, fmt.Errorf("%w: %w", ErrFileType, err)
	case errors.Is(err, pdf.ErrPlaceholderNotFound):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrProcessing, err)
	}

	start := time.Now()
	zw := zip.NewWriter(w)
	namer := newEntryNamer()
	result := &Result{Entries: make([]string, 0, len(job.Names))}

	for i, name := range job.Names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := namer.next(i, name)
		fw, err := zw.Create(entry)
		if err != nil {
			return nil, &NameError{Index: i, Name: name, Err: fmt.Errorf("%w: %w", ErrProcessing, err)}
		}
		if err := p.stamper.Substitute(tpl, name, job.WorkDir, fw); err != nil {
			logging.Warn("document generation failed", "index", i, "name", name, "error", err)
			return nil, &NameError{Index: i, Name: name, Err: fmt.Errorf("%w: %w", ErrProcessing, err)}
		}
		result.Entries = append(result.Entries, entry)
		logging.Debug("document generated", "index", i, "entry", entry)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finish archive: %w", ErrProcessing, err)
	}

	logging.Info("batch generated",
		"documents", len(result.Entries),
		"font", tpl.Match.FontName,
		"font_size", tpl.Match.FontSize,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// entryNamer produces unique archive entry names from person names.
type entryNamer struct {
	seen map[string]int
}

func newEntryNamer() *entryNamer {
	return &entryNamer{seen: make(map[string]int)}
}

func (n *entryNamer) next(index int, name string) string {
	base := utils.SanitizeName(name)
	if base == "" {
		base = fmt.Sprintf("document-%d", index+1)
	}

	candidate := base
	for {
		key := strings.ToLower(candidate)
		count := n.seen[key]
		n.seen[key] = count + 1
		if count == 0 {
			return candidate + ".pdf"
		}
		candidate = fmt.Sprintf("%s_%d", base, count+1)
	}
}
