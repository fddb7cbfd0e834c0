// Package inputprocessor resolves the resume argument of CLI commands to
// plain text.
package inputprocessor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"resumeclf/internal/textprep"
)

const maxURLBytes = 5 << 20

// Input kinds reported in Result.Kind.
const (
	KindFile  = "file"
	KindURL   = "url"
	KindStdin = "stdin"
	KindText  = "text"
)

// Result holds extracted resume text and where it came from.
type Result struct {
	Text   string
	Kind   string
	Source string // path or URL; empty for raw text
}

// Processor defines the interface for resolving an input string
type Processor interface {
	Process(ctx context.Context, input string) (Result, error)
}

// New creates a default processor reading "-" from stdin.
func New(stdin io.Reader) Processor {
	return &defaultProcessor{
		stdin:  stdin,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type defaultProcessor struct {
	stdin  io.Reader
	client *http.Client
}

// Process returns the text of input, which is "-" for stdin, an existing
// file, an http(s) URL or the resume text itself. HTML from files and URLs
// is reduced to its visible text.
func (p *defaultProcessor) Process(ctx context.Context, input string) (Result, error) {
	if input == "-" {
		data, err := io.ReadAll(p.stdin)
		if err != nil {
			return Result{}, fmt.Errorf("read stdin: %w", err)
		}
		text, err := textprep.CleanBytes(data, "stdin")
		return Result{Text: text, Kind: KindStdin}, err
	}

	// --- Detect File ---
	fi, err := os.Stat(input)
	if err == nil && !fi.IsDir() {
		log.Debugf("Input '%s' detected as a file.", input)
		text, err := textprep.ReadFile(input)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text, Kind: KindFile, Source: input}, nil
	}
	if err == nil && fi.IsDir() {
		return Result{}, fmt.Errorf("input '%s' is a directory", input)
	}
	if !errors.Is(err, os.ErrNotExist) && !isNameTooLong(err) {
		return Result{}, fmt.Errorf("failed to stat input '%s': %w", input, err)
	}

	// --- Detect URL ---
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") && !strings.ContainsAny(input, " \n") {
		log.Debugf("Input '%s' detected as a URL.", input)
		text, err := p.fetch(ctx, input)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: text, Kind: KindURL, Source: input}, nil
	}

	return Result{Text: input, Kind: KindText}, nil
}

func (p *defaultProcessor) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for URL '%s': %w", rawURL, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL '%s': %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		hint, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("failed to fetch URL '%s': status code %d %s - Body Hint: %s",
			rawURL, resp.StatusCode, http.StatusText(resp.StatusCode), string(hint))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxURLBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body from URL '%s': %w", rawURL, err)
	}
	text, err := textprep.CleanBytes(data, rawURL)
	if err != nil {
		return "", err
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "html") || textprep.LooksLikeHTML(text) {
		return textprep.HTMLToText(text)
	}
	return text, nil
}

// ResumeExtensions are the file types Discover picks up.
var ResumeExtensions = []string{".txt", ".md", ".html", ".htm"}

// Discover recursively lists resume files under root in lexical order.
// Unreadable entries are skipped with a warning.
func Discover(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warnf("Skipping %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		for _, want := range ResumeExtensions {
			if ext == want {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// isNameTooLong reports stat failures caused by pasting a whole resume as
// the argument.
func isNameTooLong(err error) bool {
	var pe *fs.PathError
	return errors.As(err, &pe) && strings.Contains(pe.Err.Error(), "file name too long")
}
