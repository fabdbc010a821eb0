package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/docingest/core"
)

// runTool executes an external converter and folds its stderr into the error.
func runTool(ctx context.Context, path string, args ...string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%w: %s: %w", ErrToolFailed, filepath.Base(path), err)
		}
		return fmt.Errorf("%w: %s: %w: %s", ErrToolFailed, filepath.Base(path), err, msg)
	}
	return nil
}

// writeTemp writes data to name inside a new temp dir. The caller removes dir.
func writeTemp(pattern, name string, data []byte) (dir, path string, err error) {
	dir, err = os.MkdirTemp("", pattern)
	if err != nil {
		return "", "", err
	}
	path = filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", "", err
	}
	return dir, path, nil
}

var trailingNumber = regexp.MustCompile(`(\d+)\.[^.]+$`)

// numberedFiles returns files in dir starting with prefix, sorted by the
// number before their extension. pdftoppm zero-pads page numbers to the
// width of the page count, so lexical order is not enough.
func numberedFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type numbered struct {
		n    int
		path string
	}
	var files []numbered
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		m := trailingNumber.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		files = append(files, numbered{n, filepath.Join(dir, e.Name())})
	}
	slices.SortFunc(files, func(a, b numbered) int { return a.n - b.n })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// PdftoppmRenderer renders PDF pages with poppler's pdftoppm.
type PdftoppmRenderer struct {
	// Path is the pdftoppm binary. Empty means "pdftoppm" on PATH.
	Path string
	// DPI is the render resolution. Zero means 150.
	DPI int
}

// Render writes one PNG per page and returns them in page order.
func (r PdftoppmRenderer) Render(ctx context.Context, pdf []byte) ([][]byte, error) {
	dir, in, err := writeTemp("docingest-pdf-*", "input.pdf", pdf)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	dpi := r.DPI
	if dpi == 0 {
		dpi = 150
	}
	if err := runTool(ctx, toolPath(r.Path, "pdftoppm"), "-png", "-r", strconv.Itoa(dpi), in, filepath.Join(dir, "page")); err != nil {
		return nil, err
	}

	paths, err := numberedFiles(dir, "page")
	if err != nil {
		return nil, err
	}
	pages := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, data)
	}
	return pages, nil
}

// Segments is a set of audio clips on disk, in chronological order.
// Close removes them.
type Segments struct {
	Paths []string
	dir   string
}

// Close removes the directory holding the segments.
func (s *Segments) Close() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}

// FFmpeg segments audio and pulls audio tracks out of video with ffmpeg.
type FFmpeg struct {
	// Path is the ffmpeg binary. Empty means "ffmpeg" on PATH.
	Path string
}

// Segment splits audio (container ext) into clips of length, keeping the
// final partial clip.
func (f FFmpeg) Segment(ctx context.Context, audio []byte, ext string, length time.Duration) (*Segments, error) {
	ext = core.NormalizeFileType(ext)
	dir, in, err := writeTemp("docingest-audio-*", "input."+ext, audio)
	if err != nil {
		return nil, err
	}
	segs := &Segments{dir: dir}

	err = runTool(ctx, toolPath(f.Path, "ffmpeg"),
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", in,
		"-f", "segment",
		"-segment_time", strconv.FormatFloat(length.Seconds(), 'f', -1, 64),
		"-c", "copy",
		filepath.Join(dir, "segment-%03d."+ext),
	)
	if err != nil {
		segs.Close()
		return nil, err
	}

	segs.Paths, err = numberedFiles(dir, "segment-")
	if err != nil {
		segs.Close()
		return nil, err
	}
	return segs, nil
}

// ExtractAudio converts the audio track of a video to mono 16 kHz WAV.
func (f FFmpeg) ExtractAudio(ctx context.Context, video []byte, ext string) ([]byte, error) {
	dir, in, err := writeTemp("docingest-video-*", "input."+core.NormalizeFileType(ext), video)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "audio.wav")
	err = runTool(ctx, toolPath(f.Path, "ffmpeg"),
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", in,
		"-vn", "-ac", "1", "-ar", "16000",
		out,
	)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}

// LibreOffice converts legacy office formats with a headless soffice.
type LibreOffice struct {
	// Path is the soffice binary. Empty means "soffice" on PATH.
	Path string
}

// Convert turns data in format from (e.g. "xls") into format to (e.g. "xlsx").
func (l LibreOffice) Convert(ctx context.Context, data []byte, from, to string) ([]byte, error) {
	dir, in, err := writeTemp("docingest-office-*", "input."+core.NormalizeFileType(from), data)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	to = core.NormalizeFileType(to)
	err = runTool(ctx, toolPath(l.Path, "soffice"),
		"--headless", "--convert-to", to, "--outdir", dir, in)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(dir, "input."+to))
}

func toolPath(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
