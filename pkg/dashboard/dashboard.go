// Package dashboard writes the static HTML pages served next to the graphs:
// an index with one thumbnail per device and one page per device.
package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/timeseries"
)

//go:embed templates
var templatesFS embed.FS

const (
	indexPage  = "index.html"
	stylesheet = "index.css"
)

// Config 页面配置
type Config struct {
	// Dir is the directory holding the graphs; pages are written next to them.
	Dir         string
	CompanyName string
	CompanyLogo string
	// Refresh is the browser auto-refresh period of every page.
	Refresh    time.Duration
	TimeLayout string
}

// Writer renders the pages. It is safe for concurrent use as long as two
// calls never target the same device.
type Writer struct {
	cfg  Config
	tmpl *template.Template
	log  *zap.Logger
	now  func() time.Time
}

type page struct {
	CompanyName string
	CompanyLogo string
	Refresh     int
	Updated     string
	Devices     []string
	Device      string
	Images      []timeseries.ImageHandle
}

// New parses the embedded templates.
func New(cfg Config, log *zap.Logger) (*Writer, error) {
	tmpl, err := template.New("dashboard").
		Funcs(sprig.FuncMap()).
		ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Minute
	}
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = timeseries.DefaultStyle().TimeLayout
	}
	return &Writer{cfg: cfg, tmpl: tmpl, log: log.Named("dashboard"), now: time.Now}, nil
}

func (w *Writer) newPage() page {
	return page{
		CompanyName: w.cfg.CompanyName,
		CompanyLogo: w.cfg.CompanyLogo,
		Refresh:     int(w.cfg.Refresh.Seconds()),
		Updated:     w.now().Format(w.cfg.TimeLayout),
	}
}

// WriteIndex writes index.html listing devices, and the stylesheet when it
// is missing so an operator's own copy is kept.
func (w *Writer) WriteIndex(devices []string) error {
	if err := w.ensureStylesheet(); err != nil {
		return err
	}
	p := w.newPage()
	p.Devices = devices
	return w.render("index", indexPage, p)
}

// WriteDevice writes <device>.html showing images in the given order.
func (w *Writer) WriteDevice(device string, images []timeseries.ImageHandle) error {
	p := w.newPage()
	p.Device = device
	p.Images = images
	return w.render("device", device+".html", p)
}

func (w *Writer) render(name, file string, data page) error {
	var buf bytes.Buffer
	if err := w.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", file, err)
	}
	if err := writeFileAtomic(filepath.Join(w.cfg.Dir, file), buf.Bytes()); err != nil {
		return err
	}
	w.log.Debug("page written", zap.String("file", file))
	return nil
}

func (w *Writer) ensureStylesheet() error {
	path := filepath.Join(w.cfg.Dir, stylesheet)
	if _, err := os.Stat(path); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	css, err := templatesFS.ReadFile("templates/" + stylesheet)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, css)
}

// writeFileAtomic replaces path so a browser never sees a half written page.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
