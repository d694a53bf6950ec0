package labels

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Printer turns a rendered label page into a printable document.
type Printer interface {
	PDF(ctx context.Context, html []byte) ([]byte, error)
}

// PDFPrinter prints through a headless Chrome started for each label.
// Labels are printed a few times per hour, so no browser is kept running.
type PDFPrinter struct {
	bin     string
	timeout time.Duration
}

// NewPDFPrinter uses the Chrome binary at bin, or lets rod find or download
// one when bin is empty.
func NewPDFPrinter(bin string, timeout time.Duration) *PDFPrinter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFPrinter{bin: bin, timeout: timeout}
}

func (p *PDFPrinter) PDF(ctx context.Context, html []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	l := launcher.New().Headless(true).Leakless(false)
	if p.bin != "" {
		l = l.Bin(p.bin)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("failed to load label: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("label did not finish loading: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to print label: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read label pdf: %w", err)
	}
	return data, nil
}
