package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"jobwatch-go/internal/model"
)

// Printer writes new listings to an io.Writer, stdout by default.
type Printer struct {
	out io.Writer
	now func() time.Time
}

func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out, now: time.Now}
}

func (p *Printer) Name() string {
	return "console"
}

func (p *Printer) Notify(ctx context.Context, listings []model.Listing) error {
	if _, err := fmt.Fprintf(p.out, "%s: %d new job(s) posted\n", p.now().Format(time.DateTime), len(listings)); err != nil {
		return err
	}
	for _, l := range listings {
		if _, err := fmt.Fprintf(p.out, "  - %s\n", l); err != nil {
			return err
		}
	}
	return nil
}
