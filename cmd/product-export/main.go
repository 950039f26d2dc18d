// Command product-export looks up storefront products by slug or path and
// writes them as gzip-compressed JSON lines.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"

	appkg "github.com/xenking/storefront/internal/app"
)

type options struct {
	input       string
	output      string
	locale      string
	concurrency int
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "-", "file with one slug or /path/ per line (- for stdin)")
	flag.StringVar(&opts.output, "output", "products.jsonl.gz", "gzip-compressed JSON lines output file")
	flag.StringVar(&opts.locale, "locale", "", "locale override for every lookup")
	flag.IntVar(&opts.concurrency, "concurrency", 8, "maximum lookups in flight")
	flag.Parse()

	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		return run(zctx.Base(ctx, lg.Named("export")), m, opts)
	})
}

func run(ctx context.Context, m *app.Telemetry, opts options) error {
	lg := zctx.From(ctx)

	upstream, err := appkg.LoadUpstreamConfig()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	_, sf, err := appkg.NewStorefront(*upstream, m)
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	keys, err := readKeys(in)
	if err != nil {
		return err
	}
	if opts.locale != "" {
		for i := range keys {
			keys[i] = keys[i].WithLocale(opts.locale)
		}
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer func() { _ = out.Close() }()

	zw := pgzip.NewWriter(out)
	if err := zw.SetConcurrency(1<<20, runtime.GOMAXPROCS(0)); err != nil {
		return errors.Wrap(err, "configure gzip")
	}

	lg.Info("Exporting products",
		zap.Int("keys", len(keys)),
		zap.Int("concurrency", opts.concurrency),
		zap.String("output", opts.output),
	)
	stats, err := export(ctx, sf, keys, opts.concurrency, zw)
	if err != nil {
		_ = zw.Close()
		return errors.Wrap(err, "export")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close gzip")
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}

	lg.Info("Export completed",
		zap.Int("requested", stats.Requested),
		zap.Int("exported", stats.Exported),
		zap.Int("missing", len(stats.Missing)),
	)
	return nil
}
