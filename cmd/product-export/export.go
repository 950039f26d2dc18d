package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/storefront"
)

// Stats summarises an export run.
type Stats struct {
	Requested int
	Exported  int
	Missing   []string
}

// readKeys parses one lookup key per line. Blank lines and lines starting
// with '#' are skipped; keys starting with '/' are route paths, anything
// else is a slug.
func readKeys(r io.Reader) ([]catalog.Variables, error) {
	var keys []catalog.Variables
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		switch {
		case line == "", strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "/"):
			keys = append(keys, catalog.ByPath(line))
		default:
			keys = append(keys, catalog.BySlug(line))
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "scan keys")
	}
	return keys, nil
}

func keyString(v catalog.Variables) string {
	if v.Slug != "" {
		return v.Slug
	}
	return v.Path
}

// export fetches keys with at most concurrency lookups in flight and writes
// every found product as one JSON line to w, in input order. Missing
// products are counted; any upstream error aborts the run.
func export(ctx context.Context, cfg *storefront.Config, keys []catalog.Variables, concurrency int, w io.Writer) (Stats, error) {
	lg := zctx.From(ctx)
	products := make([]*catalog.Product, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))
	for i, key := range keys {
		g.Go(func() error {
			res, err := catalog.GetProduct(gctx, cfg, key)
			if err != nil {
				return errors.Wrapf(err, "product %q", keyString(key))
			}
			products[i] = res.Product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Requested: len(keys)}
	bw := bufio.NewWriter(w)
	var e jx.Encoder
	for i, p := range products {
		if p == nil {
			stats.Missing = append(stats.Missing, keyString(keys[i]))
			lg.Warn("Product not found", zap.String("key", keyString(keys[i])))
			continue
		}
		e.Reset()
		p.Encode(&e)
		if _, err := bw.Write(e.Bytes()); err != nil {
			return stats, errors.Wrap(err, "write product")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return stats, errors.Wrap(err, "write product")
		}
		stats.Exported++
	}
	if err := bw.Flush(); err != nil {
		return stats, errors.Wrap(err, "flush")
	}
	return stats, nil
}
