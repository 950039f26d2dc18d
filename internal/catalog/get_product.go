package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/storefront"
)

// Lookup key errors.
var (
	ErrMissingPath     = errors.New("product lookup requires a path or a slug")
	ErrAmbiguousLookup = errors.New("product lookup accepts a path or a slug, not both")
	ErrInvalidExtra    = errors.New("extra variables must encode a JSON object")
)

// Variables identifies the product to fetch: exactly one of Path or Slug,
// and an optional Locale overriding the configured one. Extra carries
// additional variables declared by a custom document; it must encode a JSON
// object and cannot override path, locale or hasLocale.
type Variables struct {
	Path   string
	Slug   string
	Locale string
	Extra  storefront.Variables
}

// ByPath returns lookup variables for a storefront route path.
func ByPath(path string) Variables {
	return Variables{Path: path}
}

// BySlug returns lookup variables for a product slug. The slug is resolved
// to the route "/<slug>/".
func BySlug(slug string) Variables {
	return Variables{Slug: slug}
}

// WithLocale returns a copy of v with the locale override set.
func (v Variables) WithLocale(locale string) Variables {
	v.Locale = locale
	return v
}

// WithExtra returns a copy of v carrying extra document variables.
func (v Variables) WithExtra(extra storefront.Variables) Variables {
	v.Extra = extra
	return v
}

// QueryVariables are the variables sent with the product query.
type QueryVariables struct {
	Path      string
	Locale    string
	HasLocale bool
	// Extra is a validated JSON object merged ahead of the computed fields.
	Extra jx.Raw
}

func reservedVariable(key string) bool {
	return key == "path" || key == "locale" || key == "hasLocale"
}

// Encode writes the variables object. Extra fields come first; an empty
// locale is omitted so the document default applies.
func (v QueryVariables) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		if len(v.Extra) > 0 {
			// Extra was validated when the variables were built.
			_ = jx.DecodeBytes(v.Extra).ObjBytes(func(d *jx.Decoder, key []byte) error {
				raw, err := d.Raw()
				if err != nil {
					return err
				}
				if !reservedVariable(string(key)) {
					e.Field(string(key), func(e *jx.Encoder) { e.Raw(raw) })
				}
				return nil
			})
		}
		if v.Locale != "" {
			e.Field("locale", func(e *jx.Encoder) { e.Str(v.Locale) })
		}
		e.Field("hasLocale", func(e *jx.Encoder) { e.Bool(v.HasLocale) })
		e.Field("path", func(e *jx.Encoder) { e.Str(v.Path) })
	})
}

// QueryVariables derives the query variables from v, falling back to
// fallbackLocale when v carries no locale.
func (v Variables) QueryVariables(fallbackLocale string) (QueryVariables, error) {
	var path string
	switch {
	case v.Slug != "" && v.Path != "":
		return QueryVariables{}, ErrAmbiguousLookup
	case v.Slug != "":
		path = "/" + v.Slug + "/"
	case v.Path != "":
		path = v.Path
	default:
		return QueryVariables{}, ErrMissingPath
	}

	locale := v.Locale
	if locale == "" {
		locale = fallbackLocale
	}
	extra, err := encodeExtra(v.Extra)
	if err != nil {
		return QueryVariables{}, err
	}
	return QueryVariables{
		Path:      path,
		Locale:    locale,
		HasLocale: locale != "",
		Extra:     extra,
	}, nil
}

func encodeExtra(extra storefront.Variables) (jx.Raw, error) {
	if extra == nil {
		return nil, nil
	}
	var e jx.Encoder
	extra.Encode(&e)
	raw := jx.Raw(e.Bytes())

	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Object {
		return nil, ErrInvalidExtra
	}
	if err := d.Skip(); err != nil {
		return nil, errors.Errorf("%w: %v", ErrInvalidExtra, err)
	}
	return raw, nil
}

// Result is the outcome of a product lookup. Product is nil when the route
// does not exist or resolves to a node of another type.
type Result[T any] struct {
	Product *T
}

// GetProductResult is the result of GetProduct.
type GetProductResult = Result[Product]

// NodeDecoder is satisfied by pointers to node types that decode themselves.
type NodeDecoder[T any] interface {
	*T
	Decode(d *jx.Decoder) error
}

// GetProduct fetches the product routed at vars with the built-in query.
func GetProduct(ctx context.Context, cfg *storefront.Config, vars Variables) (GetProductResult, error) {
	return GetProductWithQuery[Product](ctx, cfg, GetProductQuery, vars)
}

// GetProductWithQuery fetches the product routed at vars using a caller
// supplied document. The document must accept the $path, $locale and
// $hasLocale variables and select site.route.node with its __typename. The
// node is decoded into T; locale metadata is applied when T implements
// LocaleMetaApplier. An empty query selects GetProductQuery.
func GetProductWithQuery[T any, PT NodeDecoder[T]](
	ctx context.Context,
	cfg *storefront.Config,
	query string,
	vars Variables,
) (Result[T], error) {
	if cfg == nil || cfg.Fetcher == nil {
		return Result[T]{}, errors.Wrap(storefront.ErrNoConfig, "get product")
	}
	qv, err := vars.QueryVariables(cfg.Locale)
	if err != nil {
		return Result[T]{}, err
	}
	if query == "" {
		query = GetProductQuery
	}

	resp, err := cfg.Fetcher.Fetch(ctx, storefront.Request{
		OperationName: "getProduct",
		Query:         query,
		Variables:     qv,
	})
	if err != nil {
		return Result[T]{}, errors.Wrap(err, "fetch product")
	}

	var data jx.Raw
	if resp != nil {
		data = resp.Data
	}
	typeName, raw, err := routeNode(data)
	if err != nil {
		return Result[T]{}, errors.Wrap(err, "decode route")
	}
	if typeName != TypeProduct {
		zctx.From(ctx).Debug("Route does not resolve to a product",
			zap.String("path", qv.Path),
			zap.String("typename", typeName),
		)
		return Result[T]{}, nil
	}

	node := PT(new(T))
	if err := node.Decode(jx.DecodeBytes(raw)); err != nil {
		return Result[T]{}, errors.Wrap(err, "decode product")
	}
	if qv.HasLocale && cfg.ApplyLocale {
		if a, ok := any(node).(LocaleMetaApplier); ok {
			a.ApplyLocaleMeta()
		}
	}
	return Result[T]{Product: (*T)(node)}, nil
}

// Get resolves the process-wide default configuration, applies opts and
// fetches the product routed at vars.
func Get(ctx context.Context, vars Variables, opts ...storefront.Option) (GetProductResult, error) {
	cfg, err := storefront.Resolve(opts...)
	if err != nil {
		return GetProductResult{}, err
	}
	return GetProduct(ctx, cfg, vars)
}
