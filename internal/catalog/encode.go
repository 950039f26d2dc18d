package catalog

import (
	"github.com/go-faster/jx"
)

// Encode writes p as a flat JSON object. Connections are rendered as arrays
// and absent optional members are omitted.
func (p *Product) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("entityId", func(e *jx.Encoder) { e.Int64(p.EntityID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("path", func(e *jx.Encoder) { e.Str(p.Path) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		if p.Brand != nil {
			e.Field("brand", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("entityId", func(e *jx.Encoder) { e.Int64(p.Brand.EntityID) })
				})
			})
		}
		if p.Prices != nil {
			e.Field("prices", p.Prices.Encode)
		}
		e.Field("images", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range p.Images {
					p.Images[i].Encode(e)
				}
			})
		})
		e.Field("variants", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, v := range p.Variants {
					e.Obj(func(e *jx.Encoder) {
						e.Field("entityId", func(e *jx.Encoder) { e.Int64(v.EntityID) })
						if v.DefaultImage != nil {
							e.Field("defaultImage", v.DefaultImage.Encode)
						}
					})
				}
			})
		})
		e.Field("options", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range p.Options {
					p.Options[i].Encode(e)
				}
			})
		})
		if p.LocaleMeta != nil {
			e.Field("localeMeta", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, m := range p.LocaleMeta {
						e.Obj(func(e *jx.Encoder) {
							e.Field("key", func(e *jx.Encoder) { e.Str(m.Key) })
							e.Field("value", func(e *jx.Encoder) { e.Str(m.Value) })
						})
					}
				})
			})
		}
	})
}

// Encode writes p as a JSON object.
func (p *Prices) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("price", p.Price.Encode)
		if p.SalePrice != nil {
			e.Field("salePrice", p.SalePrice.Encode)
		}
		if p.RetailPrice != nil {
			e.Field("retailPrice", p.RetailPrice.Encode)
		}
	})
}

// Encode writes m with its value as a JSON number.
func (m Money) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("value", func(e *jx.Encoder) { e.Raw([]byte(m.Value.String())) })
		e.Field("currencyCode", func(e *jx.Encoder) { e.Str(m.CurrencyCode) })
	})
}

// Encode writes img as a JSON object.
func (img *Image) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("urlOriginal", func(e *jx.Encoder) { e.Str(img.URLOriginal) })
		e.Field("altText", func(e *jx.Encoder) { e.Str(img.AltText) })
		e.Field("isDefault", func(e *jx.Encoder) { e.Bool(img.IsDefault) })
	})
}

// Encode writes o as a JSON object.
func (o *Option) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(o.TypeName) })
		e.Field("entityId", func(e *jx.Encoder) { e.Int64(o.EntityID) })
		e.Field("displayName", func(e *jx.Encoder) { e.Str(o.DisplayName) })
		if len(o.Values) == 0 {
			return
		}
		e.Field("values", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, v := range o.Values {
					e.Obj(func(e *jx.Encoder) {
						e.Field("label", func(e *jx.Encoder) { e.Str(v.Label) })
						e.Field("isDefault", func(e *jx.Encoder) { e.Bool(v.IsDefault) })
						if len(v.HexColors) > 0 {
							e.Field("hexColors", func(e *jx.Encoder) {
								e.Arr(func(e *jx.Encoder) {
									for _, c := range v.HexColors {
										e.Str(c)
									}
								})
							})
						}
					})
				}
			})
		})
	})
}
