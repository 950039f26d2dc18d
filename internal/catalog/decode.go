package catalog

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// lookup returns the raw value of key in the JSON object raw. It returns nil
// when raw is empty, is not an object, lacks key, or key is null.
func lookup(raw jx.Raw, key string) (jx.Raw, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Object {
		return nil, nil
	}
	var out jx.Raw
	if err := d.ObjBytes(func(d *jx.Decoder, k []byte) error {
		if out != nil || string(k) != key || d.Next() == jx.Null {
			return d.Skip()
		}
		v, err := d.Raw()
		if err != nil {
			return err
		}
		out = v
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "decode %q", key)
	}
	return out, nil
}

// routeNode walks data.site.route.node and returns the node with its
// __typename. A missing or null level yields a nil node and no error.
func routeNode(data jx.Raw) (typeName string, node jx.Raw, _ error) {
	node = data
	for _, key := range []string{"site", "route", "node"} {
		v, err := lookup(node, key)
		if err != nil {
			return "", nil, err
		}
		if v == nil {
			return "", nil, nil
		}
		node = v
	}

	tn, err := lookup(node, "__typename")
	if err != nil || tn == nil {
		return "", node, err
	}
	d := jx.DecodeBytes(tn)
	if d.Next() != jx.String {
		return "", node, nil
	}
	typeName, err = d.Str()
	if err != nil {
		return "", nil, errors.Wrap(err, "decode __typename")
	}
	return typeName, node, nil
}

// decodeEdges calls f for every non-null node of a connection object
// ({"edges":[{"node":...}]}).
func decodeEdges(d *jx.Decoder, f func(d *jx.Decoder) error) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "edges" || d.Next() != jx.Array {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "node" || d.Next() != jx.Object {
					return d.Skip()
				}
				return f(d)
			})
		})
	})
}

// Decode decodes a Product node. Unknown and null fields are skipped.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "entityId":
			p.EntityID, err = d.Int64()
		case "name":
			p.Name, err = d.Str()
		case "path":
			p.Path, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "brand":
			p.Brand = &Brand{}
			err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "entityId" || d.Next() != jx.Number {
					return d.Skip()
				}
				v, err := d.Int64()
				p.Brand.EntityID = v
				return err
			})
		case "prices":
			p.Prices = &Prices{}
			err = p.Prices.Decode(d)
		case "images":
			err = decodeEdges(d, func(d *jx.Decoder) error {
				var img Image
				if err := img.Decode(d); err != nil {
					return err
				}
				p.Images = append(p.Images, img)
				return nil
			})
		case "variants":
			err = decodeEdges(d, func(d *jx.Decoder) error {
				var v Variant
				if err := v.Decode(d); err != nil {
					return err
				}
				p.Variants = append(p.Variants, v)
				return nil
			})
		case "productOptions":
			err = decodeEdges(d, func(d *jx.Decoder) error {
				var o Option
				if err := o.Decode(d); err != nil {
					return err
				}
				p.Options = append(p.Options, o)
				return nil
			})
		case "localeMeta":
			p.LocaleMeta = []Metafield{}
			err = decodeEdges(d, func(d *jx.Decoder) error {
				var m Metafield
				if err := m.Decode(d); err != nil {
					return err
				}
				p.LocaleMeta = append(p.LocaleMeta, m)
				return nil
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode product %s", key)
		}
		return nil
	})
}

// Decode decodes a Prices object.
func (p *Prices) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		switch string(key) {
		case "price":
			return p.Price.Decode(d)
		case "salePrice":
			p.SalePrice = &Money{}
			return p.SalePrice.Decode(d)
		case "retailPrice":
			p.RetailPrice = &Money{}
			return p.RetailPrice.Decode(d)
		default:
			return d.Skip()
		}
	})
}

// Decode decodes a Money object. The value may be a JSON number or a numeric
// string.
func (m *Money) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "value":
			var s string
			switch d.Next() {
			case jx.Number:
				n, err := d.Num()
				if err != nil {
					return err
				}
				s = n.String()
			case jx.String:
				v, err := d.Str()
				if err != nil {
					return err
				}
				s = v
			default:
				return d.Skip()
			}
			v, err := decimal.NewFromString(s)
			if err != nil {
				return errors.Wrapf(err, "parse money value %q", s)
			}
			m.Value = v
			return nil
		case "currencyCode":
			if d.Next() != jx.String {
				return d.Skip()
			}
			v, err := d.Str()
			m.CurrencyCode = v
			return err
		default:
			return d.Skip()
		}
	})
}

// Decode decodes an Image object.
func (img *Image) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "urlOriginal":
			img.URLOriginal, err = d.Str()
		case "altText":
			img.AltText, err = d.Str()
		case "isDefault":
			img.IsDefault, err = d.Bool()
		default:
			return d.Skip()
		}
		return err
	})
}

// Decode decodes a Variant object.
func (v *Variant) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "entityId":
			v.EntityID, err = d.Int64()
		case "defaultImage":
			v.DefaultImage = &Image{}
			err = v.DefaultImage.Decode(d)
		default:
			return d.Skip()
		}
		return err
	})
}

// Decode decodes a product option node.
func (o *Option) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "__typename":
			o.TypeName, err = d.Str()
		case "entityId":
			o.EntityID, err = d.Int64()
		case "displayName":
			o.DisplayName, err = d.Str()
		case "values":
			err = decodeEdges(d, func(d *jx.Decoder) error {
				var v OptionValue
				if err := v.Decode(d); err != nil {
					return err
				}
				o.Values = append(o.Values, v)
				return nil
			})
		default:
			return d.Skip()
		}
		return err
	})
}

// Decode decodes an option value node.
func (v *OptionValue) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "label":
			v.Label, err = d.Str()
		case "isDefault":
			v.IsDefault, err = d.Bool()
		case "hexColors":
			err = d.Arr(func(d *jx.Decoder) error {
				c, err := d.Str()
				if err != nil {
					return err
				}
				v.HexColors = append(v.HexColors, c)
				return nil
			})
		default:
			return d.Skip()
		}
		return err
	})
}

// Decode decodes a metafield node.
func (m *Metafield) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "key":
			m.Key, err = d.Str()
		case "value":
			m.Value, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
}
