package catalog

// LocaleMetaApplier is implemented by node types that can fold locale
// metafields into their own fields.
type LocaleMetaApplier interface {
	ApplyLocaleMeta()
}

var _ LocaleMetaApplier = (*Product)(nil)

// ApplyLocaleMeta calls SetLocaleMeta on p.
func (p *Product) ApplyLocaleMeta() {
	SetLocaleMeta(p)
}

// SetLocaleMeta overwrites product text fields with the values of locale
// metafields keyed by the field name. Consumed metafields are removed; when
// none remain LocaleMeta is set to nil. p must not be shared with other
// goroutines during the call.
func SetLocaleMeta(p *Product) {
	if p == nil || p.LocaleMeta == nil {
		return
	}

	rest := p.LocaleMeta[:0]
	for _, m := range p.LocaleMeta {
		if !p.setTextField(m.Key, m.Value) {
			rest = append(rest, m)
		}
	}
	if len(rest) == 0 {
		p.LocaleMeta = nil
		return
	}
	p.LocaleMeta = rest
}

// setTextField overlays a closed set of text fields; other keys stay in
// LocaleMeta for the caller.
func (p *Product) setTextField(key, value string) bool {
	switch key {
	case "name":
		p.Name = value
	case "description":
		p.Description = value
	case "path":
		p.Path = value
	default:
		return false
	}
	return true
}
