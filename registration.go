package jcursor

// Registration is a deferred codec registration. Packages that define codecs
// expose values of this type so callers opt in explicitly instead of relying
// on import side-effects (init functions).
//
// For example, in a package "tomlcodec":
//
//	var TOML = jcursor.NewCodec("toml", tomlCodec{}, jcursor.DetectByType)
//
// Usage:
//
//	r, _ := jcursor.NewRegistry(jcursor.Stdlib(), tomlcodec.TOML)
type Registration func(r *Registry) error

// NewCodec wraps Registry.Register into a Registration closure.
func NewCodec(name string, c Codec, p Policy) Registration {
	return func(r *Registry) error {
		return r.Register(name, c, p)
	}
}

// NewCodecFunc registers a codec built from a load and a dump function.
func NewCodecFunc(name string, load, dump func(any) (any, error), p Policy) Registration {
	return NewCodec(name, CodecFuncs{LoadFunc: load, DumpFunc: dump}, p)
}

// Alias returns a Registration that exposes target under another name. It
// must be applied after target is registered.
func Alias(name, target string) Registration {
	return func(r *Registry) error {
		return r.Alias(name, target)
	}
}

// Group bundles codec registrations so a codec family can be passed around
// as one value:
//
//	formats := jcursor.Group(jcursor.JSON, jcursor.YAML)
//	r, err := jcursor.NewRegistry(formats, jcursor.CBOR())
func Group(regs ...Registration) Registration {
	return func(r *Registry) error { return Apply(r, regs...) }
}

// Apply registers codecs on r in order. A name clash or an alias to an
// unknown codec stops it; codecs registered before the failure stay.
func Apply(r *Registry, regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the given codecs. Start from
// Stdlib() to extend the built-in set.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := newRegistry()
	if err := Apply(r, regs...); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for package-level registries; it panics on
// a registration error.
func MustNewRegistry(regs ...Registration) *Registry {
	codecs, err := NewRegistry(regs...)
	if err != nil {
		panic(err)
	}
	return codecs
}
