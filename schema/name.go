package schema

// NameKey is a possibly prefixed XML name. NameKey values are comparable
// and are used directly as map keys.
type NameKey struct {
	Prefix string
	Local  string
}

func (k NameKey) HasPrefix() bool {
	return k.Prefix != ""
}

func (k NameKey) String() string {
	if k.Prefix == "" {
		return k.Local
	}
	return k.Prefix + ":" + k.Local
}

// NamePool interns names so that every occurrence of the same name within
// one parser shares its string storage. A NamePool is owned by a single
// parser and is not safe for concurrent use.
type NamePool struct {
	keys    map[string]NameKey
	strings map[string]string
}

func NewNamePool() *NamePool {
	return &NamePool{
		keys:    make(map[string]NameKey),
		strings: make(map[string]string),
	}
}

func (p *NamePool) Len() int {
	return len(p.keys)
}

// Lookup returns the interned key for the raw name b. When colon is a
// valid index into b, the name is split into prefix and local part there.
// Looking up a name already in the pool does not allocate.
func (p *NamePool) Lookup(b []byte, colon int) NameKey {
	if k, ok := p.keys[string(b)]; ok {
		return k
	}

	var k NameKey
	if colon > 0 && colon < len(b)-1 {
		k.Prefix = p.intern(b[:colon])
		k.Local = p.intern(b[colon+1:])
	} else {
		k.Local = p.intern(b)
	}
	p.keys[string(b)] = k
	return k
}

// Intern returns the canonical key for prefix and local
func (p *NamePool) Intern(prefix, local string) NameKey {
	if prefix == "" {
		return p.Lookup([]byte(local), -1)
	}
	raw := prefix + ":" + local
	return p.Lookup([]byte(raw), len(prefix))
}

// String returns the interned copy of s
func (p *NamePool) String(b []byte) string {
	return p.intern(b)
}

func (p *NamePool) intern(b []byte) string {
	if s, ok := p.strings[string(b)]; ok {
		return s
	}
	s := string(b)
	p.strings[s] = s
	return s
}
