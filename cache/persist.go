package cache

import (
	"fmt"
	"io"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/lestrrat-go/dtd/input"
	"github.com/lestrrat-go/dtd/schema"
	"github.com/pkg/errors"
)

const snapshotVersion = 1

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create cache CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create cache CBOR decoder mode: %v", err))
	}
}

type snapshot struct {
	Version int           `cbor:"1,keyasint"`
	Entries []entryRecord `cbor:"2,keyasint,omitempty"`
}

type entryRecord struct {
	PublicID      string           `cbor:"1,keyasint,omitempty"`
	SystemID      string           `cbor:"2,keyasint,omitempty"`
	Entities      []entityRecord   `cbor:"3,keyasint,omitempty"`
	Notations     []notationRecord `cbor:"4,keyasint,omitempty"`
	Elements      []elementRecord  `cbor:"5,keyasint,omitempty"`
	ReferencedPEs []string         `cbor:"6,keyasint,omitempty"`
}

type locationRecord struct {
	PublicID string `cbor:"1,keyasint,omitempty"`
	SystemID string `cbor:"2,keyasint,omitempty"`
	Entity   string `cbor:"3,keyasint,omitempty"`
	Line     int    `cbor:"4,keyasint,omitempty"`
	Column   int    `cbor:"5,keyasint,omitempty"`
	Offset   int    `cbor:"6,keyasint,omitempty"`
}

type entityRecord struct {
	Name     string         `cbor:"1,keyasint"`
	Internal bool           `cbor:"2,keyasint,omitempty"`
	Value    string         `cbor:"3,keyasint,omitempty"`
	PublicID string         `cbor:"4,keyasint,omitempty"`
	SystemID string         `cbor:"5,keyasint,omitempty"`
	Notation string         `cbor:"6,keyasint,omitempty"`
	Location locationRecord `cbor:"7,keyasint"`
}

type notationRecord struct {
	Name     string         `cbor:"1,keyasint"`
	PublicID string         `cbor:"2,keyasint,omitempty"`
	SystemID string         `cbor:"3,keyasint,omitempty"`
	Location locationRecord `cbor:"4,keyasint"`
}

type nameRecord struct {
	Prefix string `cbor:"1,keyasint,omitempty"`
	Local  string `cbor:"2,keyasint"`
}

type particleRecord struct {
	Kind     int              `cbor:"1,keyasint"`
	Name     nameRecord       `cbor:"2,keyasint,omitempty"`
	Arity    int              `cbor:"3,keyasint,omitempty"`
	Children []particleRecord `cbor:"4,keyasint,omitempty"`
}

type contentRecord struct {
	Kind     int              `cbor:"1,keyasint"`
	Arity    int              `cbor:"2,keyasint,omitempty"`
	Names    []nameRecord     `cbor:"3,keyasint,omitempty"`
	Children []particleRecord `cbor:"4,keyasint,omitempty"`
}

type segmentRecord struct {
	Text   string `cbor:"1,keyasint,omitempty"`
	Entity string `cbor:"2,keyasint,omitempty"`
}

type attributeRecord struct {
	Name        nameRecord      `cbor:"1,keyasint"`
	Type        int             `cbor:"2,keyasint"`
	Enumeration []string        `cbor:"3,keyasint,omitempty"`
	Default     int             `cbor:"4,keyasint,omitempty"`
	HasValue    bool            `cbor:"5,keyasint,omitempty"`
	Value       []segmentRecord `cbor:"6,keyasint,omitempty"`
	Location    locationRecord  `cbor:"7,keyasint"`
}

type elementRecord struct {
	Name       nameRecord        `cbor:"1,keyasint"`
	Declared   bool              `cbor:"2,keyasint,omitempty"`
	Content    *contentRecord    `cbor:"3,keyasint,omitempty"`
	Location   locationRecord    `cbor:"4,keyasint"`
	Attributes []attributeRecord `cbor:"5,keyasint,omitempty"`
}

// Save writes every cached subset to w
func (c *Cache) Save(w io.Writer) error {
	c.mu.RLock()
	snap := snapshot{Version: snapshotVersion}
	for k, s := range c.entries {
		snap.Entries = append(snap.Entries, newEntryRecord(k, s))
	}
	c.mu.RUnlock()

	sort.Slice(snap.Entries, func(i, j int) bool {
		if snap.Entries[i].PublicID != snap.Entries[j].PublicID {
			return snap.Entries[i].PublicID < snap.Entries[j].PublicID
		}
		return snap.Entries[i].SystemID < snap.Entries[j].SystemID
	})

	if err := encMode.NewEncoder(w).Encode(snap); err != nil {
		return errors.Wrap(err, "failed to encode cache")
	}
	return nil
}

// Load reads subsets written by Save and adds them to the cache
func (c *Cache) Load(r io.Reader) error {
	var snap snapshot
	if err := decMode.NewDecoder(r).Decode(&snap); err != nil {
		return errors.Wrap(err, "failed to decode cache")
	}
	if snap.Version != snapshotVersion {
		return errors.Errorf("unsupported cache version %d", snap.Version)
	}

	for _, rec := range snap.Entries {
		s, err := rec.subset()
		if err != nil {
			return errors.Wrapf(err, "failed to restore cached subset (public id %q, system id %q)", rec.PublicID, rec.SystemID)
		}
		c.Put(Key{PublicID: rec.PublicID, SystemID: rec.SystemID}, s)
	}
	return nil
}

func newLocationRecord(l schema.Location) locationRecord {
	return locationRecord{
		PublicID: l.PublicID,
		SystemID: l.SystemID,
		Entity:   l.Entity,
		Line:     l.Line,
		Column:   l.Column,
		Offset:   l.Offset,
	}
}

func (r locationRecord) location() schema.Location {
	return input.Location{
		PublicID: r.PublicID,
		SystemID: r.SystemID,
		Entity:   r.Entity,
		Line:     r.Line,
		Column:   r.Column,
		Offset:   r.Offset,
	}
}

func newNameRecord(k schema.NameKey) nameRecord {
	return nameRecord{Prefix: k.Prefix, Local: k.Local}
}

func (r nameRecord) key() schema.NameKey {
	return schema.NameKey{Prefix: r.Prefix, Local: r.Local}
}

func newParticleRecords(ps []schema.Particle) []particleRecord {
	if len(ps) == 0 {
		return nil
	}
	ret := make([]particleRecord, len(ps))
	for i, p := range ps {
		ret[i] = particleRecord{
			Kind:     int(p.Kind),
			Name:     newNameRecord(p.Name),
			Arity:    int(p.Arity),
			Children: newParticleRecords(p.Children),
		}
	}
	return ret
}

func particles(rs []particleRecord) []schema.Particle {
	if len(rs) == 0 {
		return nil
	}
	ret := make([]schema.Particle, len(rs))
	for i, r := range rs {
		ret[i] = schema.Particle{
			Kind:     schema.ParticleKind(r.Kind),
			Name:     r.Name.key(),
			Arity:    schema.Arity(r.Arity),
			Children: particles(r.Children),
		}
	}
	return ret
}

func newEntryRecord(k Key, s *schema.Subset) entryRecord {
	rec := entryRecord{
		PublicID:      k.PublicID,
		SystemID:      k.SystemID,
		ReferencedPEs: s.ReferencedParameterEntities(),
	}

	for _, e := range s.Entities() {
		rec.Entities = append(rec.Entities, entityRecord{
			Name:     e.Name(),
			Internal: e.IsInternal(),
			Value:    e.Value(),
			PublicID: e.PublicID(),
			SystemID: e.SystemID(),
			Notation: e.Notation(),
			Location: newLocationRecord(e.Location()),
		})
	}

	for _, n := range s.Notations() {
		rec.Notations = append(rec.Notations, notationRecord{
			Name:     n.Name(),
			PublicID: n.PublicID(),
			SystemID: n.SystemID(),
			Location: newLocationRecord(n.Location()),
		})
	}

	for _, e := range s.Elements() {
		er := elementRecord{
			Name:     newNameRecord(e.Name()),
			Location: newLocationRecord(e.Location()),
		}
		if content, ok := e.Content(); ok {
			er.Declared = true
			cr := contentRecord{
				Kind:     int(content.Kind),
				Arity:    int(content.Arity),
				Children: newParticleRecords(content.Children),
			}
			for _, n := range content.Names {
				cr.Names = append(cr.Names, newNameRecord(n))
			}
			er.Content = &cr
		}
		for _, a := range e.Attributes() {
			ar := attributeRecord{
				Name:        newNameRecord(a.Name()),
				Type:        int(a.Type()),
				Enumeration: a.Enumeration(),
				Default:     int(a.DefaultKind()),
				Location:    newLocationRecord(a.Location()),
			}
			if v := a.DefaultValue(); v != nil {
				ar.HasValue = true
				for _, seg := range v.Segments() {
					ar.Value = append(ar.Value, segmentRecord{Text: seg.Text, Entity: seg.Entity})
				}
			}
			er.Attributes = append(er.Attributes, ar)
		}
		rec.Elements = append(rec.Elements, er)
	}
	return rec
}

// subset rebuilds the subset through a Builder so that the restored
// value obeys the same invariants as a freshly parsed one
func (rec entryRecord) subset() (*schema.Subset, error) {
	b := schema.NewBuilder(true)

	for _, e := range rec.Entities {
		var decl *schema.EntityDecl
		if e.Internal {
			decl = schema.NewInternalEntity(e.Name, false, e.Value, e.Location.location())
		} else {
			decl = schema.NewExternalEntity(e.Name, false, e.PublicID, e.SystemID, e.Notation, e.Location.location())
		}
		b.AddEntity(decl)
	}

	for _, n := range rec.Notations {
		if err := b.AddNotation(schema.NewNotation(n.Name, n.PublicID, n.SystemID, n.Location.location())); err != nil {
			return nil, err
		}
	}

	for _, e := range rec.Elements {
		name := e.Name.key()
		if e.Declared && e.Content != nil {
			content := schema.ContentSpec{
				Kind:     schema.ContentKind(e.Content.Kind),
				Arity:    schema.Arity(e.Content.Arity),
				Children: particles(e.Content.Children),
			}
			for _, n := range e.Content.Names {
				content.Names = append(content.Names, n.key())
			}
			if _, err := b.DeclareElement(name, content, e.Location.location()); err != nil {
				return nil, err
			}
		}
		for _, a := range e.Attributes {
			var value *schema.DefaultValue
			if a.HasValue {
				segs := make([]schema.Segment, len(a.Value))
				for i, seg := range a.Value {
					segs[i] = schema.Segment{Text: seg.Text, Entity: seg.Entity}
				}
				value = schema.NewDefaultValue(segs...)
			}
			decl := schema.NewAttributeDecl(a.Name.key(), schema.AttributeType(a.Type), a.Enumeration, schema.AttributeDefault(a.Default), value, a.Location.location())
			b.AddAttribute(name, e.Location.location(), decl)
		}
	}

	for _, name := range rec.ReferencedPEs {
		b.ReferenceParameterEntity(name, false)
	}
	return b.Freeze(), nil
}
