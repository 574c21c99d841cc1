package match

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/iksnae/practice-reconcile/internal"
)

// Collision records a variant claimed by two different clients. The first
// registered client keeps the key.
type Collision struct {
	Key       string `json:"key" yaml:"key"`
	KeptID    string `json:"kept_id" yaml:"kept_id"`
	DroppedID string `json:"dropped_id" yaml:"dropped_id"`
}

type surnameEntry struct {
	surname  string
	clientID string
}

// Index maps every normalized name variant to a client id. It is built
// fresh for each run and never persisted.
type Index struct {
	keys       map[string]string
	names      map[string]string
	surnames   []surnameEntry
	collisions []Collision
}

// BuildIndex registers the variants of every client in input order.
// For each client: the full name, every stored alias, first+last and
// last+first with middle tokens dropped, and for three-token names the
// middle-dropped two-token form.
func BuildIndex(clients []internal.ClientIdentity) *Index {
	idx := &Index{
		keys:  make(map[string]string, len(clients)*3),
		names: make(map[string]string, len(clients)),
	}
	seenSurname := make(map[surnameEntry]bool)

	for _, c := range clients {
		if c.ID == "" {
			continue
		}
		if _, ok := idx.names[c.ID]; !ok {
			idx.names[c.ID] = c.CanonicalName
		}

		for _, key := range clientVariants(c) {
			owner, exists := idx.keys[key]
			switch {
			case !exists:
				idx.keys[key] = c.ID
			case owner != c.ID:
				idx.collisions = append(idx.collisions, Collision{Key: key, KeptID: owner, DroppedID: c.ID})
			}
		}

		for _, name := range append([]string{c.CanonicalName}, c.NameVariants...) {
			tokens := Tokens(name)
			if len(tokens) < 2 {
				continue
			}
			entry := surnameEntry{surname: tokens[len(tokens)-1], clientID: c.ID}
			if !seenSurname[entry] {
				seenSurname[entry] = true
				idx.surnames = append(idx.surnames, entry)
			}
		}
	}

	return idx
}

// clientVariants returns the normalized, de-duplicated keys for one client
func clientVariants(c internal.ClientIdentity) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(key string) {
		if key != "" && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}

	for _, name := range append([]string{c.CanonicalName}, c.NameVariants...) {
		tokens := Tokens(name)
		if len(tokens) == 0 {
			continue
		}
		add(Normalize(name))
		if fl, ok := firstLast(tokens); ok {
			add(fl)
			add(tokens[len(tokens)-1] + " " + tokens[0])
		}
		if len(tokens) == 3 {
			add(tokens[0] + " " + tokens[2])
		}
	}
	return out
}

// Lookup returns the client id registered for an already-normalized key
func (idx *Index) Lookup(key string) (string, bool) {
	id, ok := idx.keys[key]
	return id, ok
}

// Len returns the number of registered keys
func (idx *Index) Len() int {
	return len(idx.keys)
}

// Clients returns the number of distinct clients indexed
func (idx *Index) Clients() int {
	return len(idx.names)
}

// Name returns the canonical name of a client id
func (idx *Index) Name(id string) string {
	return idx.names[id]
}

// Keys returns every key in sorted order
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.keys))
	for k := range idx.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Collisions returns the recorded key collisions in registration order
func (idx *Index) Collisions() []Collision {
	out := make([]Collision, len(idx.collisions))
	copy(out, idx.collisions)
	return out
}

// Fingerprint hashes the sorted key/id pairs. Two indices built from the
// same client list have the same fingerprint.
func (idx *Index) Fingerprint() string {
	h := sha256.New()
	for _, k := range idx.Keys() {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(idx.keys[k]))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
