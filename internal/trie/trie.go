// Package trie implements a byte-wise prefix tree over knowledge-graph
// entity and relation strings, with a gzip-compressed on-disk format.
// The index keeps entity lookup and prefix completion off the Neo4j hot
// path during batch verification runs.
package trie

import (
	"sort"
)

type node struct {
	children map[byte]*node
	terminal bool
}

// Trie is a set of strings with prefix search. Not safe for concurrent
// mutation; concurrent reads are fine once built.
type Trie struct {
	root *node
	size int
}

// New builds a trie from the given keys. Duplicates are collapsed.
func New(keys []string) *Trie {
	t := &Trie{root: &node{}}
	for _, k := range keys {
		t.Add(k)
	}
	return t
}

// Add inserts a key. The empty string is a valid key (the root terminal).
func (t *Trie) Add(key string) {
	n := t.root
	for i := 0; i < len(key); i++ {
		c := key[i]
		if n.children == nil {
			n.children = make(map[byte]*node)
		}
		child, ok := n.children[c]
		if !ok {
			child = &node{}
			n.children[c] = child
		}
		n = child
	}
	if !n.terminal {
		n.terminal = true
		t.size++
	}
}

// Contains reports whether key is in the set. Matching is byte-exact.
func (t *Trie) Contains(key string) bool {
	n := t.descend(key)
	return n != nil && n.terminal
}

// HasPrefix reports whether any stored key starts with prefix.
func (t *Trie) HasPrefix(prefix string) bool {
	return t.descend(prefix) != nil
}

// PrefixSearch returns up to limit keys starting with prefix, in sorted
// order. limit <= 0 means no limit.
func (t *Trie) PrefixSearch(prefix string, limit int) []string {
	n := t.descend(prefix)
	if n == nil {
		return nil
	}

	var out []string
	buf := append([]byte(nil), prefix...)
	collect(n, buf, limit, &out)
	return out
}

// Walk visits every key in sorted order. Returning false stops the walk.
func (t *Trie) Walk(fn func(key string) bool) {
	walk(t.root, nil, fn)
}

// Keys returns all stored keys in sorted order.
func (t *Trie) Keys() []string {
	out := make([]string, 0, t.size)
	t.Walk(func(key string) bool {
		out = append(out, key)
		return true
	})
	return out
}

// Len returns the number of stored keys.
func (t *Trie) Len() int {
	return t.size
}

func (t *Trie) descend(key string) *node {
	n := t.root
	for i := 0; i < len(key); i++ {
		child, ok := n.children[key[i]]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

func collect(n *node, buf []byte, limit int, out *[]string) bool {
	if limit > 0 && len(*out) >= limit {
		return false
	}
	if n.terminal {
		*out = append(*out, string(buf))
	}
	for _, c := range sortedChildren(n) {
		if !collect(n.children[c], append(buf, c), limit, out) {
			return false
		}
	}
	return true
}

func walk(n *node, buf []byte, fn func(string) bool) bool {
	if n.terminal && !fn(string(buf)) {
		return false
	}
	for _, c := range sortedChildren(n) {
		if !walk(n.children[c], append(buf, c), fn) {
			return false
		}
	}
	return true
}

func sortedChildren(n *node) []byte {
	if len(n.children) == 0 {
		return nil
	}
	cs := make([]byte, 0, len(n.children))
	for c := range n.children {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	return cs
}
