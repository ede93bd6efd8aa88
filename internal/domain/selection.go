package domain

import "sort"

// Selection is the set of options currently chosen for one question. It is a
// value: Pick returns a new Selection and never mutates the receiver.
// The zero Selection means "no selection".
type Selection struct {
	multiple bool
	allowed  map[OptionKey]struct{}
	chosen   map[OptionKey]bool
}

// NewSelection starts an empty selection bound to the question's presented keys.
func NewSelection(q Question) Selection {
	allowed := make(map[OptionKey]struct{}, len(q.Options))
	for _, opt := range q.Options {
		allowed[opt.Key] = struct{}{}
	}
	return Selection{
		multiple: q.MultipleCorrect,
		allowed:  allowed,
		chosen:   map[OptionKey]bool{},
	}
}

// Pick applies a user pick. In single mode the whole mapping is replaced so at
// most one key is ever chosen; in multi mode the key is toggled.
func (s Selection) Pick(key OptionKey) (Selection, error) {
	if _, ok := s.allowed[key]; !ok {
		return s, ErrUnknownOption
	}
	next := Selection{multiple: s.multiple, allowed: s.allowed}
	if !s.multiple {
		next.chosen = map[OptionKey]bool{key: true}
		return next, nil
	}
	next.chosen = make(map[OptionKey]bool, len(s.chosen)+1)
	for k, v := range s.chosen {
		if v {
			next.chosen[k] = true
		}
	}
	if next.chosen[key] {
		delete(next.chosen, key)
	} else {
		next.chosen[key] = true
	}
	return next, nil
}

// Has reports whether key is chosen.
func (s Selection) Has(key OptionKey) bool {
	return s.chosen[key]
}

// Keys returns the chosen keys in key order.
func (s Selection) Keys() []OptionKey {
	keys := make([]OptionKey, 0, len(s.chosen))
	for k, v := range s.chosen {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// IsEmpty reports whether nothing is chosen.
func (s Selection) IsEmpty() bool {
	for _, v := range s.chosen {
		if v {
			return false
		}
	}
	return true
}
