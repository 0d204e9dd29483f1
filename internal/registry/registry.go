package registry

// Registry is an append-only bidirectional map between characters and dense ids.
// Ids are handed out in first-seen order starting at 0. It is not safe for
// concurrent writers; the id order is part of its output.
type Registry struct {
	ids   map[rune]int
	chars []rune
}

func New() *Registry { return &Registry{ids: make(map[rune]int)} }

// Assign returns the id of ch, allocating the next id if ch is new.
func (r *Registry) Assign(ch rune) int {
	if id, ok := r.ids[ch]; ok {
		return id
	}
	id := len(r.chars)
	r.ids[ch] = id
	r.chars = append(r.chars, ch)
	return id
}

func (r *Registry) IDOf(ch rune) (int, bool) {
	id, ok := r.ids[ch]
	return id, ok
}

func (r *Registry) CharacterOf(id int) (rune, bool) {
	if id < 0 || id >= len(r.chars) {
		return 0, false
	}
	return r.chars[id], true
}

func (r *Registry) Size() int { return len(r.chars) }

// Characters returns the registered characters indexed by id.
func (r *Registry) Characters() []rune {
	return append([]rune(nil), r.chars...)
}
