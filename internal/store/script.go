package store

// Script is one encoded scene-script buffer.
type Script struct {
	ID   string
	Body []byte
}

// ScriptStore maps identifiers to encoded scripts.
type ScriptStore struct {
	*Store[Script]
}

// NewScriptStore returns an empty ScriptStore.
func NewScriptStore() *ScriptStore {
	return &ScriptStore{Store: New[Script]()}
}

// Put copies id and body into a new entry, replacing any previous script
// stored under the same identifier.
func (s *ScriptStore) Put(id, body []byte) *Script {
	sc := &Script{
		ID:   string(id),
		Body: append([]byte(nil), body...),
	}
	s.Store.Put(sc.ID, sc)
	return sc
}

// Body returns the encoded bytes stored under id.
func (s *ScriptStore) Body(id string) ([]byte, bool) {
	sc, ok := s.Get(id)
	if !ok {
		return nil, false
	}
	return sc.Body, true
}
