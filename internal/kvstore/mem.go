package kvstore

// memBackend is the fallback medium when the database file cannot be
// opened, and the default for sessions that never set a store path.
// Contents are lost when the process exits.
type memBackend struct {
	namespaces map[string]map[string]record
}

func newMemBackend() *memBackend {
	return &memBackend{namespaces: make(map[string]map[string]record)}
}

func (m *memBackend) list(ns string) ([]record, error) {
	rows := m.namespaces[ns]
	recs := make([]record, 0, len(rows))
	for _, rec := range rows {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (m *memBackend) put(ns string, rec record) error {
	rows, ok := m.namespaces[ns]
	if !ok {
		rows = make(map[string]record)
		m.namespaces[ns] = rows
	}
	rows[rec.ID] = rec
	return nil
}

func (m *memBackend) delete(ns, id string) error {
	delete(m.namespaces[ns], id)
	return nil
}

func (m *memBackend) clear(ns string) error {
	delete(m.namespaces, ns)
	return nil
}

func (m *memBackend) size() (int64, error) {
	var used int64
	for _, rows := range m.namespaces {
		for id, rec := range rows {
			used += int64(len(id) + len(rec.Payload))
		}
	}
	return used, nil
}

func (m *memBackend) close() error { return nil }
