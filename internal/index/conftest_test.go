package index

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
	"strings"

	"github.com/rchow93/AgentRAG/internal/db"
)

// mockStore is an in-memory stand-in for the Redis store. KNN search is
// simulated by returning entries in the order queued via searchEntries,
// so tests control ranking explicitly.
type mockStore struct {
	hashes  map[string]map[string]string
	indexes map[string]*db.IndexDefinition

	searchEntries []db.SearchEntry
	searchErr     error

	hsetMultiErr error
	scanErr      error

	createIndexCalls int
	dropIndexCalls   int
	delKeys          []string
	batches          [][]string
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]*db.IndexDefinition),
	}
}

// HSetMulti is all-or-nothing, mirroring the MULTI/EXEC transaction of the
// real store: on failure no hash from the batch becomes visible.
func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if m.hsetMultiErr != nil {
		return m.hsetMultiErr
	}
	keys := make([]string, 0, len(items))
	for _, it := range items {
		cp := make(map[string]string, len(it.Fields))
		for k, v := range it.Fields {
			cp[k] = v
		}
		m.hashes[it.Key] = cp
		keys = append(keys, it.Key)
	}
	m.batches = append(m.batches, keys)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *mockStore) IndexExists(_ context.Context, name string) (bool, error) {
	_, ok := m.indexes[name]
	return ok, nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	fields, ok := m.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	return fields, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		fields, err := m.HGetAll(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = fields
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	m.delKeys = append(m.delKeys, key)
	return nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if err := m.Del(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createIndexCalls++
	if _, ok := m.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = def
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, name string) error {
	m.dropIndexCalls++
	if _, ok := m.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(m.indexes, name)
	return nil
}

func (m *mockStore) SearchCount(_ context.Context, index, _ string) (int, error) {
	def, ok := m.indexes[index]
	if !ok {
		return 0, db.ErrIndexNotFound
	}
	n := 0
	for _, prefix := range def.Prefixes {
		for k := range m.hashes {
			if strings.HasPrefix(k, prefix) {
				n++
			}
		}
	}
	return n, nil
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	def, ok := m.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	entries := m.searchEntries
	if entries == nil {
		entries = m.knnFromHashes(def, q.Vector)
	}
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// knnFromHashes performs a real similarity search over the stored chunk
// hashes scoped to the index's key prefixes, so tests can exercise the full
// upsert-then-query path instead of replaying canned entries.
func (m *mockStore) knnFromHashes(def *db.IndexDefinition, query []float32) []db.SearchEntry {
	var entries []db.SearchEntry
	for _, prefix := range def.Prefixes {
		for key, fields := range m.hashes {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			vec := bytesToVector(fields["vector"])
			cp := make(map[string]string, len(fields))
			for k, v := range fields {
				cp[k] = v
			}
			entries = append(entries, db.SearchEntry{
				Key:    key,
				Score:  cosineSimilarity(query, vec),
				Fields: cp,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries
}

func bytesToVector(s string) []float32 {
	b := []byte(s)
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
