package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rchow93/AgentRAG/internal/db"
	"github.com/rchow93/AgentRAG/internal/domain/chunk"
	domcol "github.com/rchow93/AgentRAG/internal/domain/collection"
)

// Collection metadata hash fields.
const (
	fieldName       = "name"
	fieldModel      = "embedding_model"
	fieldVectorDim  = "vector_dim"
	fieldChunkCount = "chunk_count"
	fieldCreatedAt  = "created_at"
	fieldRevision   = "revision"
)

// Chunk hash fields. "vector" doubles as the FT schema attribute; "seq" is
// the global insertion sequence used for deterministic tie-breaking.
const (
	fieldText     = "text"
	fieldSource   = "source"
	fieldPosition = "position"
	fieldSeq      = "seq"
	fieldVector   = "vector"
)

func collectionToHash(c domcol.Collection) map[string]string {
	return map[string]string{
		fieldName:       c.Name(),
		fieldModel:      c.EmbeddingModel(),
		fieldVectorDim:  strconv.Itoa(c.VectorDim()),
		fieldChunkCount: strconv.Itoa(c.ChunkCount()),
		fieldCreatedAt:  strconv.FormatInt(c.CreatedAt(), 10),
		fieldRevision:   strconv.Itoa(c.Revision()),
	}
}

func collectionFromHash(m map[string]string) (domcol.Collection, error) {
	name := m[fieldName]
	if name == "" {
		return domcol.Collection{}, fmt.Errorf("collection hash missing %q", fieldName)
	}
	dim, err := strconv.Atoi(m[fieldVectorDim])
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("collection %s: parse %s: %w", name, fieldVectorDim, err)
	}
	count, _ := strconv.Atoi(m[fieldChunkCount])
	createdAt, _ := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	revision, _ := strconv.Atoi(m[fieldRevision])

	return domcol.Reconstruct(name, m[fieldModel], dim, count, createdAt, revision), nil
}

func chunkToHash(c *chunk.Chunk, seq int) map[string]string {
	return map[string]string{
		fieldText:     c.Text(),
		fieldSource:   c.Source(),
		fieldPosition: strconv.Itoa(c.Position()),
		fieldSeq:      strconv.Itoa(seq),
		fieldVector:   vectorToBytes(c.Vector()),
	}
}

type hit struct {
	id       string
	text     string
	source   string
	position int
	seq      int
	score    float64
}

func entryToHit(e db.SearchEntry, chunkPrefix string) hit {
	position, _ := strconv.Atoi(e.Fields[fieldPosition])
	seq, _ := strconv.Atoi(e.Fields[fieldSeq])
	return hit{
		id:       strings.TrimPrefix(e.Key, chunkPrefix),
		text:     e.Fields[fieldText],
		source:   e.Fields[fieldSource],
		position: position,
		seq:      seq,
		score:    e.Score,
	}
}

// vectorToBytes encodes a vector as the little-endian float32 byte string
// RediSearch expects in hash fields.
func vectorToBytes(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}
