package domain

// Match is one hit returned by the similarity index. Score is a distance in
// [0,1]; lower means closer.
type Match struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"chunk_text"`
}

// PartitionResult is the outcome of querying a single partition. Err is set
// when the sub-query failed; Matches is then empty.
type PartitionResult struct {
	PartitionID string
	Matches     []Match
	Err         error
}

func (r PartitionResult) OK() bool {
	return r.Err == nil
}

// ChunkCandidate is a retrieved chunk waiting to be reranked.
type ChunkCandidate struct {
	ID          string  `json:"id"`
	DocumentID  string  `json:"document_id"`
	Page        int     `json:"page"`
	ChunkIndex  int     `json:"chunk_index"`
	Text        string  `json:"text"`
	VectorScore float64 `json:"vector_score"`
}

func CandidateFromMatch(m Match) ChunkCandidate {
	return ChunkCandidate{
		ID:          m.ID,
		DocumentID:  m.DocumentID,
		Page:        m.Page,
		ChunkIndex:  m.ChunkIndex,
		Text:        m.Text,
		VectorScore: m.Score,
	}
}

// CandidatePool holds exactly one candidate per id. A later Put with an
// existing id replaces the value but keeps the position of the first
// insertion, so iteration order is first-seen order.
type CandidatePool struct {
	order []string
	byID  map[string]ChunkCandidate
}

func NewCandidatePool(capacity int) *CandidatePool {
	if capacity < 0 {
		capacity = 0
	}
	return &CandidatePool{
		order: make([]string, 0, capacity),
		byID:  make(map[string]ChunkCandidate, capacity),
	}
}

func (p *CandidatePool) Put(c ChunkCandidate) {
	if p.byID == nil {
		p.byID = make(map[string]ChunkCandidate)
	}
	if _, exists := p.byID[c.ID]; !exists {
		p.order = append(p.order, c.ID)
	}
	p.byID[c.ID] = c
}

func (p *CandidatePool) Get(id string) (ChunkCandidate, bool) {
	c, ok := p.byID[id]
	return c, ok
}

func (p *CandidatePool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Candidates returns the pool content in first-seen order.
func (p *CandidatePool) Candidates() []ChunkCandidate {
	if p == nil {
		return nil
	}
	out := make([]ChunkCandidate, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}

// RankedChunk is one entry of a reranked result.
type RankedChunk struct {
	ID          string  `json:"id"`
	DocumentID  string  `json:"document_id"`
	Page        int     `json:"page"`
	Text        string  `json:"text"`
	HybridScore float64 `json:"hybrid_score"`
}

// SourceChunk is the view of a ranked chunk handed to the extractor.
type SourceChunk struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

func SourceChunks(ranked []RankedChunk) []SourceChunk {
	out := make([]SourceChunk, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, SourceChunk{Page: r.Page, Text: r.Text})
	}
	return out
}
