package s0_data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/wonny/multibagger/internal/contracts"
)

// BatchFile is the JSON layout of an offline screening batch
type BatchFile struct {
	Entities   []contracts.Entity                `json:"entities"`
	Statements []contracts.RawStatement          `json:"statements"`
	Valuations map[string]contracts.Metric       `json:"valuations"`
	Timing     map[string]contracts.TimingInputs `json:"timing"`
	Prices     map[string][]contracts.PriceBar   `json:"prices"`
	Watchlist  []contracts.CandidateListing      `json:"watchlist"`
}

// FileSource serves one already-resident batch to every collaborator interface
type FileSource struct {
	batch BatchFile
}

// LoadBatchFile reads and decodes a batch file. Numbers inside statements
// are kept as json.Number so the Normalizer sees the provider's exact text.
func LoadBatchFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBatch(data)
}

// ParseBatch decodes a batch document
func ParseBatch(data []byte) (*FileSource, error) {
	var batch BatchFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return NewFileSource(batch), nil
}

// NewFileSource wraps an in-memory batch
func NewFileSource(batch BatchFile) *FileSource {
	return &FileSource{batch: batch}
}

// Statements implements contracts.StatementSource
func (s *FileSource) Statements(_ context.Context) ([]contracts.RawStatement, error) {
	return s.batch.Statements, nil
}

// Entities implements contracts.EntitySource
func (s *FileSource) Entities(_ context.Context) ([]contracts.Entity, error) {
	out := make([]contracts.Entity, len(s.batch.Entities))
	copy(out, s.batch.Entities)
	return out, nil
}

// Valuations implements contracts.ValuationSource
func (s *FileSource) Valuations(_ context.Context) (map[string]contracts.Metric, error) {
	out := make(map[string]contracts.Metric, len(s.batch.Valuations))
	for id, m := range s.batch.Valuations {
		out[id] = m
	}
	return out, nil
}

// Watchlist implements contracts.WatchlistSource
func (s *FileSource) Watchlist(_ context.Context) ([]contracts.CandidateListing, error) {
	out := make([]contracts.CandidateListing, len(s.batch.Watchlist))
	copy(out, s.batch.Watchlist)
	return out, nil
}

// Timing implements contracts.TimingSource for precomputed inputs
func (s *FileSource) Timing(_ context.Context, entityID string) (*contracts.TimingInputs, error) {
	t, ok := s.batch.Timing[entityID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// Bars implements contracts.PriceSource, oldest first
func (s *FileSource) Bars(_ context.Context, entityID string) ([]contracts.PriceBar, error) {
	bars := make([]contracts.PriceBar, len(s.batch.Prices[entityID]))
	copy(bars, s.batch.Prices[entityID])
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}

// HasPrices reports whether the batch carries any price bars
func (s *FileSource) HasPrices() bool {
	return len(s.batch.Prices) > 0
}
