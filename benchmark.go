package main

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrDatasetMissing signals a run attempted before data generation.
var ErrDatasetMissing = errors.New("dataset not found")

// ExecutionRecord captures one query execution. A failed execution is a
// value carrying the error text, not a thrown signal; the aggregator
// consumes both variants uniformly.
type ExecutionRecord struct {
	QueryNumber     int     `json:"query_number"`
	Iteration       int     `json:"iteration"`
	ExecutionTimeMS float64 `json:"execution_time_ms"`
	RowCount        int     `json:"row_count"`
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`
	Query           string  `json:"query,omitempty"`
	Plan            string  `json:"plan,omitempty"`
}

// Benchmark executes the configured {query x iteration} matrix against a
// fresh in-memory engine instance restored from the persisted dataset.
type Benchmark struct {
	config       BenchmarkConfig
	results      []ExecutionRecord
	open         func() (Engine, error)
	capturePlans bool
}

func NewBenchmark(config BenchmarkConfig) *Benchmark {
	return &Benchmark{config: config, open: OpenMemoryEngine}
}

// CapturePlans makes Run record the engine's textual plan for each query.
func (b *Benchmark) CapturePlans(enabled bool) {
	b.capturePlans = enabled
}

// Results returns the records of the last Run in execution order.
func (b *Benchmark) Results() []ExecutionRecord {
	return b.results
}

func (b *Benchmark) loadData(eng Engine) error {
	dbPath := DatasetPath(b.config)
	alias := "tpch_source"
	if err := eng.Exec(fmt.Sprintf("ATTACH '%v' AS %v;", EscapeSQLString(dbPath), alias)); err != nil {
		return fmt.Errorf("failed to attach dataset %v: %w", dbPath, err)
	}
	if err := eng.Exec(fmt.Sprintf("COPY FROM DATABASE %v TO memory;", alias)); err != nil {
		return fmt.Errorf("failed to copy dataset into memory: %w", err)
	}
	if err := eng.Exec(fmt.Sprintf("DETACH %v;", alias)); err != nil {
		return fmt.Errorf("failed to detach dataset alias: %w", err)
	}
	return nil
}

// executeQuery looks up the canonical query text from the extension catalog,
// executes it and measures wall-clock time until the full result set is
// materialized. Any failure is folded into the returned record.
func (b *Benchmark) executeQuery(eng Engine, queryNumber, iteration int) ExecutionRecord {
	record := ExecutionRecord{QueryNumber: queryNumber, Iteration: iteration}

	querySQL, ok, err := eng.QueryValue(fmt.Sprintf("SELECT query FROM tpch_queries() WHERE query_nr = %v;", queryNumber))
	if err != nil {
		record.Error = err.Error()
		return record
	}
	if !ok {
		record.Error = fmt.Sprintf("query %v not found in tpch_queries()", queryNumber)
		return record
	}
	record.Query = querySQL

	if b.capturePlans {
		plan, err := eng.Explain(querySQL)
		if err != nil {
			Logger.Warnf("failed to capture plan for query %v: %v", queryNumber, err)
		} else {
			record.Plan = plan
		}
	}

	start := time.Now()
	rowCount, err := eng.QueryAll(querySQL)
	elapsed := time.Since(start)
	if err != nil {
		record.Error = err.Error()
		return record
	}

	record.ExecutionTimeMS = float64(elapsed) / float64(time.Millisecond)
	record.RowCount = rowCount
	record.Success = true
	return record
}

// Run executes every configured query for the configured number of
// iterations, in order, and returns one record per execution. Records appear
// in the exact configured order: iteration 1 of a query always precedes
// iteration 2. A single query failure never aborts the run; precondition and
// load failures do.
func (b *Benchmark) Run() ([]ExecutionRecord, error) {
	dbPath := DatasetPath(b.config)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v, run data generation first", ErrDatasetMissing, dbPath)
	} else if err != nil {
		return nil, err
	}

	b.results = nil

	eng, err := b.open()
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	explicitPath, dataDir := extensionSource(b.config)
	if err := LoadTPCHExtension(eng, explicitPath, dataDir); err != nil {
		return nil, err
	}
	if err := b.loadData(eng); err != nil {
		return nil, err
	}

	for _, queryNumber := range b.config.Queries {
		for iteration := 1; iteration <= b.config.Iterations; iteration++ {
			record := b.executeQuery(eng, queryNumber, iteration)
			if record.Success {
				Logger.Infof("query %v iteration %v/%v: %.2fms, %v rows",
					queryNumber, iteration, b.config.Iterations, record.ExecutionTimeMS, record.RowCount)
			} else {
				Logger.Warnf("query %v iteration %v/%v failed: %v",
					queryNumber, iteration, b.config.Iterations, record.Error)
			}
			b.results = append(b.results, record)
		}
	}

	return b.results, nil
}
