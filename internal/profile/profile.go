package profile

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/genai"
)

// maxExampleValues caps how many distinct sample values a column profile keeps.
const maxExampleValues = 3

type Service struct {
	llmClient genai.LLMClient
}

type Config struct {
}

func NewService(llm genai.LLMClient, cfg Config) *Service {
	return &Service{
		llmClient: llm,
	}
}

// Params controls which columns get profiled and which sections are computed.
// An empty Sections map means every section is requested.
type Params struct {
	DatasetName      string
	Columns          []string
	Sections         map[string]bool
	KnowledgeContext string
}

func (s *Service) Profile(ctx context.Context, f *frame.Frame, params Params) (*DatasetProfile, error) {
	startTime := time.Now()

	if f == nil || f.NumCols() == 0 {
		return nil, &ErrInvalidInput{Msg: "cannot profile a dataset with no columns"}
	}

	selected := selectColumns(f, params.Columns)
	result := &DatasetProfile{Dataset: params.DatasetName, Rows: f.NumRows()}
	if len(selected) == 0 {
		zap.L().Info("no columns match the provided filters (--columns)")
		result.Columns = []*ColumnProfile{}
		return result, nil
	}

	zap.L().Info("starting dataset profiling",
		zap.String("dataset", params.DatasetName), zap.Int("columns", len(selected)))

	profiles := make([]*ColumnProfile, len(selected))
	var wg sync.WaitGroup
	errorChannel := make(chan error, len(selected)*2)

	for slot, colIdx := range selected {
		wg.Add(1)
		go func(slot int, col *frame.Column) {
			defer wg.Done()
			colLogPrefix := fmt.Sprintf("Column[%s.%s]", params.DatasetName, col.Name)

			if ctx.Err() != nil {
				errorChannel <- &ErrCancelled{Msg: colLogPrefix + " profiling", Err: ctx.Err()}
				return
			}

			prof := computeColumnStats(col, params.Sections)

			if s.llmClient != nil {
				// PII Check / Example Synthesis
				if isSectionRequested("examples", params.Sections) && len(prof.ExampleValues) > 0 {
					processedExamples, wasSynthesized, piiErr := s.llmClient.GenerateSyntheticExamples(ctx, col.Name, params.DatasetName, prof.DataType, prof.ExampleValues)
					if piiErr != nil {
						zap.L().Warn("failed to process example values with LLM, using original examples",
							zap.String("column", colLogPrefix), zap.Error(piiErr))
					} else {
						if wasSynthesized {
							zap.L().Info("using synthetic examples (PII detected/suspected)",
								zap.String("column", colLogPrefix))
						}
						prof.ExampleValues = processedExamples
					}
				}

				// Description Generation
				if isSectionRequested("description", params.Sections) && params.KnowledgeContext != "" {
					desc, descErr := withRetry(ctx, DefaultRetryOptions, func(ctx context.Context) (string, error) {
						d, err := s.llmClient.GenerateDescription(ctx, "column", col.Name, params.DatasetName, params.KnowledgeContext)
						if err != nil {
							return "", &ErrModelCall{Msg: fmt.Sprintf("generate description for %s", colLogPrefix), Err: err}
						}
						return d, nil
					})
					if descErr != nil {
						zap.L().Warn("failed to generate column description via LLM",
							zap.String("column", colLogPrefix), zap.Error(descErr))
					} else if desc != "" {
						prof.Description = desc
					}
				}
			}

			profiles[slot] = prof
		}(slot, &f.Columns[colIdx])
	}

	wg.Wait()
	close(errorChannel)

	var allErrors []error
	for err := range errorChannel {
		allErrors = append(allErrors, err)
	}
	if len(allErrors) > 0 {
		errorMessages := make([]string, len(allErrors))
		for i, e := range allErrors {
			errorMessages[i] = e.Error()
		}
		return nil, fmt.Errorf("encountered %d error(s) during dataset profiling:\n- %s",
			len(allErrors), strings.Join(errorMessages, "\n- "))
	}

	result.Columns = profiles

	if s.llmClient != nil && isSectionRequested("description", params.Sections) &&
		params.KnowledgeContext != "" && params.DatasetName != "" {
		desc, descErr := withRetry(ctx, DefaultRetryOptions, func(ctx context.Context) (string, error) {
			d, err := s.llmClient.GenerateDescription(ctx, "dataset", params.DatasetName, "", params.KnowledgeContext)
			if err != nil {
				return "", &ErrModelCall{Msg: fmt.Sprintf("generate description for dataset %s", params.DatasetName), Err: err}
			}
			return d, nil
		})
		if descErr != nil {
			zap.L().Warn("failed to generate dataset description via LLM",
				zap.String("dataset", params.DatasetName), zap.Error(descErr))
		} else if desc != "" {
			result.Description = desc
		}
	}

	zap.L().Info("dataset profiling completed",
		zap.Duration("elapsed", time.Since(startTime)), zap.Int("columns", len(result.Columns)))
	return result, nil
}

// computeColumnStats makes a single pass over the column values. Sections
// that were not requested are skipped entirely.
func computeColumnStats(col *frame.Column, sections map[string]bool) *ColumnProfile {
	prof := &ColumnProfile{
		Name:     col.Name,
		DataType: col.Type.String(),
		Rows:     int64(col.Len()),
	}

	needsDistinct := isSectionRequested("distinct_count", sections) || isSectionRequested("examples", sections)
	needsMinMax := isSectionRequested("min_max", sections) &&
		(col.Type == frame.Int32Type || col.Type == frame.Float32Type)

	var distinct map[string]struct{}
	if needsDistinct {
		distinct = make(map[string]struct{})
	}

	var (
		intMin, intMax     int32
		floatMin, floatMax float32
		haveNumeric        bool
	)

	for i := 0; i < col.Len(); i++ {
		v := col.Values[i]
		if v == nil {
			prof.NullCount++
			continue
		}

		if needsDistinct {
			formatted := frame.FormatValue(v, col.Type)
			if _, seen := distinct[formatted]; !seen {
				distinct[formatted] = struct{}{}
				if isSectionRequested("examples", sections) && len(prof.ExampleValues) < maxExampleValues {
					prof.ExampleValues = append(prof.ExampleValues, formatted)
				}
			}
		}

		if !needsMinMax {
			continue
		}
		switch col.Type {
		case frame.Int32Type:
			n, ok := v.(int32)
			if !ok {
				continue
			}
			if !haveNumeric || n < intMin {
				intMin = n
			}
			if !haveNumeric || n > intMax {
				intMax = n
			}
			haveNumeric = true
		case frame.Float32Type:
			n, ok := v.(float32)
			if !ok || math.IsNaN(float64(n)) {
				continue
			}
			if !haveNumeric || n < floatMin {
				floatMin = n
			}
			if !haveNumeric || n > floatMax {
				floatMax = n
			}
			haveNumeric = true
		}
	}

	if isSectionRequested("distinct_count", sections) {
		prof.DistinctCount = int64(len(distinct))
	}
	if !isSectionRequested("null_count", sections) {
		prof.NullCount = 0
	}
	if haveNumeric {
		switch col.Type {
		case frame.Int32Type:
			prof.Min = frame.FormatValue(intMin, col.Type)
			prof.Max = frame.FormatValue(intMax, col.Type)
		case frame.Float32Type:
			prof.Min = frame.FormatValue(floatMin, col.Type)
			prof.Max = frame.FormatValue(floatMax, col.Type)
		}
	}

	return prof
}

// selectColumns resolves the column filter to frame indices, preserving
// the frame's column order.
func selectColumns(f *frame.Frame, filter []string) []int {
	if len(filter) == 0 {
		indices := make([]int, f.NumCols())
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	allowed := make(map[string]bool)
	for _, name := range filter {
		allowed[name] = true
	}
	var indices []int
	for i := range f.Columns {
		if allowed[f.Columns[i].Name] {
			indices = append(indices, i)
		}
	}
	return indices
}

func isSectionRequested(section string, sections map[string]bool) bool {
	if len(sections) == 0 {
		return true
	}
	return sections[strings.ToLower(section)]
}

func FormatProfileAsText(p *DatasetProfile) string {
	if p == nil || len(p.Columns) == 0 {
		return "No columns profiled.\n"
	}
	var buffer bytes.Buffer
	buffer.WriteString(fmt.Sprintf("--- Dataset: %s (%d rows, %d columns) ---\n", p.Dataset, p.Rows, len(p.Columns)))
	if p.Description != "" {
		buffer.WriteString(fmt.Sprintf("  [Dataset Description]: %s\n", strings.TrimSpace(p.Description)))
	}
	for _, col := range p.Columns {
		buffer.WriteString(fmt.Sprintf("\n  Column: %s (%s)\n", col.Name, col.DataType))
		buffer.WriteString(fmt.Sprintf("  Nulls: %d | Distinct: %d\n", col.NullCount, col.DistinctCount))
		if col.Min != "" || col.Max != "" {
			buffer.WriteString(fmt.Sprintf("  Range: %s .. %s\n", col.Min, col.Max))
		}
		if len(col.ExampleValues) > 0 {
			buffer.WriteString(fmt.Sprintf("  Examples: [%s]\n", strings.Join(col.ExampleValues, ", ")))
		}
		if col.Description != "" {
			buffer.WriteString(fmt.Sprintf("  Description: %s\n", strings.TrimSpace(col.Description)))
		}
	}
	return buffer.String()
}
