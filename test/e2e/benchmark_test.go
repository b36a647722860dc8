package e2e_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcncl/jyt/internal/codec"
	"github.com/mcncl/jyt/internal/converter"
)

// generateNestedJSON creates a deeply nested JSON structure for benchmarking
func generateNestedJSON(depth int, width int) map[string]interface{} {
	if depth <= 0 {
		return map[string]interface{}{
			"leaf_value": "data",
			"timestamp":  time.Now().Format(time.RFC3339),
			"count":      rand.Intn(100),
			"enabled":    rand.Intn(2) == 1,
		}
	}

	result := make(map[string]interface{})

	for i := 0; i < width; i++ {
		key := fmt.Sprintf("nested_%d_%d", depth, i)
		result[key] = generateNestedJSON(depth-1, width)
	}

	return result
}

// generateWideJSON creates a JSON object with many fields at the same level
func generateWideJSON(fieldCount int) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < fieldCount; i++ {
		// Mix different types of fields
		switch i % 5 {
		case 0:
			result[fmt.Sprintf("string_field_%d", i)] = fmt.Sprintf("value_%d", i)
		case 1:
			result[fmt.Sprintf("int_field_%d", i)] = i
		case 2:
			result[fmt.Sprintf("bool_field_%d", i)] = i%2 == 0
		case 3:
			result[fmt.Sprintf("float_field_%d", i)] = float64(i) + 0.5
		case 4:
			// Nested object
			result[fmt.Sprintf("object_field_%d", i)] = map[string]interface{}{
				"id":    i,
				"name":  fmt.Sprintf("Object %d", i),
				"value": i * 10,
			}
		}
	}

	return result
}

// generateArrayJSON creates a table holding a large array of objects
func generateArrayJSON(size int) map[string]interface{} {
	array := make([]map[string]interface{}, size)
	for i := 0; i < size; i++ {
		array[i] = map[string]interface{}{
			"id":       i,
			"name":     fmt.Sprintf("Item %d", i),
			"value":    rand.Float64() * 100,
			"active":   i%2 == 0,
			"category": fmt.Sprintf("Category %d", i%5),
		}
	}
	return map[string]interface{}{"items": array}
}

// benchmarkConversions converts doc from JSON into every other format, and
// back, once per iteration
func benchmarkConversions(b *testing.B, doc map[string]interface{}) {
	jsonData, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(b, err)
	text := string(jsonData)

	yamlText, err := converter.ToYAML(codec.JSON, text)
	require.NoError(b, err)
	tomlText, err := converter.ToTOML(codec.JSON, text)
	require.NoError(b, err)

	sources := map[codec.Format]string{
		codec.JSON: text,
		codec.YAML: yamlText,
		codec.TOML: tomlText,
	}

	for _, from := range codec.Formats {
		for _, to := range codec.Formats {
			if from == to {
				continue
			}
			b.Run(fmt.Sprintf("%sTo%s", from, to), func(b *testing.B) {
				input := sources[from]
				b.SetBytes(int64(len(input)))
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := converter.Convert(from, input, to)
					if err != nil {
						b.Fatalf("convert %s to %s: %v", from, to, err)
					}
				}
			})
		}
	}
}

// BenchmarkDeepNesting benchmarks performance with deeply nested documents
func BenchmarkDeepNesting(b *testing.B) {
	depths := []struct {
		name  string
		depth int
		width int
	}{
		{"Depth3Width3", 3, 3},   // Moderate nesting
		{"Depth5Width2", 5, 2},   // Deep nesting
		{"Depth2Width10", 2, 10}, // Wide but shallow
	}

	for _, depth := range depths {
		b.Run(depth.name, func(b *testing.B) {
			benchmarkConversions(b, generateNestedJSON(depth.depth, depth.width))
		})
	}
}

// BenchmarkWideStructures benchmarks performance with many fields per table
func BenchmarkWideStructures(b *testing.B) {
	widths := []struct {
		name       string
		fieldCount int
	}{
		{"Fields10", 10},
		{"Fields100", 100},
		{"Fields1000", 1000},
	}

	for _, width := range widths {
		b.Run(width.name, func(b *testing.B) {
			benchmarkConversions(b, generateWideJSON(width.fieldCount))
		})
	}
}

// BenchmarkArrayProcessing benchmarks performance with large arrays of tables
func BenchmarkArrayProcessing(b *testing.B) {
	// Skip in short mode
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	sizes := []struct {
		name      string
		arraySize int
	}{
		{"Array100", 100},
		{"Array1000", 1000},
		{"Array5000", 5000},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			benchmarkConversions(b, generateArrayJSON(size.arraySize))
		})
	}
}
