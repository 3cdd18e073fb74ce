package retrokit

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Processor handles the overall service proxy generation process.
type Processor struct {
	parser  *Parser
	scanner *Scanner
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		parser:  NewParser(),
		scanner: NewScanner(),
	}
}

// ProcessFiles generates proxies for the scan declarations of each file.
func (p *Processor) ProcessFiles(files []string) error {
	for _, filename := range files {
		if err := p.processFile(filename); err != nil {
			return err
		}
	}
	return nil
}

// Inspect returns the services each scan declaration of filename selects without generating code.
func (p *Processor) Inspect(filename string) ([]*ScanResult, error) {
	_, results, err := p.inspect(filename)
	return results, err
}

func (p *Processor) inspect(filename string) (*MetaData, []*ScanResult, error) {
	metaData, scans, err := p.parser.ParseFile(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("parse file %s: %w", filename, err)
	}

	if len(scans) == 0 {
		return metaData, nil, nil
	}

	slog.Info("Found scan declarations", "file", filename, "count", len(scans))

	results := make([]*ScanResult, 0, len(scans))
	for _, scan := range scans {
		services, err := p.scanner.Scan(metaData.Dir, scan.Patterns...)
		if err != nil {
			return nil, nil, fmt.Errorf("scan %s for %s: %w", strings.Join(scan.Patterns, ", "), scan.FuncName, err)
		}

		if len(services) == 0 {
			slog.Warn("No services found", "func", scan.FuncName, "patterns", scan.Patterns)
		}
		slog.Debug("Scanned services", "func", scan.FuncName, "count", len(services))

		results = append(results, &ScanResult{Directive: scan, Services: services})
	}

	return metaData, results, nil
}

// processFile processes a single Go file.
func (p *Processor) processFile(filename string) error {
	slog.Debug("Processing file", "file", filename)

	metaData, results, err := p.inspect(filename)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		return nil
	}

	outputFileName := outputFileName(filename)
	slog.Debug("outputFileName", "outputFileName", outputFileName)

	var buf bytes.Buffer
	if err := Generate(&buf, outputFileName, metaData, results); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if err := os.WriteFile(outputFileName, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write file %s: %w", outputFileName, err)
	}

	slog.Info("Generated service proxies", "file", outputFileName)

	return nil
}

func outputFileName(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + outputSuffix + ext
}

// isGeneratedPos reports whether a "file:line:col" position points into a generated file.
func isGeneratedPos(pos string) bool {
	file := pos
	for range 2 {
		i := strings.LastIndexByte(file, ':')
		if i < 0 || strings.ContainsAny(file[i+1:], `/\`) {
			break
		}
		file = file[:i]
	}
	return strings.HasSuffix(file, outputSuffix+".go")
}
