package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"slidemeta/contracts"
	"slidemeta/files_manager"
	"slidemeta/metasource"
	"slidemeta/report"
	"slidemeta/slide_reader"
)

type InputFlags = contracts.InputFlags

func main() {
	inputRootDir := flag.String("input", "", "Input directory containing slide files")
	outputPath := flag.String("out", "", "Output JSONL file (default stdout)")
	reportPath := flag.String("report", "", "Optional PDF summary report")
	backend := flag.String("backend", "auto", "Metadata backend: tiff, vips, magick or auto")
	mpp := flag.Float64("mpp", 0, "Target resolution in microns per pixel")
	levelFlag := flag.Int("level", 0, "Explicit pyramid level")
	tileExtent := flag.String("tile", "512", "Tile size, W or W,H")
	stride := flag.String("stride", "512", "Tiling stride, W or W,H")
	flag.Parse()

	mppSet, levelSet := false, false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mpp":
			mppSet = true
		case "level":
			levelSet = true
		}
	})

	args := InputFlags{
		InputRootDir: *inputRootDir,
		OutputPath:   *outputPath,
		ReportPath:   *reportPath,
		Backend:      *backend,
		TileExtent:   *tileExtent,
		Stride:       *stride,
		MPP:          *mpp,
		Level:        *levelFlag,
	}

	if err := files_manager.CheckProvidedDirs(args.InputRootDir); err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}

	var mppOpt *float64
	var levelOpt *int
	if mppSet {
		mppOpt = &args.MPP
	}
	if levelSet {
		levelOpt = &args.Level
	}
	selector, err := metasource.SelectorFromOptions(mppOpt, levelOpt)
	if err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}

	tile, err := parseVec(args.TileExtent)
	if err != nil {
		fmt.Printf("[ERROR]: invalid -tile: %v\n", err)
		os.Exit(1)
	}
	strideVec, err := parseVec(args.Stride)
	if err != nil {
		fmt.Printf("[ERROR]: invalid -stride: %v\n", err)
		os.Exit(1)
	}

	reader, err := slide_reader.New(args.Backend)
	if err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}

	files, totalSize, err := files_manager.FindSlideFiles(args.InputRootDir)
	if err != nil {
		fmt.Printf("Error scanning input directory: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No slide files found in the input directory.")
		os.Exit(0)
	}
	fmt.Printf("Found %d slide files (%.1f MB on disk).\n", len(files), float64(totalSize)/(1024*1024))

	ds, err := metasource.New(metasource.Config{
		Paths:      files,
		Selector:   selector,
		TileExtent: tile,
		Stride:     strideVec,
		Reader:     reader,
	})
	if err != nil {
		fmt.Printf("[ERROR]: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Estimated metadata size: %d bytes.\n", ds.EstimateInMemoryDataSize())

	startTime := time.Now()
	defer func() {
		fmt.Printf("Total time taken: %s\n", time.Since(startTime))
	}()

	maxReads := max(runtime.NumCPU()-1, 1)
	sem := make(chan struct{}, maxReads)

	var wg sync.WaitGroup

	records := make([]*contracts.SlideMeta, len(files))
	var failed int64
	var mu sync.Mutex

	for i, file := range files {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire a token
			defer func() { <-sem }() // Release the token

			rec, err := ds.ReadFile(file)
			if err != nil {
				fmt.Printf("Error reading metadata: %v\n", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			records[i] = &rec
		}(i, file)
	}
	wg.Wait()

	out := make([]contracts.SlideMeta, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}

	if err := writeRecords(out, args.OutputPath); err != nil {
		fmt.Printf("Error writing output: %v\n", err)
		os.Exit(1)
	}

	if args.ReportPath != "" {
		if err := report.Write(out, args.ReportPath); err != nil {
			fmt.Printf("Error writing report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", args.ReportPath)
	}

	fmt.Printf("Extracted metadata for %d slides, %d failed.\n", len(out), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// parseVec parses "512" or "512,256" into a scalar-or-pair vector; the
// datasource broadcasts scalars to both axes.
func parseVec(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	vec := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", p)
		}
		vec = append(vec, v)
	}
	return vec, nil
}

func writeRecords(records []contracts.SlideMeta, outputPath string) error {
	dst := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		dst = f
	}

	enc := json.NewEncoder(dst)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	if outputPath != "" {
		fmt.Printf("Metadata written to %s\n", outputPath)
	}
	return nil
}
