package usecase

import (
	"fmt"
	"io"
	"os"
)

// WriteSummary prints the end-of-run report: timings and the sizes of the
// original video and both archives.
func WriteSummary(w io.Writer, res *Result, cfg PipelineConfig) {
	fmt.Fprintf(w, "All done! Compressed & Decompressed in %.2fs\n", res.Elapsed.Seconds())
	for _, s := range res.Stages {
		fmt.Fprintf(w, "  %-18s %8.2fs\n", s.Name, s.Elapsed.Seconds())
	}
	fmt.Fprintf(w, "Frames: %d extracted, %d processed, %d skipped, %d failed\n",
		res.Run.FrameCount, res.Run.Processed, res.Run.Skipped, res.Run.Failed)

	fmt.Fprintf(w, "Original video filesize: %s\n", sizeGB(cfg.InputVideo))
	fmt.Fprintf(w, "Compressed video filesize: %s\n", sizeGB(cfg.CompressedZip))
	fmt.Fprintf(w, "Decompressed video filesize: %s\n", sizeGB(cfg.DecompressedZip))

	fmt.Fprintf(w, "\nCompressed video saved to : %s\n", cfg.CompressedZip)
	if res.OutputVideo != "" {
		fmt.Fprintf(w, "Decompressed video saved to: %s\n", res.OutputVideo)
	}
}

func sizeGB(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2fGB", float64(info.Size())/1e9)
}
