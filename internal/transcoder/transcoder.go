package transcoder

import (
	"context"
	"fmt"
	"sort"
)

// ThumbnailLabel is the variant label reserved for the extracted still frame.
const ThumbnailLabel = "thumbnail"

// Variant represents a single target resolution for a derived output.
type Variant struct {
	// Label is the identifier for this variant (e.g., "1080p", "720p").
	Label string
	// Height is the video height in pixels. Width is calculated to maintain aspect ratio.
	Height int
}

// Output describes one derived file produced by the engine.
type Output struct {
	// Path is the local filesystem path of the produced file.
	Path string
	// Label identifies the variant ("720p", "thumbnail", ...).
	Label string
	// Ext is the file extension without the dot ("mp4", "jpg").
	Ext string
}

// VariantsFromHeights builds the variant list from configured heights,
// ordered highest first. Duplicate heights are collapsed.
func VariantsFromHeights(heights []int) []Variant {
	seen := make(map[int]struct{}, len(heights))
	uniq := make([]int, 0, len(heights))
	for _, h := range heights {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		uniq = append(uniq, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(uniq)))

	variants := make([]Variant, 0, len(uniq))
	for _, h := range uniq {
		variants = append(variants, Variant{
			Label:  fmt.Sprintf("%dp", h),
			Height: h,
		})
	}
	return variants
}

// Engine defines the interface for producing derived video assets.
// Implementations should handle one derivation per call; callers own
// concurrency and output directory lifecycle.
type Engine interface {
	// TranscodeVariant produces a scaled rendition of the input in outputDir.
	//
	// The output directory must exist before calling this method.
	TranscodeVariant(ctx context.Context, inputPath, outputDir string, variant Variant) (*Output, error)

	// GenerateThumbnail extracts a single still frame from the input as a JPEG.
	//
	// The output directory must exist before calling this method.
	GenerateThumbnail(ctx context.Context, inputPath, outputDir string) (*Output, error)
}
