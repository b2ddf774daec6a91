// Package imagex scores submitted photos for face-verification suitability:
// brightness, contrast, sharpness, resolution and basic liveness signals.
package imagex

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	minDimension = 200
	// Images larger than this are downscaled before analysis.
	analysisMaxWidth = 512
)

// QualityReport describes how usable an image is for face matching.
type QualityReport struct {
	Score      int      `json:"quality_score"`
	Brightness float64  `json:"brightness"`
	Contrast   float64  `json:"contrast"`
	BlurScore  float64  `json:"blur_score"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Issues     []string `json:"issues,omitempty"`
	Acceptable bool     `json:"acceptable"`
}

// LivenessReport carries heuristic signals that distinguish a live subject
// from a photo of a photo.
type LivenessReport struct {
	TextureScore float64  `json:"texture_analysis"`
	EdgeDensity  float64  `json:"edge_density"`
	ColorSpread  float64  `json:"color_distribution"`
	OverallScore float64  `json:"overall_score"`
	LikelyLive   bool     `json:"is_likely_live"`
	Warnings     []string `json:"warnings,omitempty"`
}

// DecodeBase64 decodes a base64-encoded image, tolerating a data-URL prefix.
func DecodeBase64(encoded string) (image.Image, error) {
	raw, err := RawBase64(encoded)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return img, nil
}

// RawBase64 returns the raw image bytes behind a base64 payload, tolerating
// a data-URL prefix.
func RawBase64(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 {
		encoded = encoded[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return raw, nil
}

// AnalyzeQuality scores an image from 100 down, deducting per issue found.
func AnalyzeQuality(img image.Image) QualityReport {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	luma := lumaMatrix(normalize(img))
	brightness := mean(luma)
	contrast := stdDev(luma, brightness)
	blur := laplacianVariance(luma)

	report := QualityReport{
		Score:      100,
		Brightness: brightness,
		Contrast:   contrast,
		BlurScore:  blur,
		Width:      width,
		Height:     height,
	}

	if brightness < 50 {
		report.Issues = append(report.Issues, "image too dark")
		report.Score -= 20
	} else if brightness > 200 {
		report.Issues = append(report.Issues, "image too bright")
		report.Score -= 15
	}

	if contrast < 30 {
		report.Issues = append(report.Issues, "low contrast")
		report.Score -= 15
	}

	if blur < 100 {
		report.Issues = append(report.Issues, "image appears blurry")
		report.Score -= 25
	}

	if width < minDimension || height < minDimension {
		report.Issues = append(report.Issues, fmt.Sprintf("image too small (minimum %dx%d)", minDimension, minDimension))
		report.Score -= 30
	}

	if report.Score < 0 {
		report.Score = 0
	}
	report.Acceptable = report.Score >= 60

	return report
}

// AnalyzeLiveness computes texture, edge and color-variation signals and
// combines them into an overall liveness score.
func AnalyzeLiveness(img image.Image) LivenessReport {
	small := normalize(img)
	luma := lumaMatrix(small)

	texture := math.Min(100, laplacianVariance(luma)/10)
	edges := math.Min(100, edgeDensity(luma)*1000)
	colors := math.Min(100, colorSpread(small)*2)

	report := LivenessReport{
		TextureScore: texture,
		EdgeDensity:  edges,
		ColorSpread:  colors,
		LikelyLive:   true,
	}
	report.OverallScore = texture*0.4 + edges*0.3 + colors*0.3

	if report.OverallScore < 30 {
		report.LikelyLive = false
		report.Warnings = append(report.Warnings, "low texture variation - possible photo")
	}
	if edges < 20 {
		report.Warnings = append(report.Warnings, "unusual edge patterns detected")
	}

	return report
}

// normalize downscales large images so analysis cost stays bounded.
func normalize(img image.Image) image.Image {
	if img.Bounds().Dx() > analysisMaxWidth {
		return imaging.Resize(img, analysisMaxWidth, 0, imaging.Linear)
	}
	return img
}

func lumaMatrix(img image.Image) [][]float64 {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()

	rows := make([][]float64, bounds.Dy())
	for y := range rows {
		row := make([]float64, bounds.Dx())
		for x := range row {
			// Grayscale NRGBA has equal channels; red carries the luma.
			i := gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			row[x] = float64(gray.Pix[i])
		}
		rows[y] = row
	}
	return rows
}

func mean(m [][]float64) float64 {
	var sum float64
	var n int
	for _, row := range m {
		for _, v := range row {
			sum += v
		}
		n += len(row)
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func stdDev(m [][]float64, mu float64) float64 {
	var sum float64
	var n int
	for _, row := range m {
		for _, v := range row {
			d := v - mu
			sum += d * d
		}
		n += len(row)
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// laplacianVariance measures sharpness: low variance means a blurry image.
func laplacianVariance(m [][]float64) float64 {
	h := len(m)
	if h < 3 {
		return 0
	}
	w := len(m[0])
	if w < 3 {
		return 0
	}

	lap := make([]float64, 0, (h-2)*(w-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := m[y-1][x] + m[y+1][x] + m[y][x-1] + m[y][x+1] - 4*m[y][x]
			lap = append(lap, v)
		}
	}

	var mu float64
	for _, v := range lap {
		mu += v
	}
	mu /= float64(len(lap))

	var variance float64
	for _, v := range lap {
		d := v - mu
		variance += d * d
	}
	return variance / float64(len(lap))
}

// edgeDensity is the fraction of pixels whose gradient magnitude crosses an
// edge threshold.
func edgeDensity(m [][]float64) float64 {
	h := len(m)
	if h < 3 {
		return 0
	}
	w := len(m[0])
	if w < 3 {
		return 0
	}

	const threshold = 50.0
	var edges, total int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := m[y][x+1] - m[y][x-1]
			gy := m[y+1][x] - m[y-1][x]
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				edges++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}

// colorSpread averages the per-channel standard deviations. Flat reprints of
// photos tend to have compressed color variation.
func colorSpread(img image.Image) float64 {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}

	var sum, sumSq [3]float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := nrgba.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(nrgba.Pix[i+c])
				sum[c] += v
				sumSq[c] += v * v
			}
		}
	}

	var total float64
	for c := 0; c < 3; c++ {
		mu := sum[c] / float64(n)
		variance := sumSq[c]/float64(n) - mu*mu
		if variance < 0 {
			variance = 0
		}
		total += math.Sqrt(variance)
	}
	return total / 3
}
