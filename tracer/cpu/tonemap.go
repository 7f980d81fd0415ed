package cpu

import (
	"fmt"
	"time"

	"github.com/SimpsonGSD/path-tracer/tracer"
	"github.com/SimpsonGSD/path-tracer/types"
	"github.com/chewxy/math32"
)

// The tonemap curve applied after exposure scaling.
type TonemapCurve uint8

const (
	ReinhardCurve TonemapCurve = iota
	ACESCurve
)

// Parse a tonemap curve name as it appears on the command line.
func ParseTonemapCurve(name string) (TonemapCurve, error) {
	switch name {
	case "reinhard":
		return ReinhardCurve, nil
	case "aces":
		return ACESCurve, nil
	}
	return ReinhardCurve, fmt.Errorf("unsupported tonemap curve %q", name)
}

// Options for the tonemap post-process stage.
type TonemapOptions struct {
	Curve TonemapCurve

	// Scales the radial darkening towards the frame corners; 0 disables
	// the vignette.
	VignetteStrength float32

	// Add hash noise before quantization to mask banding.
	Dither bool
}

// Map the accumulated HDR estimate of the block to displayable LDR pixels.
// The stage parameters are packed into a 4 component vector mirroring the
// GPU uniform layout (exposure, pass count, vignette strength, dither
// amplitude) and the V coordinate is flipped when addressing the output
// buffer. The stage is a pure function of the accumulator contents and the
// parameters.
func Tonemap(opts TonemapOptions) Stage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		params := types.Vec4{blockReq.Exposure, float32(blockReq.FrameCount), opts.VignetteStrength, 0}
		if opts.Dither {
			params[3] = 1.0 / 255.0
		}

		invW := 1.0 / float32(blockReq.FrameW)
		invH := 1.0 / float32(blockReq.FrameH)

		for y := blockReq.BlockY; y < blockReq.BlockY+blockReq.BlockH; y++ {
			for x := uint32(0); x < blockReq.FrameW; x++ {
				uv := types.Vec2{(float32(x) + 0.5) * invW, (float32(y) + 0.5) * invH}
				ldr := TonemapPixel(tr.accum.Read(x, y), uv, params, opts.Curve)

				if params[3] > 0 {
					noise := (hash01(x, y) - 0.5) * params[3]
					ldr = types.Vec3{ldr[0] + noise, ldr[1] + noise, ldr[2] + noise}.Clamp01()
				}

				// uv.y = 1 - uv.y: the output buffer is addressed with a
				// flipped V coordinate.
				dstY := blockReq.FrameH - 1 - y
				offset := (dstY*blockReq.FrameW + x) * 4
				tr.frameBuf[offset] = quantize(ldr[0])
				tr.frameBuf[offset+1] = quantize(ldr[1])
				tr.frameBuf[offset+2] = quantize(ldr[2])
				tr.frameBuf[offset+3] = 255
			}
		}

		return time.Since(start), nil
	}
}

// Tonemap a single HDR pixel: exposure scale, tonemap curve, vignette. The
// result is clamped to [0, 1] per channel. Pure; repeated calls yield
// bit-identical output.
func TonemapPixel(hdr types.Vec3, uv types.Vec2, params types.Vec4, curve TonemapCurve) types.Vec3 {
	c := hdr.Mul(params[0])

	switch curve {
	case ACESCurve:
		c = ACESFilm(c)
	default:
		c = SimpleReinhard(c)
	}

	if params[2] > 0 {
		dist := uv.Sub(types.Vec2{0.5, 0.5}).Len()
		c = c.Mul(types.Clamp01(1.0 - params[2]*dist))
	}

	return c.Clamp01()
}

// Simple Reinhard operator: c / (1 + c) per channel.
func SimpleReinhard(c types.Vec3) types.Vec3 {
	return types.Vec3{
		c[0] / (1.0 + c[0]),
		c[1] / (1.0 + c[1]),
		c[2] / (1.0 + c[2]),
	}
}

// Fixed sRGB -> ACEScg-ish input transform of the fitted ACES curve.
var acesInputMat = [3]types.Vec3{
	{0.59719, 0.35458, 0.04823},
	{0.07600, 0.90834, 0.01566},
	{0.02840, 0.13383, 0.83777},
}

// Fixed ODT -> sRGB output transform.
var acesOutputMat = [3]types.Vec3{
	{1.60475, -0.53108, -0.07367},
	{-0.10208, 1.10813, -0.00605},
	{-0.00327, -0.07276, 1.07602},
}

// ACES filmic fit: input matrix, rational RRT/ODT approximation, output
// matrix, clamp.
func ACESFilm(c types.Vec3) types.Vec3 {
	v := mulMat3(acesInputMat, c)
	v = types.Vec3{rrtAndOdtFit(v[0]), rrtAndOdtFit(v[1]), rrtAndOdtFit(v[2])}
	return mulMat3(acesOutputMat, v).Clamp01()
}

func rrtAndOdtFit(v float32) float32 {
	a := v*(v+0.0245786) - 0.000090537
	b := v*(0.983729*v+0.4329510) + 0.238081
	return a / b
}

func mulMat3(m [3]types.Vec3, v types.Vec3) types.Vec3 {
	return types.Vec3{m[0].Dot(v), m[1].Dot(v), m[2].Dot(v)}
}

// 2D integer hash mapped to [0, 1). Deterministic per pixel so dithering
// stays a pure function of the stage inputs.
func hash01(x, y uint32) float32 {
	h := x*0x1f1f1f1f ^ y
	h ^= h >> 15
	h *= 0x2c1b3c6d
	h ^= h >> 12
	h *= 0x297a2d39
	h ^= h >> 15
	return float32(h&0xffffff) / float32(1<<24)
}

func quantize(v float32) uint8 {
	q := math32.Floor(v*255.0 + 0.5)
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}
