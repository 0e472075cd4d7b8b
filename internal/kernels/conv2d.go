package kernels

import (
	"fmt"

	"github.com/born-ml/graphite/internal/shapes"
)

// Conv2DGeometry describes one 2D convolution of a batch of images with a
// single shared kernel.
//
// The kernel origin slides from -PadTop (or -PadLeft) in steps of the stride.
// Output coordinates are (origin + pad) / stride for every stride, so unit
// and non-unit strides use the same mapping.
type Conv2DGeometry struct {
	Batches int // product of the image's leading dimensions

	Height, Width    int // image extent
	KernelH, KernelW int
	StrideY, StrideX int

	PadTop, PadBottom int
	PadLeft, PadRight int

	OutH, OutW int
}

// NewConv2DGeometry validates the operands and computes the output extent.
//
// With same padding the pads are ceil((k-1)/2) before and floor((k-1)/2)
// after, giving ceil(n/stride) outputs. With valid padding there are no pads
// and floor((n-k)/stride)+1 outputs.
func NewConv2DGeometry(image, kernel shapes.Shape, strideY, strideX int, same bool) (Conv2DGeometry, error) {
	if image.Rank() < 2 {
		return Conv2DGeometry{}, fmt.Errorf("conv2d: image must be at least 2D, got %dD", image.Rank())
	}
	if kernel.Rank() != 2 {
		return Conv2DGeometry{}, fmt.Errorf("conv2d: kernel must be 2D, got %dD", kernel.Rank())
	}
	if strideY <= 0 || strideX <= 0 {
		return Conv2DGeometry{}, fmt.Errorf("conv2d: strides must be positive, got (%d, %d)", strideY, strideX)
	}

	g := Conv2DGeometry{
		Batches: image.Leading(2).NumElements(),
		Height:  image.Dim(-2),
		Width:   image.Dim(-1),
		KernelH: kernel[0],
		KernelW: kernel[1],
		StrideY: strideY,
		StrideX: strideX,
	}

	if same {
		g.PadTop, g.PadBottom = g.KernelH/2, (g.KernelH-1)/2
		g.PadLeft, g.PadRight = g.KernelW/2, (g.KernelW-1)/2
	}

	spanY := g.Height - g.KernelH + 1 + g.PadTop + g.PadBottom
	spanX := g.Width - g.KernelW + 1 + g.PadLeft + g.PadRight
	if spanY <= 0 || spanX <= 0 {
		return Conv2DGeometry{}, fmt.Errorf("conv2d: kernel %v larger than image %v without padding", kernel, image)
	}

	g.OutH = (spanY + strideY - 1) / strideY
	g.OutW = (spanX + strideX - 1) / strideX
	return g, nil
}

// OutputShape returns the image's leading dimensions followed by [OutH, OutW].
func (g Conv2DGeometry) OutputShape(image shapes.Shape) shapes.Shape {
	return append(image.Leading(2).Clone(), g.OutH, g.OutW)
}

// Conv2D convolves every image slice with the kernel. The kernel is applied
// flipped, and taps landing outside the image contribute nothing.
// dst must not alias image.
func Conv2D[T shapes.Number](dst, image, kernel []T, g Conv2DGeometry) {
	imageSize := g.Height * g.Width
	outSize := g.OutH * g.OutW

	for n := 0; n < g.Batches; n++ {
		imgOff := n * imageSize
		outOff := n * outSize

		for oy := -g.PadTop; oy < g.Height-g.KernelH+1+g.PadBottom; oy += g.StrideY {
			outY := (oy + g.PadTop) / g.StrideY

			for ox := -g.PadLeft; ox < g.Width-g.KernelW+1+g.PadRight; ox += g.StrideX {
				outX := (ox + g.PadLeft) / g.StrideX

				var sum T
				for dy := 0; dy < g.KernelH; dy++ {
					iy := oy + dy
					if iy < 0 || iy >= g.Height {
						continue
					}
					ky := g.KernelH - 1 - dy

					for dx := 0; dx < g.KernelW; dx++ {
						ix := ox + dx
						if ix < 0 || ix >= g.Width {
							continue
						}
						kx := g.KernelW - 1 - dx

						sum += image[imgOff+iy*g.Width+ix] * kernel[ky*g.KernelW+kx]
					}
				}

				dst[outOff+outY*g.OutW+outX] = sum
			}
		}
	}
}
