package effect

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/chewxy/math32"
)

var blurWeights = [5]float32{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}

func softBlur(dx, dy int) gpu.FragmentFunc {
	return func(f *gpu.Fragment) (common.Color, bool) {
		sum := f.Texel(0, 0, 0).Scale(blurWeights[0])
		for i := 1; i < len(blurWeights); i++ {
			sum = sum.Add(f.Texel(0, dx*i, dy*i).Scale(blurWeights[i]))
			sum = sum.Add(f.Texel(0, -dx*i, -dy*i).Scale(blurWeights[i]))
		}
		return sum, true
	}
}

func softGlowCombine(f *gpu.Fragment) (common.Color, bool) {
	glow := f.Sample(0, f.U, f.V)
	base := f.Sample(1, f.U, f.V)
	k := f.Float("intensity")
	return common.Color{base[0] + glow[0]*k, base[1] + glow[1]*k, base[2] + glow[2]*k, base[3]}, true
}

func softDOFBlur(f *gpu.Fragment) (common.Color, bool) {
	var sum common.Color
	for y := -1; y <= 1; y++ {
		for x := -1; x <= 1; x++ {
			sum = sum.Add(f.Texel(0, x, y))
		}
	}
	return sum.Scale(1.0 / 9), true
}

func softDOFCombine(f *gpu.Fragment) (common.Color, bool) {
	d := f.Sample(dofCombineDepth, f.U, f.V)[0]
	n, fr := f.Float("near"), f.Float("far")
	dist := n * fr / (fr - d*(fr-n))
	blur := common.Clamp(math32.Abs(dist-f.Float("focalDistance"))/max(f.Float("focalRange"), 0.0001), 0, 1)
	sharp := f.Sample(dofCombineColor, f.U, f.V)
	soft := f.Sample(dofCombineBlur, f.U, f.V)
	return sharp.Scale(1 - blur).Add(soft.Scale(blur)), true
}

func softToneMap(f *gpu.Fragment) (common.Color, bool) {
	c := f.Sample(0, f.U, f.V)
	exposure, gamma := f.Float("exposure"), f.Float("gamma")
	for i := range 3 {
		c[i] = math32.Pow(1-math32.Exp(-c[i]*exposure), 1/gamma)
	}
	return c, true
}

// SoftPrograms returns CPU implementations of Programs for gpu.SoftDevice.
func SoftPrograms() map[string]gpu.FragmentFunc {
	return map[string]gpu.FragmentFunc{
		ProgramGlowBlurH:   softBlur(1, 0),
		ProgramGlowBlurV:   softBlur(0, 1),
		ProgramGlowCombine: softGlowCombine,
		ProgramDOFBlur:     softDOFBlur,
		ProgramDOFCombine:  softDOFCombine,
		ProgramToneMap:     softToneMap,
	}
}

// RegisterSoftPrograms registers SoftPrograms on dev.
func RegisterSoftPrograms(dev gpu.SoftDevice) {
	for name, fn := range SoftPrograms() {
		dev.RegisterProgram(name, fn)
	}
}
