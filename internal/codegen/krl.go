package codegen

import (
	"strings"

	"github.com/pathforge/api/internal/model"
)

// krlNameLimit keeps names within the KSS module name limit
const krlNameLimit = 24

// KRLGenerator emits KUKA KRL source. The first waypoint is reached point-to-point,
// the rest linearly.
type KRLGenerator struct{}

func NewKRLGenerator() *KRLGenerator {
	return &KRLGenerator{}
}

func (g *KRLGenerator) Dialect() model.Dialect {
	return model.DialectKRL
}

func (g *KRLGenerator) Generate(path model.Path, programName string) string {
	name := SanitizeName(programName, krlNameLimit)

	var b strings.Builder
	writeLine(&b, 0, "DEF %s()", name)
	writeLine(&b, 1, ";FOLD INI")
	writeLine(&b, 1, "BAS(#INITMOV, 0)")
	writeLine(&b, 1, ";ENDFOLD")
	writeLine(&b, 1, "$VEL.CP = 0.2")
	for i, p := range path.Points {
		motion := "LIN"
		if i == 0 {
			motion = "PTP"
		}
		writeLine(&b, 1, "%s %s", motion, krlFrame(p))
	}
	writeLine(&b, 0, "END")
	return b.String()
}

func krlFrame(p model.Waypoint) string {
	return "{X " + coord(p.X) + ", Y " + coord(p.Y) + ", Z " + coord(p.Z) + ", A 0.000, B 0.000, C 0.000}"
}
