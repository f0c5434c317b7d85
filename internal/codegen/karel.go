package codegen

import (
	"strings"

	"github.com/pathforge/api/internal/model"
)

// karelNameLimit is the FANUC program name length limit
const karelNameLimit = 12

// KARELGenerator emits FANUC KAREL source
type KARELGenerator struct{}

func NewKARELGenerator() *KARELGenerator {
	return &KARELGenerator{}
}

func (g *KARELGenerator) Dialect() model.Dialect {
	return model.DialectKAREL
}

func (g *KARELGenerator) Generate(path model.Path, programName string) string {
	name := SanitizeName(programName, karelNameLimit)

	var b strings.Builder
	writeLine(&b, 0, "PROGRAM %s", name)
	writeLine(&b, 0, "%%NOLOCKGROUP")
	writeLine(&b, 0, "%%COMMENT = 'GESTURE PATH'")
	writeLine(&b, 0, "VAR")
	writeLine(&b, 1, "cfg : CONFIG")
	writeLine(&b, 0, "BEGIN")
	writeLine(&b, 1, "$MOTYPE = LINEAR")
	for _, p := range path.Points {
		writeLine(&b, 1, "%s", karelMove(p))
	}
	writeLine(&b, 0, "END %s", name)
	return b.String()
}

func karelMove(p model.Waypoint) string {
	return "MOVE TO POS(" + coord(p.X) + ", " + coord(p.Y) + ", " + coord(p.Z) + ", 0.000, 0.000, 0.000, cfg)"
}
