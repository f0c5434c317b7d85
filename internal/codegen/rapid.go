package codegen

import (
	"math"
	"strings"

	"github.com/pathforge/api/internal/model"
)

const (
	rapidNameLimit = 32

	// DefaultCollapseTolerance is the distance, in meters, under which consecutive
	// waypoints are merged by the optimized variant
	DefaultCollapseTolerance = 0.001
)

// RAPIDGenerator emits ABB RAPID modules in one of three variants
type RAPIDGenerator struct {
	variant   model.RapidVariant
	tolerance float64
}

// NewRAPIDGenerator creates a RAPID generator. Unknown variants fall back to basic.
func NewRAPIDGenerator(variant model.RapidVariant) *RAPIDGenerator {
	switch variant {
	case model.RapidVariantBasic, model.RapidVariantAdvanced, model.RapidVariantOptimized:
	default:
		variant = model.RapidVariantBasic
	}
	return &RAPIDGenerator{
		variant:   variant,
		tolerance: DefaultCollapseTolerance,
	}
}

// WithTolerance overrides the collapse tolerance of the optimized variant
func (g *RAPIDGenerator) WithTolerance(meters float64) *RAPIDGenerator {
	if meters >= 0 && !math.IsNaN(meters) && !math.IsInf(meters, 0) {
		g.tolerance = meters
	}
	return g
}

func (g *RAPIDGenerator) Dialect() model.Dialect {
	return model.DialectRAPID
}

func (g *RAPIDGenerator) Variant() model.RapidVariant {
	return g.variant
}

func (g *RAPIDGenerator) Generate(path model.Path, programName string) string {
	switch g.variant {
	case model.RapidVariantAdvanced:
		return g.generateAdvanced(path, programName)
	case model.RapidVariantOptimized:
		return g.generateBasic(g.OptimizePath(path), programName)
	}
	return g.generateBasic(path, programName)
}

func (g *RAPIDGenerator) generateBasic(path model.Path, programName string) string {
	name := SanitizeName(programName, rapidNameLimit)

	var b strings.Builder
	writeLine(&b, 0, "MODULE %s", name)
	writeLine(&b, 1, "PROC main()")
	for _, p := range path.Points {
		writeLine(&b, 2, "%s", rapidMove(p, "v100", "z10"))
	}
	writeLine(&b, 1, "ENDPROC")
	writeLine(&b, 0, "ENDMODULE")
	return b.String()
}

// generateAdvanced wraps the motion body with a home position and an error
// handler. Home moves are only emitted around a non-empty body.
func (g *RAPIDGenerator) generateAdvanced(path model.Path, programName string) string {
	name := SanitizeName(programName, rapidNameLimit)

	var b strings.Builder
	writeLine(&b, 0, "MODULE %s", name)
	writeLine(&b, 1, "CONST jointtarget home := [[0,0,0,0,30,0],[9E9,9E9,9E9,9E9,9E9,9E9]];")
	writeLine(&b, 1, "PROC main()")
	if len(path.Points) > 0 {
		writeLine(&b, 2, "MoveAbsJ home, v200, fine, tool0;")
		for i, p := range path.Points {
			zone := "z10"
			if i == len(path.Points)-1 {
				zone = "fine"
			}
			writeLine(&b, 2, "%s", rapidMove(p, "v100", zone))
		}
		writeLine(&b, 2, "MoveAbsJ home, v200, fine, tool0;")
	}
	writeLine(&b, 1, "ERROR")
	writeLine(&b, 2, "TPWrite \"Motion error \"\\Num:=ERRNO;")
	writeLine(&b, 2, "StopMove;")
	writeLine(&b, 2, "RETURN;")
	writeLine(&b, 1, "ENDPROC")
	writeLine(&b, 0, "ENDMODULE")
	return b.String()
}

// OptimizePath collapses consecutive waypoints closer than the tolerance to the
// last kept waypoint. The first and last waypoints are always kept, as is any
// waypoint carrying a grasp annotation.
func (g *RAPIDGenerator) OptimizePath(path model.Path) model.Path {
	out := path
	n := len(path.Points)
	if n <= 2 {
		out.Points = append([]model.Waypoint{}, path.Points...)
		return out
	}

	kept := make([]model.Waypoint, 0, n)
	kept = append(kept, path.Points[0])
	for i := 1; i < n-1; i++ {
		p := path.Points[i]
		if p.Grasp != nil || distance(kept[len(kept)-1], p) > g.tolerance {
			kept = append(kept, p)
		}
	}
	kept = append(kept, path.Points[n-1])
	out.Points = kept
	return out
}

func distance(a, b model.Waypoint) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// rapidMove is the per-point formatter shared by every variant
func rapidMove(p model.Waypoint, speed, zone string) string {
	return "MoveL [[" + coord(p.X) + "," + coord(p.Y) + "," + coord(p.Z) +
		"],[1,0,0,0],[0,0,0,0],[9E9,9E9,9E9,9E9,9E9,9E9]], " + speed + ", " + zone + ", tool0;"
}
