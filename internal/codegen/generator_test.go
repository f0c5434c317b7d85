package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/api/internal/model"
)

func samplePath() model.Path {
	grasp := true
	return model.Path{Points: []model.Waypoint{
		{X: -0.210, Y: -0.083, Z: -1.121},
		{X: -0.201, Y: -0.051, Z: -1.079, Grasp: &grasp},
		{X: 0.0004, Y: 1.5, Z: 0.25},
	}}
}

// motionLines counts lines that command robot motion in any dialect
func motionLines(program string) int {
	n := 0
	for _, line := range strings.Split(program, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"MOVE TO", "PTP ", "LIN ", "MoveL ", "MoveAbsJ "} {
			if strings.HasPrefix(line, prefix) {
				n++
				break
			}
		}
	}
	return n
}

func allGenerators() []Generator {
	return []Generator{
		NewKARELGenerator(),
		NewKRLGenerator(),
		NewRAPIDGenerator(model.RapidVariantBasic),
		NewRAPIDGenerator(model.RapidVariantAdvanced),
		NewRAPIDGenerator(model.RapidVariantOptimized),
	}
}

func TestGenerators_Deterministic(t *testing.T) {
	for _, g := range allGenerators() {
		first := g.Generate(samplePath(), "gesture demo")
		second := g.Generate(samplePath(), "gesture demo")
		assert.Equal(t, first, second, "dialect %s", g.Dialect())
	}
}

func TestGenerators_EmptyPath(t *testing.T) {
	for _, g := range allGenerators() {
		var out string
		require.NotPanics(t, func() {
			out = g.Generate(model.Path{}, "empty")
		})
		assert.Zero(t, motionLines(out), "dialect %s:\n%s", g.Dialect(), out)
		assert.NotEmpty(t, out)
	}
}

func TestGenerators_OneInstructionPerWaypoint(t *testing.T) {
	path := samplePath()
	assert.Equal(t, 3, motionLines(NewKARELGenerator().Generate(path, "p")))
	assert.Equal(t, 3, motionLines(NewKRLGenerator().Generate(path, "p")))
	assert.Equal(t, 3, motionLines(NewRAPIDGenerator(model.RapidVariantBasic).Generate(path, "p")))
	// two home moves around the body
	assert.Equal(t, 5, motionLines(NewRAPIDGenerator(model.RapidVariantAdvanced).Generate(path, "p")))
}

func TestKAREL_Output(t *testing.T) {
	out := NewKARELGenerator().Generate(samplePath(), "gesture demo path")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "PROGRAM GESTURE_DEMO", lines[0])
	assert.Equal(t, "END GESTURE_DEMO", lines[len(lines)-1])
	assert.Contains(t, out, "  MOVE TO POS(-0.210, -0.083, -1.121, 0.000, 0.000, 0.000, cfg)\n")
	assert.Contains(t, out, "  MOVE TO POS(0.000, 1.500, 0.250, 0.000, 0.000, 0.000, cfg)\n")
	assert.NotContains(t, out, "GRIP")
}

func TestKRL_Output(t *testing.T) {
	out := NewKRLGenerator().Generate(samplePath(), "demo")

	assert.True(t, strings.HasPrefix(out, "DEF DEMO()\n"))
	assert.True(t, strings.HasSuffix(out, "END\n"))
	assert.Contains(t, out, "  PTP {X -0.210, Y -0.083, Z -1.121, A 0.000, B 0.000, C 0.000}\n")
	assert.Contains(t, out, "  LIN {X -0.201, Y -0.051, Z -1.079, A 0.000, B 0.000, C 0.000}\n")
	assert.Equal(t, 1, strings.Count(out, "PTP "))
}

func TestRAPID_BasicOutput(t *testing.T) {
	out := NewRAPIDGenerator(model.RapidVariantBasic).Generate(samplePath(), "demo")

	assert.True(t, strings.HasPrefix(out, "MODULE DEMO\n  PROC main()\n"))
	assert.True(t, strings.HasSuffix(out, "  ENDPROC\nENDMODULE\n"))
	assert.Contains(t, out, "    MoveL [[-0.210,-0.083,-1.121],[1,0,0,0],[0,0,0,0],[9E9,9E9,9E9,9E9,9E9,9E9]], v100, z10, tool0;\n")
}

func TestRAPID_AdvancedOutput(t *testing.T) {
	out := NewRAPIDGenerator(model.RapidVariantAdvanced).Generate(samplePath(), "demo")

	assert.Contains(t, out, "CONST jointtarget home")
	assert.Contains(t, out, "  ERROR\n")
	assert.Equal(t, 2, strings.Count(out, "MoveAbsJ home"))
	assert.Contains(t, out, "[[0.000,1.500,0.250],[1,0,0,0],[0,0,0,0],[9E9,9E9,9E9,9E9,9E9,9E9]], v100, fine, tool0;")

	empty := NewRAPIDGenerator(model.RapidVariantAdvanced).Generate(model.Path{}, "demo")
	assert.Contains(t, empty, "  ERROR\n")
	assert.NotContains(t, empty, "MoveAbsJ")
}

func TestRAPID_UnknownVariantFallsBackToBasic(t *testing.T) {
	g := NewRAPIDGenerator("turbo")
	assert.Equal(t, model.RapidVariantBasic, g.Variant())
}

func TestOptimizePath(t *testing.T) {
	g := NewRAPIDGenerator(model.RapidVariantOptimized)
	grasp := false
	path := model.Path{Points: []model.Waypoint{
		{X: 0, Y: 0, Z: 0},
		{X: 0.0002, Y: 0, Z: 0},
		{X: 0.0004, Y: 0, Z: 0},
		{X: 0.1, Y: 0, Z: 0},
		{X: 0.1, Y: 0.0001, Z: 0, Grasp: &grasp},
		{X: 0.1, Y: 0.0002, Z: 0},
		{X: 0.1, Y: 0.0003, Z: 0},
	}}

	out := g.OptimizePath(path)

	require.Len(t, out.Points, 4)
	assert.Equal(t, path.Points[0], out.Points[0])
	assert.Equal(t, path.Points[3], out.Points[1])
	assert.Equal(t, path.Points[4], out.Points[2])
	assert.Equal(t, path.Points[6], out.Points[3])
	assert.Len(t, path.Points, 7, "input must not be modified")

	assert.Equal(t, out, g.OptimizePath(path))
}

func TestOptimizePath_KeepsEndpoints(t *testing.T) {
	g := NewRAPIDGenerator(model.RapidVariantOptimized)
	same := model.Waypoint{X: 1, Y: 1, Z: 1}

	out := g.OptimizePath(model.Path{Points: []model.Waypoint{same, same, same, same}})
	assert.Equal(t, []model.Waypoint{same, same}, out.Points)

	single := g.OptimizePath(model.Path{Points: []model.Waypoint{same}})
	assert.Equal(t, []model.Waypoint{same}, single.Points)

	assert.Empty(t, g.OptimizePath(model.Path{}).Points)
}

func TestOptimizedVariant_UsesReducedPath(t *testing.T) {
	p := model.Waypoint{X: 0.5, Y: 0.5, Z: 0.5}
	path := model.Path{Points: []model.Waypoint{p, p, p, {X: 1, Y: 1, Z: 1}}}

	basic := NewRAPIDGenerator(model.RapidVariantBasic).Generate(path, "x")
	optimized := NewRAPIDGenerator(model.RapidVariantOptimized).Generate(path, "x")

	assert.Equal(t, 4, motionLines(basic))
	assert.Equal(t, 2, motionLines(optimized))
}

func TestFor(t *testing.T) {
	for _, d := range model.Dialects {
		g, err := For(d)
		require.NoError(t, err)
		assert.Equal(t, d, g.Dialect())
	}
	_, err := For("python")
	assert.Error(t, err)
}

func TestGenerateAll(t *testing.T) {
	out := GenerateAll(Set(model.RapidVariantAdvanced), samplePath(), "demo")
	require.Len(t, out, 3)
	assert.Contains(t, out[model.DialectRAPID], "ERROR")
	assert.Contains(t, out[model.DialectKRL], "DEF DEMO()")
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"gesture", 12, "GESTURE"},
		{"  pick & place  ", 32, "PICK_PLACE"},
		{"2024-run", 32, "P_2024_RUN"},
		{"", 12, DefaultProgramName},
		{"***", 12, DefaultProgramName},
		{"a_very_long_program_name", 12, "A_VERY_LONG"},
		{"ünïcode", 12, "NCODE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeName(tt.in, tt.maxLen), "input %q", tt.in)
	}
}

func TestCoord(t *testing.T) {
	assert.Equal(t, "0.000", coord(-0.0001))
	assert.Equal(t, "-0.210", coord(-0.21))
	assert.Equal(t, "1.000", coord(0.9996))
}
