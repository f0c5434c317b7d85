package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pathforge/api/internal/codegen"
	"github.com/pathforge/api/internal/model"
	"github.com/pathforge/api/internal/normalizer"
)

type normalizeOutput struct {
	Status     model.JobStatus `json:"status"`
	PointCount int             `json:"pointCount"`
	Dropped    int             `json:"dropped"`
	RobotModel string          `json:"robotModel,omitempty"`
	SourceID   string          `json:"sourceId,omitempty"`
	Path       model.Path      `json:"path"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pathctl",
		Short:         "Offline gesture path tooling",
		Long:          `Normalizes telemetry files and renders KAREL, KRL and RAPID programs without a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newNormalizeCmd(), newGenerateCmd())
	return root
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file|->",
		Short: "Print the canonical path for a telemetry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := loadTelemetry(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			out := normalizeOutput{
				Status:     res.Status,
				PointCount: res.Path.Len(),
				Dropped:    res.Dropped,
				RobotModel: res.RobotModel,
				SourceID:   res.SourceID,
				Path:       res.Path,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		dialect   string
		variant   string
		name      string
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "generate <file|->",
		Short: "Render one motion program from a telemetry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := model.ParseDialect(dialect)
			if !ok {
				return fmt.Errorf("unknown dialect %q (want karel, krl or rapid)", dialect)
			}
			v := model.RapidVariant(strings.ToLower(variant))
			switch v {
			case model.RapidVariantBasic, model.RapidVariantAdvanced, model.RapidVariantOptimized:
			default:
				return fmt.Errorf("unknown RAPID variant %q", variant)
			}

			res, err := loadTelemetry(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if !res.Valid() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: path has %d waypoints and is INVALID\n", res.Path.Len())
			}

			gen, err := codegen.For(d)
			if err != nil {
				return err
			}
			if d == model.DialectRAPID {
				gen = codegen.NewRAPIDGenerator(v).WithTolerance(tolerance)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), gen.Generate(res.Path, name))
			return err
		},
	}

	cmd.Flags().StringVarP(&dialect, "dialect", "d", "karel", "target dialect: karel, krl or rapid")
	cmd.Flags().StringVar(&variant, "variant", string(model.RapidVariantBasic), "RAPID variant: basic, advanced or optimized")
	cmd.Flags().StringVarP(&name, "name", "n", codegen.DefaultProgramName, "program name")
	cmd.Flags().Float64Var(&tolerance, "tolerance", codegen.DefaultCollapseTolerance, "collapse distance in meters for the optimized RAPID variant")
	return cmd
}

// loadTelemetry reads a JSON or YAML telemetry document. "-" reads stdin as JSON.
func loadTelemetry(stdin io.Reader, file string) (normalizer.Result, error) {
	var (
		raw []byte
		err error
	)
	if file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return normalizer.Result{}, fmt.Errorf("read telemetry: %w", err)
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		var obj map[string]any
		if err := yaml.Unmarshal(raw, &obj); err != nil {
			return normalizer.Result{}, fmt.Errorf("decode yaml %s: %w", file, err)
		}
		return normalizer.NormalizeObject(obj), nil
	}
	return normalizer.Normalize(raw), nil
}
