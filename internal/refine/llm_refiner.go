package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pathforge/api/internal/client"
	"github.com/pathforge/api/internal/logging"
	"github.com/pathforge/api/internal/model"
)

const systemPrompt = `You are an industrial robot programmer. Rewrite the draft motion program you are given into clean, controller-ready code for the named language.
Keep every waypoint coordinate and the waypoint order exactly as in the draft. Do not add gripper or IO instructions.
Reply with the complete program in one fenced code block labeled with the language name.`

var dialectHints = map[model.Dialect]string{
	model.DialectKAREL: "KAREL for FANUC controllers",
	model.DialectKRL:   "KRL for KUKA controllers",
	model.DialectRAPID: "RAPID for ABB controllers",
}

// Options configures an LLMRefiner
type Options struct {
	MaxPoints int
	Timeout   time.Duration
}

// LLMRefiner refines each draft with one bounded text-generation call
type LLMRefiner struct {
	gen    client.TextGenerator
	opts   Options
	logger *zap.Logger
}

func NewLLMRefiner(gen client.TextGenerator, opts Options, logger *zap.Logger) *LLMRefiner {
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = 50
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger = logging.OrNop(logger)
	return &LLMRefiner{gen: gen, opts: opts, logger: logger}
}

// Refine calls the generator once per dialect concurrently. Failed dialects are
// logged and omitted.
func (r *LLMRefiner) Refine(ctx context.Context, path model.Path, drafts map[model.Dialect]string) map[model.Dialect]string {
	out := make(map[model.Dialect]string)
	if r.gen == nil || !r.gen.IsConfigured() {
		r.logger.Warn("refinement skipped: text generator not configured")
		return out
	}

	excerpt := truncatePath(path, r.opts.MaxPoints)
	pathJSON, err := json.Marshal(excerpt)
	if err != nil {
		r.logger.Warn("refinement skipped: encode path", zap.Error(err))
		return out
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, d := range model.Dialects {
		draft, ok := drafts[d]
		if !ok || strings.TrimSpace(draft) == "" {
			continue
		}
		g.Go(func() error {
			text, err := r.refineOne(ctx, d, draft, string(pathJSON), len(excerpt.Points), path.Len())
			if err != nil {
				r.logger.Warn("refinement failed",
					zap.String("dialect", string(d)),
					zap.String("generator", r.gen.Name()),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			out[d] = text
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *LLMRefiner) refineOne(ctx context.Context, d model.Dialect, draft, pathJSON string, shown, total int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	reply, err := r.gen.ChatCompletion(ctx, systemPrompt, buildPrompt(d, draft, pathJSON, shown, total))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, ok := ParseSections(reply).For(d)
	if !ok {
		return "", fmt.Errorf("no %s section in reply", d)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty program in reply")
	}
	return text, nil
}

func buildPrompt(d model.Dialect, draft, pathJSON string, shown, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target language: %s.\n", dialectHints[d])
	if shown < total {
		fmt.Fprintf(&b, "Path in meters (first %d of %d waypoints):\n", shown, total)
	} else {
		fmt.Fprintf(&b, "Path in meters (%d waypoints):\n", total)
	}
	b.WriteString(pathJSON)
	fmt.Fprintf(&b, "\n\nDraft program:\n```%s\n%s```\n", d, strings.TrimRight(draft, "\n")+"\n")
	return b.String()
}

// truncatePath keeps the first n waypoints and the grasp events that refer to them
func truncatePath(path model.Path, n int) model.Path {
	if path.Len() <= n {
		return path
	}
	out := model.Path{
		Points:   path.Points[:n],
		Fixtures: path.Fixtures,
	}
	for _, ev := range path.GraspEvents {
		if ev.Index < n {
			out.GraspEvents = append(out.GraspEvents, ev)
		}
	}
	return out
}
