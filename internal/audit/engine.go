package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/partsignal/content-audit/internal/extract"
	"github.com/partsignal/content-audit/internal/metrics"
	"github.com/partsignal/content-audit/internal/progress"
)

// Engine produces one Result per target: fetch the page, then score it
// strictly from the fetched text. Targets are audited sequentially by the
// orchestrator; the engine itself holds no per-target state.
type Engine struct {
	gen      TextGenerator
	fetcher  ContentFetcher
	archiver Archiver
	emitter  progress.Emitter
	logger   *zap.Logger
}

// NewEngine builds an Engine. The emitter and archiver may be nil.
func NewEngine(gen TextGenerator, fetcher ContentFetcher, archiver Archiver, emitter progress.Emitter, logger *zap.Logger) (*Engine, error) {
	if gen == nil {
		return nil, fmt.Errorf("audit engine requires a text generator")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("audit engine requires a content fetcher")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{gen: gen, fetcher: fetcher, archiver: archiver, emitter: emitter, logger: logger}, nil
}

// Audit runs the fetch-then-score protocol for one target. A fetch failure
// or empty page yields a blocked Result and a nil error: blocked is data,
// not an error. Only generation or parse failures are returned as errors.
func (e *Engine) Audit(ctx context.Context, session [16]byte, target Target) (Result, error) {
	if err := target.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()
	e.emit(progress.Event{
		SessionID: session, TS: start, Stage: progress.StageAuditStart,
		Site: target.SiteName, URL: target.URL,
	})

	page, err := e.fetcher.Fetch(ctx, target.URL)
	if err != nil || strings.TrimSpace(page.Content) == "" {
		if err != nil {
			e.logger.Warn("page fetch failed, audit blocked",
				zap.String("site", target.SiteName),
				zap.String("url", target.URL),
				zap.Error(err))
		} else {
			e.logger.Warn("page fetch returned no content, audit blocked",
				zap.String("site", target.SiteName),
				zap.String("url", target.URL))
		}
		metrics.ObserveFetch("blocked")
		result := blockedResult(target)
		e.emit(progress.Event{
			SessionID: session, TS: time.Now(), Stage: progress.StageAuditDone,
			Site: target.SiteName, URL: target.URL, Dur: time.Since(start),
			Note: "blocked",
		})
		return result, nil
	}
	metrics.ObserveFetch("ok")

	raw, err := e.gen.Generate(ctx, buildAuditPrompt(target, page.Content))
	if err != nil {
		metrics.ObserveGeneration("audit", "error")
		return Result{}, fmt.Errorf("audit %s: generation failed: %w", target.SiteName, err)
	}
	parsed, err := extract.Parse[auditResponse](raw)
	if err != nil {
		metrics.ObserveGeneration("audit", "unparseable")
		return Result{}, fmt.Errorf("audit %s: %w", target.SiteName, err)
	}
	metrics.ObserveGeneration("audit", "ok")

	result := buildResult(target, page, parsed)
	if e.archiver != nil {
		uri, archiveErr := e.archiver.Archive(ctx, session, target.SiteName, []byte(page.Content))
		if archiveErr != nil {
			e.logger.Warn("snapshot archive failed",
				zap.String("site", target.SiteName), zap.Error(archiveErr))
		} else {
			result.SnapshotURI = uri
		}
	}
	metrics.ObserveAuditResult(string(result.ContentSource))
	e.logger.Info("audit complete",
		zap.String("site", target.SiteName),
		zap.String("role", string(target.Role)),
		zap.Intp("score", result.OverallScore),
		zap.Duration("dur", time.Since(start)))
	e.emit(progress.Event{
		SessionID: session, TS: time.Now(), Stage: progress.StageAuditDone,
		Site: target.SiteName, URL: target.URL, Dur: time.Since(start),
	})
	return result, nil
}

func (e *Engine) emit(evt progress.Event) {
	if e.emitter != nil {
		e.emitter.Emit(evt)
	}
}

// auditResponse is the generation service's JSON shape. The overall score
// and top gaps it reports are advisory; both are recomputed from the field
// scores so a result can never contradict its own field map.
type auditResponse struct {
	OverallScore int                          `json:"overallScore"`
	TopGaps      []FieldKey                   `json:"topGaps"`
	Summary      string                       `json:"summary"`
	Fields       map[FieldKey]FieldAssessment `json:"fields"`
}

func blockedResult(target Target) Result {
	return Result{
		SiteName:      target.SiteName,
		Role:          target.Role,
		URL:           target.URL,
		ContentSource: SourceBlocked,
	}
}

func buildResult(target Target, page Page, resp auditResponse) Result {
	rubric := FieldsForRole(target.Role)
	fields := make(map[FieldKey]FieldAssessment, len(rubric))
	for _, def := range rubric {
		fa, ok := resp.Fields[def.Key]
		if !ok {
			fields[def.Key] = FieldAssessment{Value: "MISSING", Score: ScoreLow, Notes: "not assessed"}
			continue
		}
		if _, known := fa.Score.Weight(); !known {
			fa.Score = ScoreLow
		}
		if strings.TrimSpace(fa.Value) == "" {
			fa.Value = "MISSING"
		}
		fields[def.Key] = fa
	}

	overall := overallScore(rubric, fields)
	return Result{
		SiteName:         target.SiteName,
		Role:             target.Role,
		URL:              target.URL,
		ContentSource:    SourceLive,
		ContentTruncated: page.Truncated,
		OverallScore:     &overall,
		TopGaps:          topGaps(rubric, fields),
		Summary:          resp.Summary,
		Fields:           fields,
	}
}

// overallScore is the weighted average of field scores: high=100,
// medium=50, low=0.
func overallScore(rubric []FieldDef, fields map[FieldKey]FieldAssessment) int {
	if len(rubric) == 0 {
		return 0
	}
	total := 0
	for _, def := range rubric {
		w, _ := fields[def.Key].Score.Weight()
		total += w
	}
	return total / len(rubric)
}

// topGaps returns up to 3 field keys scored below high, in rubric order.
func topGaps(rubric []FieldDef, fields map[FieldKey]FieldAssessment) []FieldKey {
	var gaps []FieldKey
	for _, def := range rubric {
		if fields[def.Key].Score != ScoreHigh {
			gaps = append(gaps, def.Key)
			if len(gaps) == 3 {
				break
			}
		}
	}
	return gaps
}

func buildAuditPrompt(target Target, content string) string {
	rubric := FieldsForRole(target.Role)

	roleNote := "This is a DISTRIBUTOR site - evaluate ALL fields including price and availability."
	if target.Role == RoleManufacturer {
		roleNote = "This is the MANUFACTURER site - source of truth. Do NOT evaluate pricing or availability."
	}

	fieldList := make([]string, len(rubric))
	fieldSchema := make([]string, len(rubric))
	for i, def := range rubric {
		fieldList[i] = fmt.Sprintf("%s: %s", def.Key, def.Label)
		fieldSchema[i] = fmt.Sprintf("%q:{\"value\":\"\",\"score\":\"low\",\"notes\":\"\"}", def.Key)
	}

	var sb strings.Builder
	sb.WriteString("You are auditing a product listing for a content quality comparison.\n")
	fmt.Fprintf(&sb, "Site: %s | Role: %s | URL: %s | Part: %s | Manufacturer: %s\n",
		target.SiteName, target.Role, target.URL, target.PartNumber, target.Manufacturer)
	sb.WriteString(roleNote)
	sb.WriteString("\n\nScore STRICTLY from the page content supplied below. Never use background knowledge about this product; if the content does not show a field, score it low and mark the value MISSING.\n")
	sb.WriteString("For each field: \"value\" (max 30 words or \"MISSING\"), \"score\" (\"high\"/\"medium\"/\"low\"), \"notes\" (gap note if not high, else \"\").\n")
	fmt.Fprintf(&sb, "Fields: %s\n", strings.Join(fieldList, ", "))
	sb.WriteString("Also: \"overallScore\" (0-100), \"topGaps\" (3 field keys), \"summary\" (2 sentences).\n")
	sb.WriteString("Respond ONLY with valid JSON no markdown:\n")
	fmt.Fprintf(&sb, "{\"siteName\":%q,\"role\":%q,\"url\":%q,\"overallScore\":0,\"topGaps\":[],\"summary\":\"\",\"fields\":{%s}}\n",
		target.SiteName, target.Role, target.URL, strings.Join(fieldSchema, ","))
	sb.WriteString("\n--- PAGE CONTENT START ---\n")
	sb.WriteString(content)
	sb.WriteString("\n--- PAGE CONTENT END ---\n")
	return sb.String()
}
