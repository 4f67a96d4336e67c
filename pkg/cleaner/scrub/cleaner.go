package scrub

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Stage names, in pipeline order.
const (
	StageEntities   = "entities"
	StageShortcodes = "shortcodes"
	StageUnsafe     = "unsafe"
	StageArtifacts  = "artifacts"
	StageRepair     = "repair"
	StageSemantics  = "semantics"
	StageWrap       = "wrap"
)

var (
	// ErrStageFailed is returned when a stage panics on its input.
	ErrStageFailed = errors.New("scrub: stage failed")

	// ErrUnsafeOutput is returned when unsafe markup survives every pass.
	ErrUnsafeOutput = errors.New("scrub: unsafe markup survived cleaning")
)

// maxSettlePasses bounds how often the stages after entity decoding are
// re-run when a later stage exposed something an earlier one removes.
const maxSettlePasses = 3

// StageResult is the output of a single stage: the rewritten text and what
// the stage counted while producing it.
type StageResult struct {
	Text   string
	Counts Counts
}

// StageFunc is a pure text transformation.
type StageFunc func(text string) StageResult

// Stage is a named entry in the pipeline.
type Stage struct {
	Name  string
	Apply StageFunc
}

// Cleaner runs the configured stages over content.
// It implements the cleaner.Cleaner interface and is safe for concurrent use.
type Cleaner struct {
	config *Config
	stages []Stage

	// settleFrom indexes the first stage re-run by the settle loop.
	// Entity decoding is never repeated.
	settleFrom int

	mu    sync.Mutex
	stats *Stats
}

// New creates a new Cleaner with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	c := &Cleaner{config: config}
	c.stages = buildStages(config)
	if len(c.stages) > 0 && c.stages[0].Name == StageEntities {
		c.settleFrom = 1
	}
	return c
}

// buildStages returns the enabled stages in their fixed order.
func buildStages(cfg *Config) []Stage {
	var stages []Stage
	if cfg.DecodeEntities {
		stages = append(stages, Stage{StageEntities, DecodeEntities})
	}
	if cfg.StripShortcodes {
		stages = append(stages, Stage{StageShortcodes, newShortcodeStripper(cfg.maxSpan(), cfg.ExtraShortcodes).apply})
	}
	if cfg.StripUnsafe {
		opts := unsafeOptions{
			eventHandlers: cfg.StripEventHandlers,
			inlineStyles:  cfg.StripInlineStyles,
			cssResidue:    cfg.StripCSSResidue,
		}
		stages = append(stages, Stage{StageUnsafe, opts.apply})
	}
	if cfg.StripArtifacts {
		stages = append(stages, Stage{StageArtifacts, RemoveArtifacts})
	}
	if cfg.RepairStructure {
		stages = append(stages, Stage{StageRepair, RepairStructure})
	}
	if cfg.NormalizeSemantics {
		stages = append(stages, Stage{StageSemantics, NormalizeSemantics})
	}
	if cfg.WrapBlocks {
		stages = append(stages, Stage{StageWrap, EnsureWrapped})
	}
	return stages
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "scrub"
}

// Config returns the configuration the cleaner was built with.
func (c *Cleaner) Config() *Config {
	return c.config
}

// Stages returns the names of the enabled stages in execution order.
func (c *Cleaner) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Clean runs the pipeline. On failure it returns an empty string and the
// error; the raw input is never passed through.
func (c *Cleaner) Clean(content string) (string, error) {
	result := c.CleanWithStats(content)
	if result.Error != nil {
		return "", result.Error
	}
	return result.Content, nil
}

// CleanWithStats runs the pipeline and returns the content with the counts
// of every issue fixed.
func (c *Cleaner) CleanWithStats(content string) *Result {
	startTime := time.Now()
	result := &Result{
		Stats: NewStats(),
	}
	result.Stats.InputBytes = len(content)

	text, err := c.settle(content, result)
	switch {
	case err != nil:
		result.Error = err
	case c.config.StripUnsafe && ContainsUnsafeTag(text):
		result.Error = ErrUnsafeOutput
	case text == "":
		result.Content = c.config.EmptyPlaceholder
	default:
		result.Content = text
	}

	result.Stats.OutputBytes = len(result.Content)
	result.Stats.Duration = time.Since(startTime)

	c.mu.Lock()
	c.stats = result.Stats
	c.mu.Unlock()

	return result
}

// Stats returns the stats from the last Clean operation.
func (c *Cleaner) Stats() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// settle runs every stage once, then re-runs the stages after entity
// decoding until the text is stable. Counts from a re-run are kept only
// when it changed the text.
func (c *Cleaner) settle(content string, result *Result) (string, error) {
	text, counts, err := runStages(c.stages, content)
	if err != nil {
		return "", err
	}
	result.Stats.RecordCounts(counts)
	result.Stats.Passes = 1

	rerun := c.stages[c.settleFrom:]
	if len(rerun) == 0 {
		return text, nil
	}
	for attempt := 0; attempt < maxSettlePasses; attempt++ {
		next, counts, err := runStages(rerun, text)
		if err != nil {
			return "", err
		}
		if next == text {
			return text, nil
		}
		result.AddWarning("pipeline", "output changed on re-run", fmt.Sprintf("pass %d", attempt+2))
		result.Stats.RecordCounts(counts)
		result.Stats.Passes++
		text = next
	}
	return text, nil
}

// runStages folds text through stages, merging the counts of each.
func runStages(stages []Stage, text string) (string, Counts, error) {
	total := make(Counts)
	for _, stage := range stages {
		res, err := applyStage(stage, text)
		if err != nil {
			return "", nil, err
		}
		for category, n := range res.Counts {
			total.Add(category, n)
		}
		text = res.Text
	}
	return text, total, nil
}

// applyStage runs one stage and converts a panic into ErrStageFailed.
func applyStage(stage Stage, text string) (res StageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrStageFailed, stage.Name, r)
		}
	}()
	return stage.Apply(text), nil
}

var defaultCleaner = New(nil)

// CleanContent cleans raw with the default configuration. It never panics
// and returns "" when the content could not be cleaned safely.
func CleanContent(raw string) string {
	result := defaultCleaner.CleanWithStats(raw)
	if result.Error != nil {
		return ""
	}
	return result.Content
}
