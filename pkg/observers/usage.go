package observers

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/speechlab/pkg/metrics"
)

// UsageSummary tallies the billable units of one session: the speech service
// charges recognition by request and synthesis by input character. Each
// capability names its own provider since vendors can be mixed.
type UsageSummary struct {
	SessionID           string `json:"session_id"`
	RecognitionProvider string `json:"recognition_provider,omitempty"`
	TranslationProvider string `json:"translation_provider,omitempty"`
	SynthesisProvider   string `json:"synthesis_provider,omitempty"`
	RecognitionCalls    int    `json:"recognition_calls"`
	TranslationCalls    int    `json:"translation_calls"`
	ContinuousSessions  int    `json:"continuous_sessions"`
	SynthesisCalls      int    `json:"synthesis_calls"`
	SynthesizedChars    int    `json:"synthesized_characters"`
	AudioBytes          int    `json:"audio_bytes"`
	RecordedAtUTC       string `json:"recorded_at_utc"`
}

// UsageObserver accumulates UsageSummary per session and writes them as
// <session>.usage.json on Flush.
type UsageObserver struct {
	dir   string
	mu    sync.Mutex
	stats map[string]*UsageSummary
}

func NewUsageObserver(dir string) *UsageObserver {
	return &UsageObserver{dir: dir, stats: make(map[string]*UsageSummary)}
}

func (o *UsageObserver) RecordEvent(ev metrics.MetricsEvent) {
	id := ev.Tags[metrics.TagSessionID]
	if id == "" || strings.TrimSpace(o.dir) == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	stat := o.stats[id]
	if stat == nil {
		stat = &UsageSummary{SessionID: id}
		o.stats[id] = stat
	}
	provider := ev.Tags[metrics.TagProvider]
	switch ev.Name {
	case metrics.EventRecognizeOnce:
		stat.RecognitionCalls++
		setProvider(&stat.RecognitionProvider, provider)
	case metrics.EventTranslateOnce:
		stat.TranslationCalls++
		setProvider(&stat.TranslationProvider, provider)
	case metrics.EventContinuousStart:
		stat.ContinuousSessions++
		setProvider(&stat.RecognitionProvider, provider)
	case metrics.EventSynthesize:
		stat.SynthesisCalls++
		setProvider(&stat.SynthesisProvider, provider)
		stat.SynthesizedChars += intField(ev.Fields, "characters")
		stat.AudioBytes += intField(ev.Fields, "audio_bytes")
	}
}

// Flush writes one summary file per session seen so far.
func (o *UsageObserver) Flush() error {
	if strings.TrimSpace(o.dir) == "" {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.stats) == 0 {
		return nil
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}
	var errOut error
	for id, stat := range o.stats {
		stat.RecordedAtUTC = time.Now().UTC().Format(time.RFC3339)
		b, err := json.MarshalIndent(stat, "", "  ")
		if err != nil {
			errOut = errors.Join(errOut, err)
			continue
		}
		path := filepath.Join(o.dir, sanitizeID(id)+usageSuffix)
		if err := os.WriteFile(path, b, 0o644); err != nil {
			errOut = errors.Join(errOut, err)
		}
	}
	return errOut
}

func setProvider(dst *string, provider string) {
	if provider != "" {
		*dst = provider
	}
}

const usageSuffix = ".usage.json"

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

var _ metrics.Flusher = (*UsageObserver)(nil)
