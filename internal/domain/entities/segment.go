package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// SegmentStatus represents the lifecycle state of a segment
type SegmentStatus string

const (
	SegmentStatusDraft   SegmentStatus = "draft"   // Created, assets not generated yet
	SegmentStatusReady   SegmentStatus = "ready"   // All assets generated
	SegmentStatusEditing SegmentStatus = "editing" // An edit operation is in flight
	SegmentStatusError   SegmentStatus = "error"   // Last asset generation failed
)

// AssetStatus represents the generation state of a single derived asset
type AssetStatus string

const (
	AssetStatusPending    AssetStatus = "pending"
	AssetStatusGenerating AssetStatus = "generating"
	AssetStatusReady      AssetStatus = "ready"
	AssetStatusFailed     AssetStatus = "failed"
)

// AssetType identifies one of a segment's derived assets
type AssetType string

const (
	AssetTypeVoice    AssetType = "voice"
	AssetTypeImage    AssetType = "image"
	AssetTypeCaptions AssetType = "captions"
)

// VoiceAsset is the generated narration audio for a segment
type VoiceAsset struct {
	URL      string      `json:"url,omitempty"`
	Duration float64     `json:"duration,omitempty"`
	Status   AssetStatus `json:"status"`
}

// ImageAsset is the generated visual for a segment
type ImageAsset struct {
	URL    string      `json:"url,omitempty"`
	Prompt string      `json:"prompt,omitempty"`
	Status AssetStatus `json:"status"`
}

// WordTiming represents a single caption word with time info
type WordTiming struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// CaptionAsset is the word-timed caption track for a segment
type CaptionAsset struct {
	Words  []WordTiming `json:"words,omitempty"`
	Status AssetStatus  `json:"status"`
}

// EditKind tags an entry in a segment's edit history
type EditKind string

const (
	EditKindCreated     EditKind = "created"
	EditKindTextChanged EditKind = "text_changed"
	EditKindSplit       EditKind = "split"
	EditKindReordered   EditKind = "reordered"
	EditKindRegenerated EditKind = "regenerated"
)

// EditRecord is one append-only entry in a segment's edit history
type EditRecord struct {
	At     time.Time `json:"at"`
	Kind   EditKind  `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Segment is one timed unit of video content. Start/end times are assigned
// exclusively by the timeline recalculation pass; duration is the source of
// truth for a segment's length.
type Segment struct {
	ID          string        `json:"id"`
	Index       int           `json:"index"`
	Text        string        `json:"text"`
	Fingerprint string        `json:"fingerprint"`
	StartTime   float64       `json:"start_time"`
	EndTime     float64       `json:"end_time"`
	Duration    float64       `json:"duration"`
	Voice       VoiceAsset    `json:"voice"`
	Image       ImageAsset    `json:"image"`
	Captions    CaptionAsset  `json:"captions"`
	History     []EditRecord  `json:"history,omitempty"`
	Status      SegmentStatus `json:"status"`
	Locked      bool          `json:"locked"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TextFingerprint hashes segment text so text-only changes are cheap to detect
func TextFingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// NewSegment creates a draft segment with pending assets
func NewSegment(text string, duration float64) *Segment {
	now := time.Now()
	s := &Segment{
		ID:          uuid.NewString(),
		Text:        text,
		Fingerprint: TextFingerprint(text),
		Duration:    duration,
		Voice:       VoiceAsset{Status: AssetStatusPending},
		Image:       ImageAsset{Status: AssetStatusPending},
		Captions:    CaptionAsset{Status: AssetStatusPending},
		Status:      SegmentStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.RecordEdit(EditKindCreated, "")
	return s
}

// SetText replaces the segment text and refreshes the fingerprint
func (s *Segment) SetText(text string) {
	if TextFingerprint(text) == s.Fingerprint {
		return
	}
	s.Text = text
	s.Fingerprint = TextFingerprint(text)
	s.UpdatedAt = time.Now()
	s.RecordEdit(EditKindTextChanged, "")
}

// RecordEdit appends an entry to the segment's edit history
func (s *Segment) RecordEdit(kind EditKind, detail string) {
	s.History = append(s.History, EditRecord{At: time.Now(), Kind: kind, Detail: detail})
}

// MarkGenerating puts all derived assets into generating state
func (s *Segment) MarkGenerating() {
	s.Voice.Status = AssetStatusGenerating
	s.Image.Status = AssetStatusGenerating
	s.Captions.Status = AssetStatusGenerating
	s.Status = SegmentStatusEditing
	s.UpdatedAt = time.Now()
}

// MarkAssetGenerating puts a single derived asset into generating state
func (s *Segment) MarkAssetGenerating(asset AssetType) {
	switch asset {
	case AssetTypeVoice:
		s.Voice.Status = AssetStatusGenerating
	case AssetTypeImage:
		s.Image.Status = AssetStatusGenerating
	case AssetTypeCaptions:
		s.Captions.Status = AssetStatusGenerating
	}
	s.Status = SegmentStatusEditing
	s.UpdatedAt = time.Now()
}

// ClearGeneratingMarkers resets any generating asset back to its previous
// non-loading state so the UI does not hang after a failed operation
func (s *Segment) ClearGeneratingMarkers() {
	if s.Voice.Status == AssetStatusGenerating {
		s.Voice.Status = AssetStatusFailed
	}
	if s.Image.Status == AssetStatusGenerating {
		s.Image.Status = AssetStatusFailed
	}
	if s.Captions.Status == AssetStatusGenerating {
		s.Captions.Status = AssetStatusFailed
	}
	s.Status = SegmentStatusError
	s.UpdatedAt = time.Now()
}

// refreshStatus derives the segment lifecycle status from its asset states
func (s *Segment) refreshStatus() {
	switch {
	case s.Voice.Status == AssetStatusFailed || s.Image.Status == AssetStatusFailed || s.Captions.Status == AssetStatusFailed:
		s.Status = SegmentStatusError
	case s.Voice.Status == AssetStatusReady && s.Image.Status == AssetStatusReady && s.Captions.Status == AssetStatusReady:
		s.Status = SegmentStatusReady
	case s.Voice.Status == AssetStatusGenerating || s.Image.Status == AssetStatusGenerating || s.Captions.Status == AssetStatusGenerating:
		s.Status = SegmentStatusEditing
	default:
		s.Status = SegmentStatusDraft
	}
}

// PatchVoice sets the voice asset to ready with its final URL and duration
func (s *Segment) PatchVoice(url string, duration float64) {
	s.Voice = VoiceAsset{URL: url, Duration: duration, Status: AssetStatusReady}
	s.refreshStatus()
	s.UpdatedAt = time.Now()
}

// PatchImage sets the image asset to ready with its final URL
func (s *Segment) PatchImage(url, prompt string) {
	s.Image = ImageAsset{URL: url, Prompt: prompt, Status: AssetStatusReady}
	s.refreshStatus()
	s.UpdatedAt = time.Now()
}

// PatchCaptions sets the caption asset to ready with its word timings
func (s *Segment) PatchCaptions(words []WordTiming) {
	s.Captions = CaptionAsset{Words: words, Status: AssetStatusReady}
	s.refreshStatus()
	s.UpdatedAt = time.Now()
}

// Clone returns a deep copy of the segment
func (s *Segment) Clone() *Segment {
	c := *s
	if s.History != nil {
		c.History = make([]EditRecord, len(s.History))
		copy(c.History, s.History)
	}
	if s.Captions.Words != nil {
		c.Captions.Words = make([]WordTiming, len(s.Captions.Words))
		copy(c.Captions.Words, s.Captions.Words)
	}
	return &c
}

// CloneSegments deep-copies a segment list for lock-free reads
func CloneSegments(segments []*Segment) []*Segment {
	out := make([]*Segment, len(segments))
	for i, s := range segments {
		out[i] = s.Clone()
	}
	return out
}
