// Package langdetect decides whether an article needs translation.
package langdetect

import (
	"errors"

	"github.com/abadojack/whatlanggo"
)

var ErrUndetected = errors.New("language could not be detected")

// Detector returns the ISO 639-1 code of text.
type Detector interface {
	Detect(text string) (string, error)
}

// Whatlang is a deterministic trigram/script detector.
type Whatlang struct{}

func (Whatlang) Detect(text string) (string, error) {
	info := whatlanggo.Detect(text)
	if info.Script == nil || !info.IsReliable() {
		return "", ErrUndetected
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetected
	}
	return code, nil
}

// Classifier compares detected languages against the report language.
type Classifier struct {
	target   string
	detector Detector
}

// NewClassifier uses whatlanggo when detector is nil.
func NewClassifier(target string, detector Detector) *Classifier {
	if detector == nil {
		detector = Whatlang{}
	}
	return &Classifier{target: target, detector: detector}
}

// IsForeign reports whether text is not in the report language. Any
// detection failure counts as foreign so ambiguous input is still translated.
func (c *Classifier) IsForeign(text string) bool {
	lang, err := c.detector.Detect(text)
	if err != nil {
		return true
	}
	return lang != c.target
}
