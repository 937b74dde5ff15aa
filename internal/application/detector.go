package application

import (
	"strings"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// Predicate is a single detection check: given arbitrary input text it reports
// whether the category fired and with what confidence score (0-100).
// Predicates must be pure and must not fail for any input; a panicking
// predicate is treated as not-detected for its category.
type Predicate func(text string) (detected bool, confidenceValue int)

// Detector pairs a threat category with its predicate. Category, Confidence
// and Description are static; only the predicate result varies per input.
type Detector struct {
	Category    string
	Confidence  string
	Description string
	Check       Predicate
}

// undetectedScore is the confidence value reported when a category does not fire.
const undetectedScore = 10

// InspectionEngine runs a fixed, ordered set of independent detectors over
// submitted text. Detectors are registered once at construction; iteration
// order is registration order and is stable across calls.
type InspectionEngine struct {
	detectors []Detector
}

// NewInspectionEngine creates an engine with the built-in detector set.
func NewInspectionEngine() *InspectionEngine {
	e := &InspectionEngine{}
	for _, d := range builtinDetectors() {
		e.Register(d)
	}
	return e
}

// Register appends a detector to the set. New categories are added here,
// never by branching inside Inspect.
func (e *InspectionEngine) Register(d Detector) {
	e.detectors = append(e.detectors, d)
}

// Categories returns all registered category labels in registration order.
func (e *InspectionEngine) Categories() []string {
	cats := make([]string, 0, len(e.detectors))
	for _, d := range e.detectors {
		cats = append(cats, d.Category)
	}
	return cats
}

// Inspect produces exactly one verdict per registered detector, in
// registration order. Categories that do not fire are included with
// Detected=false rather than omitted.
func (e *InspectionEngine) Inspect(text string) []model.Verdict {
	verdicts := make([]model.Verdict, 0, len(e.detectors))
	for _, d := range e.detectors {
		detected, score := runPredicate(d.Check, text)
		if !detected {
			score = undetectedScore
		}
		if score < 0 {
			score = 0
		} else if score > 100 {
			score = 100
		}
		verdicts = append(verdicts, model.Verdict{
			Category:        d.Category,
			Confidence:      d.Confidence,
			Description:     d.Description,
			Detected:        detected,
			ConfidenceValue: score,
		})
	}
	return verdicts
}

// runPredicate shields the engine from a faulty detector: a panic is reported
// as not-detected so the verdict list stays total.
func runPredicate(p Predicate, text string) (detected bool, score int) {
	defer func() {
		if recover() != nil {
			detected = false
			score = undetectedScore
		}
	}()
	return p(text)
}

// substringPredicate fires with the given score when the text contains trigger.
func substringPredicate(trigger string, score int) Predicate {
	return func(text string) (bool, int) {
		if strings.Contains(text, trigger) {
			return true, score
		}
		return false, undetectedScore
	}
}

// neverPredicate is used for categories whose backing classifier is not yet
// wired; the category is still reported, always as not-detected.
func neverPredicate(string) (bool, int) {
	return false, undetectedScore
}

func builtinDetectors() []Detector {
	return []Detector{
		{
			Category:    "Prompt Attack",
			Confidence:  "Confident",
			Description: "Manipulative instructions intended to override the model's intended behavior, including prompt injections and jailbreak attempts.",
			Check:       substringPredicate("developer instructions", 90),
		},
		{
			Category:    "Data Leakage",
			Confidence:  "Unlikely",
			Description: "Leakage of sensitive data including Personally Identifiable Information (PII), such as names, email addresses, and credit card numbers.",
			Check:       substringPredicate("374245455400128", 95),
		},
		{
			Category:    "Content Violation",
			Confidence:  "Unlikely",
			Description: "Harmful or inappropriate material, such as hate speech, explicit language, or violence.",
			Check:       substringPredicate("mushrooms", 85),
		},
		{
			Category:    "Unknown Links",
			Confidence:  "Unlikely",
			Description: "Potential malicious link as the URL is not among the top 1 million most popular domains or included in a custom allowlist.",
			Check:       neverPredicate,
		},
	}
}
