// Package taxonomy is the fixed catalogue of fair-competition review rules.
// Label ids 1..54 are the rule statements of the review standard; id 0 means
// the sentence does not violate any rule.
package taxonomy

import "fmt"

// NoViolation is the label id the classifier emits for compliant sentences.
const NoViolation = 0

// Count is the number of label ids, including NoViolation.
const Count = len(rules)

// Lookup returns the rule text for id.
func Lookup(id int) (string, bool) {
	if id < 0 || id >= len(rules) {
		return "", false
	}
	return rules[id], true
}

// Name returns the rule text for id, or a placeholder naming the unknown id.
func Name(id int) string {
	if text, ok := Lookup(id); ok {
		return text
	}
	return fmt.Sprintf("未知类型（ID：%d）", id)
}

// Rule is one catalogue entry.
type Rule struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Violations returns rules 1..54 in id order.
func Violations() []Rule {
	out := make([]Rule, 0, len(rules)-1)
	for id := 1; id < len(rules); id++ {
		out = append(out, Rule{ID: id, Text: rules[id]})
	}
	return out
}

//Personal.AI order the ending
