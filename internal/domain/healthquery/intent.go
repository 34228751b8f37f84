package healthquery

import "strings"

// Intent is the classified purpose of a query.
type Intent string

const (
	IntentHeartRate Intent = "heart_rate"
	IntentOxygen    Intent = "oxygen"
	IntentTrends    Intent = "trends"
	IntentUnknown   Intent = "unknown"
)

type intentRule struct {
	intent  Intent
	phrases []string
}

// Order matters: the first rule with a matching phrase wins.
var intentRules = []intentRule{
	{intent: IntentHeartRate, phrases: []string{"heart rate", "pulse", "measure heart"}},
	{intent: IntentOxygen, phrases: []string{"blood oxygen", "oxygen", "spo2"}},
	{intent: IntentTrends, phrases: []string{"trends", "history", "previous"}},
}

// Classify maps English text onto an intent by phrase matching.
func Classify(text string) Intent {
	lowered := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lowered, phrase) {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}
