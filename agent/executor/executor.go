// Package executor drives action plans step by step: eligible-step
// selection, user-input extraction, and the domain backends that do the
// actual work.
package executor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
	"github.com/wareechai/trio-concierge/agent/llmjson"
	planx "github.com/wareechai/trio-concierge/agent/plan"
)

var (
	numberRe   = regexp.MustCompile(`\d+`)
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// extractedFields are filled by a dedicated extractor or by a step's
// own execution; absorption never writes them verbatim.
var extractedFields = map[string]bool{
	"date":                true,
	"time":                true,
	"party_size":          true,
	"guest_count":         true,
	"name":                true,
	"email":               true,
	"phone":               true,
	"selected_restaurant": true,
	"restaurant_id":       true,
	"restaurant_name":     true,
	"search_results":      true,
}

// collectionPrompts maps a required field to the question that asks
// the user for it.
var collectionPrompts = map[string]string{
	"date":                 "What date would you like to make the reservation?",
	"time":                 "What time would you prefer?",
	"party_size":           "How many guests will be dining?",
	"guest_count":          "How many people will be joining you?",
	"name":                 "May I have your name for the reservation?",
	"email":                "What email address should we use for the confirmation?",
	"phone":                "What phone number should we use to contact you?",
	"selected_restaurant":  "Which restaurant would you like to book? Please enter the number.",
	"restaurant_selection": "Please select a restaurant from the list above.",
}

func collectionPrompt(field string) string {
	if p, ok := collectionPrompts[field]; ok {
		return p
	}
	return "Please provide " + field
}

// missingRequired returns the step's required fields not yet collected,
// in declaration order.
func missingRequired(step *planx.ActionStep, collected map[string]string) []string {
	var missing []string
	for _, field := range step.RequiredData {
		if v, ok := collected[field]; !ok || v == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// stepResult is the outcome of executing one step.
type stepResult struct {
	success           bool
	message           string
	requiresUserInput bool
	awaitingInput     string
}

func extractNumber(text string) (int, bool) {
	m := numberRe.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractEmail(text string) (string, bool) {
	m := emailRe.FindString(text)
	return m, m != ""
}

// extractPhone keeps the last ten digits of whatever the user typed.
func extractPhone(text string) (string, bool) {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if len(digits) < 10 {
		return "", false
	}
	return digits[len(digits)-10:], true
}

type dateTimeParts struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// extractDateTime asks the model to normalize free-form date and time
// mentions. Failures return empty parts, never an error.
func extractDateTime(ctx context.Context, llm contract.Completer, text string) dateTimeParts {
	prompt := `Extract the date and time from this text: "` + text + `"

Return in JSON format:
{
    "date": "YYYY-MM-DD",
    "time": "HH:MM"
}

If date or time is not found, use null for that field.
`

	raw, err := llm.Generate(ctx, "", []contract.Message{{Role: contract.RoleUser, Content: prompt}})
	if err != nil {
		log.Warn().Err(err).Msg("datetime extraction failed")
		return dateTimeParts{}
	}

	res, err := llmjson.Decode[dateTimeParts](raw)
	if err != nil {
		log.Warn().Err(err).Msg("datetime extraction undecodable")
		return dateTimeParts{}
	}
	return res.Value
}

func containsField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

func joinFields(fields []string) string {
	return strings.Join(fields, ", ")
}
