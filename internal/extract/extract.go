// Package extract pulls the structured nutrition block out of a free-text
// model reply.
package extract

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
)

// objectPattern is greedy: it spans from the first '{' to the last '}'.
var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Object is a JSON object found in a reply. Keys and value types are not
// inspected; numbers are kept as json.Number so the object re-encodes
// exactly as it was written.
type Object map[string]any

// NutritionEstimate is the shape the analyze prompt asks the model for.
type NutritionEstimate struct {
	Calories         float64  `json:"calories"`
	Protein          float64  `json:"protein"`
	Carbs            float64  `json:"carbs"`
	Fats             float64  `json:"fats"`
	ActivityCalories *float64 `json:"activity_calories,omitempty"`
}

// ExtractObject returns the brace-delimited JSON object embedded in text, or
// nil when there is none or it does not parse.
func ExtractObject(text string) Object {
	match := objectPattern.FindString(text)
	if match == "" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(match)))
	dec.UseNumber()

	var obj Object
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	// strict: nothing may follow the object
	if _, err := dec.Token(); err != io.EOF {
		return nil
	}
	return obj
}

// Estimate reads the four macro fields (and activity calories when present)
// from obj. ok is false unless all four macros are numbers.
func Estimate(obj Object) (est NutritionEstimate, ok bool) {
	if obj == nil {
		return est, false
	}
	fields := []struct {
		key string
		dst *float64
	}{
		{"calories", &est.Calories},
		{"protein", &est.Protein},
		{"carbs", &est.Carbs},
		{"fats", &est.Fats},
	}
	for _, f := range fields {
		v, found := number(obj[f.key])
		if !found {
			return NutritionEstimate{}, false
		}
		*f.dst = v
	}
	if v, found := number(obj["activity_calories"]); found {
		est.ActivityCalories = &v
	}
	return est, true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	}
	return 0, false
}
