package contract

import (
	"encoding/json"
	"fmt"

	"github.com/groblegark/configstore/internal/model"
)

// Expectation is the response a case must produce: either a record or one of
// the lookup error messages.
type Expectation struct {
	Record *model.Record
	Error  string
}

// Case is a single request of the contract.
type Case struct {
	Group string // behaviour under test, e.g. "nonexistent_data"
	Name  string
	Body  []byte
	Want  Expectation
}

const (
	corruptSuffix = "incorrect_suffix"
	punctuation   = `!@#$%^&*()"<>/.,`
)

var (
	wantNotFound   = Expectation{Error: model.ErrRecordNotFound.Error()}
	wantNotPresent = Expectation{Error: model.ErrModelNotPresent.Error()}
	wantBadInput   = Expectation{Error: model.ErrBadInput.Error()}
)

// Cases enumerates the lookup contract for the given fixtures, followed by
// the fixture-independent cases.
func Cases(fixtures []*model.Record) []Case {
	var cases []Case
	add := func(group, name string, body map[string]any, want Expectation) {
		cases = append(cases, Case{Group: group, Name: group + "/" + name, Body: encode(body), Want: want})
	}

	for _, f := range fixtures {
		typ, data := f.Model.Name, f.Data

		add("success", typ, map[string]any{"Type": typ, "Data": data}, Expectation{Record: f})

		add("nonexistent_data", typ, map[string]any{"Type": typ, "Data": data + corruptSuffix}, wantNotFound)
		add("nonexistent_type", typ, map[string]any{"Type": typ + corruptSuffix, "Data": data}, wantNotPresent)
		add("nonexistent_type_and_data", typ,
			map[string]any{"Type": typ + corruptSuffix + "_type", "Data": data + corruptSuffix + "_data"}, wantNotPresent)

		add("without_data", typ, map[string]any{"Type": typ}, wantNotFound)
		add("without_data", typ+"/bad_type", map[string]any{"Type": typ + "incorrect suffix"}, wantNotPresent)

		add("without_type", typ, map[string]any{"Data": data}, wantNotPresent)
		add("without_type", typ+"/bad_data", map[string]any{"Data": data + "incorrect suffix"}, wantNotPresent)

		for _, v := range []any{"", nil, punctuation} {
			add("format_type", fmt.Sprintf("%s/%s", typ, describe(v)), map[string]any{"Type": v, "Data": data}, wantNotPresent)
		}
		add("format_type", typ+"/integer", map[string]any{"Type": 1111, "Data": data}, wantBadInput)

		for _, v := range []any{"", nil, punctuation} {
			add("format_data", fmt.Sprintf("%s/%s", typ, describe(v)), map[string]any{"Type": typ, "Data": v}, wantNotFound)
		}
		add("format_data", typ+"/integer", map[string]any{"Type": typ, "Data": 1111}, wantBadInput)
		add("format_data", typ+"/integer_unknown_type", map[string]any{"Type": typ + corruptSuffix, "Data": 1111}, wantNotPresent)
	}

	add("empty_request", "object", map[string]any{}, wantNotPresent)
	add("only_nonexistent_field", "Type_new", map[string]any{"Type_new": model.ModelDevelopMrRobot}, wantNotPresent)
	add("child_type", "child", map[string]any{"Type": "child", "Data": "existentSample"}, wantNotPresent)
	if len(fixtures) > 0 {
		f := fixtures[0]
		add("nonexistent_field", f.Model.Name,
			map[string]any{"Type": f.Model.Name, "Data": f.Data, "Type_new": model.ModelDevelopMrRobot},
			Expectation{Record: f})
	}
	return cases
}

func encode(body map[string]any) []byte {
	b, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("contract: encoding case body: %v", err))
	}
	return b
}

func describe(v any) string {
	switch v {
	case nil:
		return "null"
	case "":
		return "empty"
	default:
		return "punctuation"
	}
}
