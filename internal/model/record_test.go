package model

import (
	"encoding/json"
	"testing"
)

func developModel(t *testing.T) *Model {
	t.Helper()
	reg, err := NewBuiltinRegistry()
	if err != nil {
		t.Fatalf("NewBuiltinRegistry: %v", err)
	}
	m, ok := reg.Lookup(ModelDevelopMrRobot)
	if !ok {
		t.Fatalf("model %s not registered", ModelDevelopMrRobot)
	}
	return m
}

func TestRecordMarshalJSON(t *testing.T) {
	r := NewRecord(developModel(t), "test_data").
		Set("host", "test_host").
		Set("port", int64(1111)).
		Set("database", "test_database").
		Set("user", "test_user").
		Set("password", "test_password").
		Set("schema", "test_schema")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Data":"test_data","Host":"test_host","Port":1111,"Database":"test_database","User":"test_user","Password":"test_password","Schema":"test_schema"}`
	if string(data) != want {
		t.Fatalf("got  %s\nwant %s", data, want)
	}
}

func TestRecordMarshalJSON_NullColumn(t *testing.T) {
	r := NewRecord(developModel(t), "k").Set("host", "h")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["Port"] != nil {
		t.Errorf("Port = %v, want null", got["Port"])
	}
	if got["Host"] != "h" {
		t.Errorf("Host = %v, want h", got["Host"])
	}
}

func TestRecordWireFields(t *testing.T) {
	r := NewRecord(developModel(t), "k").Set("port", int64(5432))
	fields := r.WireFields()
	if fields["Data"] != "k" || fields["Port"] != int64(5432) {
		t.Fatalf("WireFields = %v", fields)
	}
	if len(fields) != 7 {
		t.Fatalf("expected 7 wire fields, got %d", len(fields))
	}
}

func TestValidateRecord(t *testing.T) {
	m := developModel(t)
	for _, tc := range []struct {
		name    string
		record  *Record
		wantErr bool
	}{
		{"Valid", NewRecord(m, "k").Set("host", "h").Set("port", int64(1)), false},
		{"NilAllowed", NewRecord(m, "k").Set("host", nil), false},
		{"MissingData", NewRecord(m, "").Set("host", "h"), true},
		{"WrongStringType", NewRecord(m, "k").Set("host", 1), true},
		{"WrongIntegerType", NewRecord(m, "k").Set("port", "1111"), true},
		{"PlainIntRejected", NewRecord(m, "k").Set("port", 1111), true},
		{"UnknownColumn", NewRecord(m, "k").Set("virtualhost", "v"), true},
		{"NoModel", &Record{Data: "k"}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRecord(tc.record)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateRecord() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
