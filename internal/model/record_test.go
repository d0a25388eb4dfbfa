package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStringList_UnmarshalArray(t *testing.T) {
	var s StringList
	if err := json.Unmarshal([]byte(`["Jane Doe", "John Smith"]`), &s); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !reflect.DeepEqual([]string(s), []string{"Jane Doe", "John Smith"}) {
		t.Errorf("Unexpected list: %v", s)
	}
}

func TestStringList_UnmarshalSingleString(t *testing.T) {
	var s StringList
	if err := json.Unmarshal([]byte(`"Jane Doe, John Smith"`), &s); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// A flat string stays one element; the normalizer splits it
	if len(s) != 1 || s[0] != "Jane Doe, John Smith" {
		t.Errorf("Unexpected list: %v", s)
	}
}

func TestStringList_UnmarshalEmptyAndNull(t *testing.T) {
	for _, in := range []string{`""`, `null`, `[]`} {
		var s StringList
		if err := json.Unmarshal([]byte(in), &s); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if len(s) != 0 {
			t.Errorf("Unmarshal(%s): expected empty list, got %v", in, s)
		}
	}
}

func TestStringList_UnmarshalRejectsOtherShapes(t *testing.T) {
	var s StringList
	if err := json.Unmarshal([]byte(`{"name": "Jane"}`), &s); err == nil {
		t.Error("Expected error for object input")
	}
}

func TestCompanyRecord_JSONShape(t *testing.T) {
	rec := CompanyRecord{
		Seq:          1,
		CompanyName:  "Acme Corp",
		FoundingDate: "1998",
		Founders:     []string{"Jane Doe"},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := decoded["Seq"]; ok {
		t.Error("Sequence number must not appear in JSON output")
	}
	if decoded["company_name"] != "Acme Corp" {
		t.Errorf("Unexpected company_name: %v", decoded["company_name"])
	}
}
