package interactions

import (
	"encoding/json"
	"testing"
)

func TestOptions_Accessors(t *testing.T) {
	o := Options{
		"owner": json.RawMessage(`"octo"`),
		"issue": json.RawMessage(`12`),
		"typed": json.RawMessage(`" 7 "`),
	}
	if o.String("owner") != "octo" || o.String("missing") != "" {
		t.Fatal("String mismatch")
	}
	if o.String("issue") != "12" {
		t.Fatalf("String of int = %q", o.String("issue"))
	}
	if o.String("typed") != " 7 " {
		t.Fatalf("String(typed) = %q", o.String("typed"))
	}
}

func TestOptions_Decode(t *testing.T) {
	type getIssue struct {
		Owner string `json:"owner" binding:"required"`
		Repo  string `json:"repo" binding:"required"`
		Issue int    `json:"issue" binding:"required,min=1"`
	}

	var ok getIssue
	o := Options{
		"owner": json.RawMessage(`"octo"`),
		"repo":  json.RawMessage(`"hello"`),
		"issue": json.RawMessage(`42`),
	}
	if err := o.Decode(&ok); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ok.Owner != "octo" || ok.Repo != "hello" || ok.Issue != 42 {
		t.Fatalf("decoded = %+v", ok)
	}

	var missing getIssue
	if err := (Options{"owner": json.RawMessage(`"octo"`)}).Decode(&missing); err == nil {
		t.Fatal("want validation error")
	}
}
