package dispatcher

import "testing"

func TestExtractJSONObjectPlain(t *testing.T) {
	got, err := extractJSONObject(`{"function":"get_current_time","parameters":{}}`)
	if err != nil {
		t.Fatalf("extractJSONObject() error = %v", err)
	}
	if got != `{"function":"get_current_time","parameters":{}}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONObjectToleratesMarkdownFences(t *testing.T) {
	raw := "Here is my decision:\n```json\n{\"function\": \"chat\", \"parameters\": {}}\n```\nThanks!"
	got, err := extractJSONObject(raw)
	if err != nil {
		t.Fatalf("extractJSONObject() error = %v", err)
	}
	if got != `{"function": "chat", "parameters": {}}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONObjectHandlesNestedBraces(t *testing.T) {
	raw := `{"function":"open_application","parameters":{"app_name":"notepad"}}`
	got, err := extractJSONObject(raw)
	if err != nil {
		t.Fatalf("extractJSONObject() error = %v", err)
	}
	if got != raw {
		t.Fatalf("got %q, want %q", got, raw)
	}
}

func TestExtractJSONObjectReturnsErrorWhenNoBraces(t *testing.T) {
	_, err := extractJSONObject("I don't know what to do.")
	if err == nil {
		t.Fatal("expected error for input with no JSON object")
	}
}
