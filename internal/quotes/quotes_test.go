package quotes

import (
	"testing"

	"github.com/google/uuid"
)

func TestBuiltinCatalog(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	all := c.All()
	if len(all) == 0 {
		t.Fatalf("expected quotes")
	}
	q, ok := c.Get(all[0].ID)
	if !ok || q.Text != all[0].Text {
		t.Fatalf("lookup by id failed")
	}
	if _, ok := c.Get(uuid.Nil); ok {
		t.Fatalf("expected nil id to be missing")
	}
}

func TestParseRejectsBadEntries(t *testing.T) {
	cases := map[string]string{
		"bad id":     "- id: nope\n  text: hi\n",
		"empty text": "- id: 6f1c2a9e-4b7d-4e2a-9c3f-1d8e5a7b2c40\n  text: \"  \"\n",
		"empty":      "[]\n",
		"duplicate":  "- id: 6f1c2a9e-4b7d-4e2a-9c3f-1d8e5a7b2c40\n  text: a\n- id: 6f1c2a9e-4b7d-4e2a-9c3f-1d8e5a7b2c40\n  text: b\n",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
