package staticdata_test

import (
	"testing"

	"stitchkart/internal/staticdata"
)

func TestLoad(t *testing.T) {
	c, err := staticdata.Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() == 0 {
		t.Fatal("bundled dataset must not be empty")
	}
	for _, r := range c.Filter("", 0) {
		if r.Source != "static" || r.Title == "" || r.Price <= 0 {
			t.Fatalf("bad bundled record: %+v", r)
		}
	}
}

func TestFilter_UnmatchedCategoryFallsBackToAll(t *testing.T) {
	c, err := staticdata.Load()
	if err != nil {
		t.Fatal(err)
	}
	got := c.Filter("no such category", 10)
	if len(got) == 0 {
		t.Fatal("an unmatched category must still return records")
	}
	if len(got) > 10 {
		t.Fatalf("limit ignored: %d", len(got))
	}
}
