package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/seedbed/seedbed/pkg/document"
	"github.com/seedbed/seedbed/pkg/seeder"
)

const testPlan = `environment: development
store:
  driver: memory
collections:
  - name: tags
    records:
      - label: alpha
      - label: beta
  - name: products
    generator:
      script: products.star
      minCount: 3
      vars:
        tenant: acme
`

const testScript = `def generate(i):
    return {"name": "item%d" % i, "tenant": tenant}
`

func writePlan(t *testing.T, plan, script string) string {
	t.Helper()

	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(planPath, []byte(plan), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	if script != "" {
		if err := os.WriteFile(filepath.Join(dir, "products.star"), []byte(script), 0o644); err != nil {
			t.Fatalf("write script: %v", err)
		}
	}
	return planPath
}

func TestBuildRuntime_SeedAll(t *testing.T) {
	ctx := context.Background()
	planPath := writePlan(t, testPlan, testScript)

	rt, err := buildRuntime(ctx, planPath, "", "")
	if err != nil {
		t.Fatalf("buildRuntime() error = %v", err)
	}
	defer rt.close(ctx)

	results, err := rt.seedAll(ctx)
	if err != nil {
		t.Fatalf("seedAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("seedAll() returned %d results, want 2", len(results))
	}

	tags := results[0]
	if tags.Collection != "Tags" || tags.Inserted != 2 || tags.Skipped {
		t.Errorf("tags result = %+v, want Tags with 2 insertions", tags)
	}
	products := results[1]
	if products.Collection != "Products" || products.Inserted != 3 {
		t.Errorf("products result = %+v, want Products with 3 insertions", products)
	}

	rec, found, err := rt.store.FindOne(ctx, document.Handle{Name: "Products"}, "name", "item0")
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if !found {
		t.Fatal("FindOne() did not find item0")
	}
	if rec["tenant"] != "acme" {
		t.Errorf("generated record tenant = %v, want acme", rec["tenant"])
	}
}

func TestSeedAll_SecondRunSkips(t *testing.T) {
	ctx := context.Background()
	planPath := writePlan(t, testPlan, testScript)

	rt, err := buildRuntime(ctx, planPath, "", "")
	if err != nil {
		t.Fatalf("buildRuntime() error = %v", err)
	}
	defer rt.close(ctx)

	if _, err := rt.seedAll(ctx); err != nil {
		t.Fatalf("first seedAll() error = %v", err)
	}
	results, err := rt.seedAll(ctx)
	if err != nil {
		t.Fatalf("second seedAll() error = %v", err)
	}
	for _, r := range results {
		if !r.Skipped || r.SkipReason != seeder.SkipReasonAlreadySeeded {
			t.Errorf("%s: second run = %+v, want already-seeded skip", r.Collection, r)
		}
	}
}

func TestCollectionOptions_SchemaRejectsRecord(t *testing.T) {
	ctx := context.Background()
	plan := `environment: development
store:
  driver: memory
collections:
  - name: products
    schema: |
      {
        name: string
        price: int & >=0
        ...
      }
    records:
      - name: widget
        price: -5
`
	planPath := writePlan(t, plan, "")

	rt, err := buildRuntime(ctx, planPath, "", "")
	if err != nil {
		t.Fatalf("buildRuntime() error = %v", err)
	}
	defer rt.close(ctx)

	if _, err := rt.seedAll(ctx); err == nil {
		t.Fatal("seedAll() with schema-violating record succeeded, want error")
	}
	count, err := rt.store.Count(ctx, document.Handle{Name: "Products"})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("count after rejected run = %d, want 0", count)
	}
}
