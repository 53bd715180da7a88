package answer

import (
	"reflect"
	"testing"
)

func TestSources_DistinctRankOrder(t *testing.T) {
	results := []Result{
		NewResult("a", "t1", "docs/k8s/argo.pdf", 0, 0.91),
		NewResult("b", "t2", "docs/k8s/helm.pdf", 2, 0.85),
		NewResult("c", "t3", "docs/k8s/argo.pdf", 1, 0.80),
		NewResult("d", "t4", "docs/k8s/helm.pdf", 0, 0.74),
	}

	got := Sources(results)
	want := []string{"docs/k8s/argo.pdf", "docs/k8s/helm.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sources = %v, want %v", got, want)
	}
}

func TestSources_Empty(t *testing.T) {
	if got := Sources(nil); len(got) != 0 {
		t.Errorf("Sources(nil) = %v, want empty", got)
	}
}
