package prompt

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yaroslav/gcompute/models"
)

func named(names ...string) []models.Resource {
	out := make([]models.Resource, len(names))
	for i, n := range names {
		out[i] = models.Resource{"name": n}
	}
	return out
}

func TestSafetyPrompt(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		args       []string
		input      string
		want       bool
		wantOutput string
	}{
		{"yes", "Take scary action", nil, "Y\n\r", true, "Take scary action? [y/N]\n>>> "},
		{"yes with args", "Act on", []string{"arg1", "arg2"}, "Y\n\r", true, "Act on arg1, arg2? [y/N]\n>>> "},
		{"leading spaces", "Delete", nil, "   yes\n", true, "Delete? [y/N]\n>>> "},
		{"garbage", "Take scary action", nil, "garbage\n\r", false, "Take scary action? [y/N]\n>>> "},
		{"empty answer", "Take scary action", nil, "\n", false, "Take scary action? [y/N]\n>>> "},
		{"closed input", "Take scary action", nil, "", false, "Take scary action? [y/N]\n>>> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := New(strings.NewReader(tt.input), &out, nil)
			if got := p.SafetyPrompt(tt.prompt, tt.args); got != tt.want {
				t.Errorf("SafetyPrompt() = %v, want %v", got, tt.want)
			}
			if out.String() != tt.wantOutput {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOutput)
			}
		})
	}
}

func TestProceed(t *testing.T) {
	tests := []struct {
		message string
		input   string
		want    bool
		prompt  string
	}{
		{"Move instances?", "y\n", true, "Move instances? Proceed? [y/N] "},
		{"", " Y \n", true, "Proceed? [y/N] "},
		{"", "yes\n", false, "Proceed? [y/N] "},
		{"", "", false, "Proceed? [y/N] "},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		p := New(strings.NewReader(tt.input), &out, nil)
		if got := p.Proceed(tt.message); got != tt.want {
			t.Errorf("Proceed(%q) with %q = %v, want %v", tt.message, tt.input, got, tt.want)
		}
		if out.String() != tt.prompt {
			t.Errorf("prompt = %q, want %q", out.String(), tt.prompt)
		}
	}
}

func TestChoose_ZeroItems(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out, nil)
	got, err := p.Choose(nil, "collection", ChoiceOptions{AutoSelect: true})
	if err != nil || got != nil {
		t.Errorf("Choose() = %v, %v; want nil, nil", got, err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestChoose_OneItem(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out, nil)
	got, err := p.Choose(named("item-1"), "collection", ChoiceOptions{AutoSelect: true})
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if got.Name() != "item-1" {
		t.Errorf("Choose() = %v, want item-1", got)
	}
	if want := "Selecting the only available collection: item-1\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestChoose_OneDeprecatedItemWarns(t *testing.T) {
	var out bytes.Buffer
	core, logs := observer.New(zap.WarnLevel)
	p := New(strings.NewReader(""), &out, zap.New(core))

	item := models.Resource{"name": "item-1", "deprecated": map[string]interface{}{"state": "DEPRECATED"}}
	got, err := p.Choose([]models.Resource{item}, "collection", ChoiceOptions{AutoSelect: true})
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if got.Name() != "item-1" {
		t.Errorf("Choose() = %v, want item-1", got)
	}
	if want := "Selecting the only available collection: item-1\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if logs.FilterMessage("Warning: item-1 is deprecated!").Len() != 1 {
		t.Errorf("expected deprecation warning, got %v", logs.All())
	}
}

func TestChoose_ManyItems(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("3\n"), &out, nil)
	got, err := p.Choose(named("item-1", "item-2", "item-3", "item-4"), "collection", ChoiceOptions{})
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if got.Name() != "item-3" {
		t.Errorf("Choose() = %v, want item-3", got)
	}
	want := strings.Join([]string{"1: item-1", "2: item-2", "3: item-3", "4: item-4", ">>> "}, "\n")
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestChoose_SortScore(t *testing.T) {
	choices := named(
		"n1-highcpu-4-d", "n1-standard-2", "n1-standard-1-d", "n1-standard-8-d",
		"n1-highcpu-8-d", "n1-standard-2-d", "n1-standard-1", "n1-standard-4",
		"n1-highmem-4", "n1-highcpu-4", "n1-highcpu-2", "n1-standard-4-d",
		"n1-standard-8", "n1-highmem-2", "n1-highmem-2-d", "n1-highcpu-2-d",
		"n1-highmem-8", "n1-highcpu-8", "n1-highmem-8-d", "n1-highmem-4-d",
	)

	var out bytes.Buffer
	p := New(strings.NewReader("3\n"), &out, nil)
	got, err := p.Choose(choices, "machine type", ChoiceOptions{SortScore: MachineTypeSortScore})
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if got.Name() != "n1-standard-2" {
		t.Errorf("Choose() = %v, want n1-standard-2", got)
	}

	want := strings.Join([]string{
		"1: n1-standard-1",
		"2: n1-standard-1-d",
		"3: n1-standard-2",
		"4: n1-standard-2-d",
		"5: n1-standard-4",
		"6: n1-standard-4-d",
		"7: n1-standard-8",
		"8: n1-standard-8-d",
		"9: n1-highcpu-2",
		"10: n1-highcpu-2-d",
		"11: n1-highcpu-4",
		"12: n1-highcpu-4-d",
		"13: n1-highcpu-8",
		"14: n1-highcpu-8-d",
		"15: n1-highmem-2",
		"16: n1-highmem-2-d",
		"17: n1-highmem-4",
		"18: n1-highmem-4-d",
		"19: n1-highmem-8",
		"20: n1-highmem-8-d",
		">>> ",
	}, "\n")
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestChoose_DeprecatedItems(t *testing.T) {
	deprecated := func(name, state string) models.Resource {
		return models.Resource{"name": name, "deprecated": map[string]interface{}{"state": state}}
	}
	choices := []models.Resource{
		deprecated("item-1", "DEPRECATED"),
		{"name": "item-2"},
		deprecated("item-3", "OBSOLETE"),
		{"name": "item-4"},
		deprecated("item-5", "DEPRECATED"),
		deprecated("item-6", "DELETED"),
	}

	var out bytes.Buffer
	p := New(strings.NewReader("3\n"), &out, nil)
	got, err := p.Choose(choices, "collection", ChoiceOptions{AutoSelect: true})
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if got.Name() != "item-1" {
		t.Errorf("Choose() = %v, want item-1", got)
	}
	want := strings.Join([]string{"1: item-2", "2: item-4", "3: item-1 (DEPRECATED)", "4: item-5 (DEPRECATED)", ">>> "}, "\n")
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestChoose_InvalidSelection(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("0\nabc\n2\n"), &out, nil)
	got, err := p.Choose(named("a", "b"), "disk", ChoiceOptions{})
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if got.Name() != "b" {
		t.Errorf("Choose() = %v, want b", got)
	}
	if n := strings.Count(out.String(), "Invalid selection, please choose one of the listed disks\n"); n != 2 {
		t.Errorf("invalid selection message printed %d times, want 2", n)
	}
}

func TestChoose_InputEnds(t *testing.T) {
	p := New(strings.NewReader("7\n"), &bytes.Buffer{}, nil)
	if _, err := p.Choose(named("a", "b"), "disk", ChoiceOptions{}); err != ErrNoInput {
		t.Errorf("Choose() error = %v, want ErrNoInput", err)
	}
}

func TestMachineTypeSortScore(t *testing.T) {
	tests := map[string]int{
		"n1-standard-1":  0,
		"n1-highcpu-2-d": 1,
		"n1-highmem-8":   2,
		"f1-micro":       3,
	}
	for name, want := range tests {
		if got := MachineTypeSortScore(name); got != want {
			t.Errorf("MachineTypeSortScore(%q) = %d, want %d", name, got, want)
		}
	}
}
