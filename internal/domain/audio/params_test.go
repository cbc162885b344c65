package audio

import (
	"strings"
	"testing"
)

func TestDefaultParamsValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr string
	}{
		{"exaggeration low", func(p *Params) { p.Exaggeration = -0.1 }, "exaggeration"},
		{"exaggeration high", func(p *Params) { p.Exaggeration = 1.1 }, "exaggeration"},
		{"exaggeration edge", func(p *Params) { p.Exaggeration = 1 }, ""},
		{"temperature zero", func(p *Params) { p.Temperature = 0 }, "temperature"},
		{"temperature one", func(p *Params) { p.Temperature = 1 }, ""},
		{"cfg low", func(p *Params) { p.CFGWeight = 0.4 }, "cfg_weight"},
		{"cfg high", func(p *Params) { p.CFGWeight = 2.5 }, "cfg_weight"},
		{"seed negative", func(p *Params) { p.Seed = -1 }, "seed"},
		{"seed zero", func(p *Params) { p.Seed = 0 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParamsApply(t *testing.T) {
	seed := 7
	p, err := DefaultParams().Apply(Patch{Seed: &seed})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p.Seed != 7 || p.Temperature != 0.7 {
		t.Fatalf("Apply result = %+v", p)
	}

	bad := 3.0
	got, err := p.Apply(Patch{CFGWeight: &bad})
	if err == nil {
		t.Fatal("expected error for out-of-range cfg weight")
	}
	if got != p {
		t.Fatalf("rejected patch changed params: %+v", got)
	}
}

func TestPreset(t *testing.T) {
	patch, err := Preset("Calm")
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}
	p, err := DefaultParams().Apply(patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p.Exaggeration != 0.1 || p.Temperature != 0.3 || p.CFGWeight != 1.5 || p.Seed != 42 {
		t.Fatalf("calm preset = %+v", p)
	}
	if _, err := Preset("shouty"); err == nil {
		t.Fatal("expected unknown preset error")
	}
}
