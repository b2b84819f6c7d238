package main

import (
	"testing"

	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/lumed"
	"github.com/google/go-cmp/cmp"
)

func TestPatchSettingsRequest(t *testing.T) {
	ledCount := 12
	maxLEDs := 60
	effect := lumed.EffectColorWave

	tests := []struct {
		name    string
		req     patchSettingsRequest
		update  lumed.PartialUpdate
		wantErr bool
	}{
		{
			name: "empty",
		},
		{
			name: "all fields",
			req:  patchSettingsRequest{LEDCount: "12", RGB: "1, 2,3", Effect: "5"},
			update: lumed.PartialUpdate{
				LEDCount: &ledCount,
				Color:    &xcolor.RGB{R: 1, G: 2, B: 3},
				Effect:   &effect,
			},
		},
		{
			name:    "negative count",
			req:     patchSettingsRequest{LEDCount: "-1"},
			wantErr: true,
		},
		{
			name: "count at the limit",
			req:  patchSettingsRequest{LEDCount: "60"},
			update: lumed.PartialUpdate{
				LEDCount: &maxLEDs,
			},
		},
		{
			name:    "count past the limit",
			req:     patchSettingsRequest{LEDCount: "61"},
			wantErr: true,
		},
		{
			name:    "huge count",
			req:     patchSettingsRequest{LEDCount: "9223372036854775807"},
			wantErr: true,
		},
		{
			name:    "component out of range",
			req:     patchSettingsRequest{RGB: "1,2,256"},
			wantErr: true,
		},
		{
			name:    "two components",
			req:     patchSettingsRequest{RGB: "1,2"},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			update, err := test.req.update(maxLEDs)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal("unexpected error:", err)
			}

			if diff := cmp.Diff(test.update, update); diff != "" {
				t.Errorf("unexpected diff (-want +got):\n%s", diff)
			}
		})
	}
}
